package alerting

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	mu       sync.Mutex
	dates    []string
	deadline bool
	err      error
	done     chan struct{}
}

func newRecordingRunner() *recordingRunner { return &recordingRunner{done: make(chan struct{}, 16)} }

func (r *recordingRunner) Run(ctx context.Context, date time.Time) (Report, error) {
	r.mu.Lock()
	r.dates = append(r.dates, date.Format("2006-01-02"))
	_, r.deadline = ctx.Deadline()
	r.mu.Unlock()
	r.done <- struct{}{}
	return Report{Date: date.Format("2006-01-02")}, r.err
}

func (r *recordingRunner) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.dates...)
}

func wait(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for job")
	}
}

func TestQueueCoalescesAndDrops(t *testing.T) {
	q := NewQueue(newRecordingRunner(), 1, time.Second, time.UTC)

	assert.True(t, q.Enqueue(day.Add(9*time.Hour)))
	assert.True(t, q.Enqueue(day.Add(17*time.Hour)), "same day is coalesced")
	assert.Equal(t, 1, q.Pending())

	assert.False(t, q.Enqueue(day.AddDate(0, 0, 1)), "full queue drops")
	assert.Equal(t, 1, q.Pending())
}

func TestQueueWorkerRunsJobsWithTimeout(t *testing.T) {
	runner := newRecordingRunner()
	runner.err = errors.New("aggregation failed")
	q := NewQueue(runner, 4, time.Second, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(stopped)
	}()

	require.True(t, q.Enqueue(day))
	wait(t, runner.done)
	require.True(t, q.Enqueue(day.AddDate(0, 0, 1)))
	wait(t, runner.done)

	// after a pass the same day can be queued again
	require.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, 10*time.Millisecond)
	require.True(t, q.Enqueue(day))
	wait(t, runner.done)

	assert.Equal(t, []string{"2025-04-01", "2025-04-02", "2025-04-01"}, runner.got())
	runner.mu.Lock()
	assert.True(t, runner.deadline)
	runner.mu.Unlock()

	cancel()
	wait(t, stopped)
}

func TestQueueUsesLocationForDay(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	runner := newRecordingRunner()
	q := NewQueue(runner, 4, time.Second, jst)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	q.Enqueue(time.Date(2025, 4, 1, 20, 0, 0, 0, time.UTC))
	wait(t, runner.done)
	assert.Equal(t, []string{"2025-04-02"}, runner.got())
}

type fakeEnqueuer struct {
	dates []time.Time
	ok    bool
}

func (f *fakeEnqueuer) Enqueue(d time.Time) bool {
	f.dates = append(f.dates, d)
	return f.ok
}

func TestSchedulerSweepEnqueuesToday(t *testing.T) {
	q := &fakeEnqueuer{ok: true}
	s, err := NewScheduler("0 18 * * *", time.UTC, q)
	require.NoError(t, err)
	s.now = func() time.Time { return day.Add(18 * time.Hour) }

	s.sweep()
	require.Len(t, q.dates, 1)
	assert.Equal(t, "2025-04-01", q.dates[0].Format("2006-01-02"))

	s.Start()
	assert.False(t, s.cron.Entry(s.entry).Next.IsZero())
	s.Stop()
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	_, err := NewScheduler("every day", time.UTC, &fakeEnqueuer{})
	assert.Error(t, err)
}

func TestHandlerCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	runner := newRecordingRunner()
	r := gin.New()
	RegisterRoutes(r, runner, time.UTC)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/thresholds/check?date=2025-04-01", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"date":"2025-04-01"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/thresholds/check?date=1/4/2025", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	runner.err = errors.New("db down")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/thresholds/check", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":{"code":"INTERNAL","message":"threshold evaluation failed"}}`, w.Body.String())
}
