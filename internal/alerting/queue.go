package alerting

import (
	"context"
	"log"
	"sync"
	"time"

	"HRM-backend/internal/attendance"
)

type Runner interface {
	Run(ctx context.Context, date time.Time) (Report, error)
}

// Queue decouples writes from evaluation. Enqueue never blocks: a date that
// is already pending is coalesced, and a full queue drops the job.
type Queue struct {
	runner  Runner
	loc     *time.Location
	timeout time.Duration
	jobs    chan string

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewQueue(runner Runner, size int, timeout time.Duration, loc *time.Location) *Queue {
	if size <= 0 {
		size = 64
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Queue{
		runner:  runner,
		loc:     loc,
		timeout: timeout,
		jobs:    make(chan string, size),
		pending: make(map[string]struct{}),
	}
}

// Enqueue reports false only when the job was dropped.
func (q *Queue) Enqueue(date time.Time) bool {
	key := date.In(q.loc).Format(attendance.DateLayout)

	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.pending[key]; ok {
		return true
	}
	select {
	case q.jobs <- key:
		q.pending[key] = struct{}{}
		return true
	default:
		log.Printf("[WARN] threshold queue full, dropping %s", key)
		return false
	}
}

// Pending is the number of queued dates.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Run drains jobs until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	log.Printf("[INFO] threshold worker started")
	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] threshold worker stopped")
			return
		case key := <-q.jobs:
			// a write arriving while this pass runs schedules another one
			q.mu.Lock()
			delete(q.pending, key)
			q.mu.Unlock()
			q.process(ctx, key)
		}
	}
}

func (q *Queue) process(ctx context.Context, key string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] threshold job %s panicked: %v", key, r)
		}
	}()

	day, err := time.ParseInLocation(attendance.DateLayout, key, q.loc)
	if err != nil {
		log.Printf("[ERROR] threshold job: bad date %q", key)
		return
	}
	jctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	if _, err := q.runner.Run(jctx, day); err != nil {
		log.Printf("[ERROR] threshold job %s: %v", key, err)
	}
}
