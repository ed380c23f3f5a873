package alerting

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"HRM-backend/internal/attendance"
)

type Enqueuer interface {
	Enqueue(date time.Time) bool
}

// Scheduler sweeps the current day on a cron schedule so days without
// late writes are still evaluated.
type Scheduler struct {
	cron  *cron.Cron
	entry cron.EntryID
	queue Enqueuer
	loc   *time.Location
	now   func() time.Time
}

func NewScheduler(spec string, loc *time.Location, q Enqueuer) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron:  cron.New(cron.WithLocation(loc)),
		queue: q,
		loc:   loc,
		now:   time.Now,
	}
	id, err := s.cron.AddFunc(spec, s.sweep)
	if err != nil {
		return nil, fmt.Errorf("schedule threshold sweep %q: %w", spec, err)
	}
	s.entry = id
	return s, nil
}

func (s *Scheduler) sweep() {
	today := s.now().In(s.loc)
	if !s.queue.Enqueue(today) {
		log.Printf("[WARN] threshold sweep for %s dropped", today.Format(attendance.DateLayout))
		return
	}
	log.Printf("[INFO] threshold sweep queued %s", today.Format(attendance.DateLayout))
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("[INFO] threshold sweep scheduled, next run %s", s.cron.Entry(s.entry).Next.Format(time.RFC3339))
}

// Stop waits for a running sweep to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
