package schedule

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Task is a handle to a repeating job.
type Task interface {
	// Cancel stops future runs. It is safe to call more than once.
	Cancel()
}

// Scheduler runs repeating jobs (session ticks, autosaves) on a gocron scheduler.
type Scheduler struct {
	scheduler *gocron.Scheduler
}

// New creates a scheduler and starts it in a non-blocking manner.
func New() *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.StartAsync()
	return &Scheduler{scheduler: s}
}

// Every runs fn each interval, first run one interval from now.
func (s *Scheduler) Every(interval time.Duration, fn func()) (Task, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("schedule: interval must be positive, got %s", interval)
	}
	job, err := s.scheduler.Every(interval).WaitForSchedule().Do(fn)
	if err != nil {
		return nil, fmt.Errorf("schedule job: %w", err)
	}
	return &task{scheduler: s.scheduler, job: job}, nil
}

// Stop terminates all jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

type task struct {
	scheduler *gocron.Scheduler
	job       *gocron.Job
	once      sync.Once
}

func (t *task) Cancel() {
	t.once.Do(func() {
		t.scheduler.RemoveByReference(t.job)
	})
}
