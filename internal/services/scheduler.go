package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// staleExpirer is the donation operation the scheduler runs
type staleExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic donation housekeeping jobs
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

// NewScheduler registers the pending-donation expiry job on schedule, a
// standard cron spec or a descriptor such as "@every 15m"
func NewScheduler(schedule string, donations staleExpirer) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		timeout: 2 * time.Minute,
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.expire(donations) }); err != nil {
		return nil, fmt.Errorf("invalid expiry schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) expire(donations staleExpirer) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := donations.ExpireStale(ctx); err != nil {
		log.Printf("[SCHEDULER] expiring stale donations failed: %v", err)
	}
}

// Start runs the jobs in the background
func (s *Scheduler) Start() {
	log.Printf("[SCHEDULER] started with %d job(s)", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
