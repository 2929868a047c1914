package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tunevest/songshare-ledger/internal/config"
	"github.com/tunevest/songshare-ledger/internal/service"
)

// Scheduler owns the background jobs: outbox dispatch and the daily price
// snapshot. Job specs come from configuration.
type Scheduler struct {
	cron *cron.Cron
}

// New builds the scheduler and registers all jobs.
func New(
	cfg config.SchedulerConfig,
	dispatcher *service.OutboxDispatcher,
	pricing *service.PricingService,
) (*Scheduler, error) {
	c := cron.New()

	_, err := c.AddFunc(cfg.OutboxDispatchSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		dispatched, err := dispatcher.DispatchPending(ctx)
		if err != nil {
			log.Printf("outbox dispatch run failed: %v", err)
			return
		}
		if dispatched > 0 {
			log.Printf("dispatched %d outbox events", dispatched)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register outbox dispatch job: %w", err)
	}

	_, err = c.AddFunc(cfg.PriceSnapshotSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		count, err := pricing.SnapshotPrices(ctx)
		if err != nil {
			log.Printf("price snapshot run failed: %v", err)
			return
		}
		log.Printf("snapshotted prices for %d contracts", count)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register price snapshot job: %w", err)
	}

	return &Scheduler{cron: c}, nil
}

// Start launches the job loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
