// Package scheduler wires up the cron job that periodically runs a full
// board sync.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Syncer runs one full sync cycle and reports how many boards succeeded.
type Syncer interface {
	Run(ctx context.Context) (int, error)
}

// Scheduler wraps robfig/cron and manages the sync loop.
type Scheduler struct {
	cron   *cron.Cron
	syncer Syncer
	spec   string // cron spec, e.g. "@every 24h"
}

// New creates a Scheduler that fires on the given cron spec.
func New(syncer Syncer, spec string) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cron.DefaultLogger)),
		syncer: syncer,
		spec:   spec,
	}
}

// Start registers the job and starts the scheduler. Also runs one sync
// immediately so the listings are populated without waiting for the
// first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSync(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started — spec: %s", s.spec)

	// Run immediately on startup (non-blocking)
	go s.runSync(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[scheduler] Cron stopped")
}

func (s *Scheduler) runSync(ctx context.Context) {
	log.Println("[scheduler] Sync cycle started")

	synced, err := s.syncer.Run(ctx)
	if err != nil {
		log.Printf("[scheduler] Sync error: %v", err)
		return
	}

	log.Printf("[scheduler] Sync cycle complete — %d board(s) synced", synced)
}
