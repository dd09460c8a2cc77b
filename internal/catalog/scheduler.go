// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// syncTimeout bounds one scheduled sync run.
const syncTimeout = 10 * time.Minute

// Scheduler runs catalog syncs on a cron schedule.
type Scheduler struct {
	catalog *Catalog
	cron    *cron.Cron
}

// NewScheduler registers a sync job with a standard five-field cron spec
// (or a descriptor like "@hourly").
func NewScheduler(c *Catalog, spec string) (*Scheduler, error) {
	s := &Scheduler{catalog: c, cron: cron.New()}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("template sync schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	report, err := s.catalog.Sync(ctx, nil)
	if err != nil {
		slog.Error("scheduled template sync failed", "error", err)
		return
	}
	slog.Info("scheduled template sync finished", "synced", report.Synced, "total", report.Total)
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("template sync scheduler started")
}

// Stop halts the schedule and waits for a running sync to finish or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("template sync still running at shutdown")
	}
	slog.Info("template sync scheduler stopped")
}
