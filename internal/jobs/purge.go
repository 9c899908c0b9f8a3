// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package jobs runs background maintenance on a cron schedule. The only job
// today hard-deletes categories and tags that were soft-deleted longer ago
// than the configured retention.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"tenantcms/internal/models"
	"tenantcms/internal/observability/metrics"
	"tenantcms/internal/store"
)

// purgeTimeout bounds one purge run.
const purgeTimeout = 5 * time.Minute

// Purger removes soft-deleted terms of every kind.
type Purger struct {
	terms     []*store.TermStore
	retention time.Duration
	now       func() time.Time
}

// NewPurger creates a purger over the given term stores.
func NewPurger(retention time.Duration, terms ...*store.TermStore) *Purger {
	return &Purger{terms: terms, retention: retention, now: time.Now}
}

// Run purges terms soft-deleted before now minus the retention and returns
// the number of rows removed per kind. A failing kind does not stop the
// others; the first error is returned.
func (p *Purger) Run(ctx context.Context) (map[models.TermKind]int64, error) {
	cutoff := p.now().Add(-p.retention)
	purged := make(map[models.TermKind]int64, len(p.terms))
	var firstErr error
	for _, ts := range p.terms {
		n, err := ts.PurgeDeleted(ctx, cutoff)
		if err != nil {
			slog.Error("purge soft-deleted terms failed", "kind", ts.Kind(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		purged[ts.Kind()] = n
		metrics.ObservePurge(string(ts.Kind()), n)
		if n > 0 {
			slog.Info("purged soft-deleted terms", "kind", ts.Kind(), "count", n, "cutoff", cutoff)
		}
	}
	return purged, firstErr
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers the purger under spec (standard five-field cron
// syntax or a descriptor such as "@daily").
func NewScheduler(spec string, p *Purger) (*Scheduler, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()
		p.Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule purge %q: %w", spec, err)
	}
	return &Scheduler{cron: c}, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("background jobs started", "entries", len(s.cron.Entries()))
}

// Stop prevents new runs and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		slog.Warn("background jobs did not finish before shutdown")
	}
}
