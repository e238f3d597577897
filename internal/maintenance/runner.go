package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/scrapscan-backend/pkg/logger"
	"github.com/angelmondragon/scrapscan-backend/pkg/metrics"
)

const defaultInterval = time.Hour

type RunnerParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.MaintenanceMetrics
	Interval time.Duration
}

// Runner sweeps every registered job once per interval while holding the lock.
type Runner struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.MaintenanceMetrics
	interval time.Duration
}

func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Lock == nil {
		return nil, errors.New("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Runner{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run sweeps immediately, then on every tick until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.sweep(ctx); err != nil {
		r.logg.Error(ctx, "maintenance sweep failed", err)
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.sweep(ctx); err != nil {
				r.logg.Error(ctx, "maintenance sweep failed", err)
			}
		}
	}
}

func (r *Runner) sweep(ctx context.Context) error {
	locked, err := r.lock.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		r.logg.Info(ctx, "another maintenance worker holds the lock; skipping sweep")
		return nil
	}
	defer func() {
		if err := r.lock.Release(ctx); err != nil {
			r.logg.Error(ctx, "failed to release maintenance lock", err)
		}
	}()

	for _, job := range r.registry.Jobs() {
		r.runJob(ctx, job)
	}
	return nil
}

// runJob isolates job failures so one broken job does not starve the others.
func (r *Runner) runJob(ctx context.Context, job Job) {
	jobCtx := r.logg.WithField(ctx, "job", job.Name())
	start := time.Now()
	deleted, err := job.Run(jobCtx)
	elapsed := time.Since(start)

	r.metrics.ObserveDuration(job.Name(), elapsed)
	jobCtx = r.logg.WithFields(jobCtx, map[string]any{
		"duration_ms":  elapsed.Milliseconds(),
		"rows_deleted": deleted,
	})
	if err != nil {
		r.metrics.IncRun(job.Name(), "failure")
		r.logg.Error(jobCtx, "maintenance job failed", err)
		return
	}
	r.metrics.IncRun(job.Name(), "success")
	r.metrics.AddRowsDeleted(job.Name(), deleted)
	r.logg.Info(jobCtx, "maintenance job completed")
}
