package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/folio-storefront/pkg/logger"
	"github.com/angelmondragon/folio-storefront/pkg/metrics"
)

const defaultInterval = 6 * time.Hour

type WorkerParams struct {
	Logger   *logger.Logger
	Schedule *Schedule
	Lease    Lease
	Metrics  *metrics.MaintenanceMetrics
	Interval time.Duration
}

// Worker runs the schedule once at start and then on every tick.
type Worker struct {
	logg     *logger.Logger
	schedule *Schedule
	lease    Lease
	metrics  *metrics.MaintenanceMetrics
	interval time.Duration
}

func NewWorker(params WorkerParams) (*Worker, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Lease == nil {
		return nil, errors.New("lease required")
	}
	schedule := params.Schedule
	if schedule == nil {
		schedule = NewSchedule()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Worker{
		logg:     params.Logger,
		schedule: schedule,
		lease:    params.Lease,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run blocks until ctx is cancelled. Failed cycles are logged and retried on
// the next tick.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if err := w.Cycle(ctx); err != nil {
			w.logg.Error(ctx, "maintenance cycle failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Cycle runs every job under the lease. One job failing does not stop the
// rest; their errors are combined.
func (w *Worker) Cycle(ctx context.Context) error {
	held, err := w.lease.Acquire(ctx)
	if err != nil {
		return err
	}
	if !held {
		w.logg.Info(ctx, "maintenance lease held elsewhere, skipping cycle")
		return nil
	}
	defer func() {
		if err := w.lease.Release(context.WithoutCancel(ctx)); err != nil {
			w.logg.Warn(ctx, fmt.Sprintf("maintenance lease release failed: %v", err))
		}
	}()

	var errs error
	for _, job := range w.schedule.Jobs() {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		errs = multierr.Append(errs, w.runJob(ctx, job))
	}
	return errs
}

func (w *Worker) runJob(ctx context.Context, job Job) error {
	jobCtx := w.logg.WithField(ctx, "job", job.Name())
	started := time.Now()
	err := job.Run(jobCtx)
	took := time.Since(started)
	w.metrics.ObserveRun(job.Name(), took, err)

	jobCtx = w.logg.WithField(jobCtx, "duration_ms", took.Milliseconds())
	if err != nil {
		w.logg.Error(jobCtx, "maintenance job failed", err)
		return fmt.Errorf("%s: %w", job.Name(), err)
	}
	w.logg.Info(jobCtx, "maintenance job done")
	return nil
}
