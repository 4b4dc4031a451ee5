package maintenance

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/folio-storefront/pkg/logger"
	"github.com/angelmondragon/folio-storefront/pkg/metrics"
	"github.com/angelmondragon/folio-storefront/pkg/outbox"
)

const (
	defaultOutboxRetention = 30 * 24 * time.Hour
	defaultDLQRetention    = 90 * 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type purgeFunc func(tx *gorm.DB, cutoff time.Time) (int64, error)

// retentionJob deletes rows older than a fixed window in one transaction.
type retentionJob struct {
	name    string
	window  time.Duration
	db      txRunner
	purge   purgeFunc
	logg    *logger.Logger
	metrics *metrics.MaintenanceMetrics
	now     func() time.Time
}

type RetentionParams struct {
	DB      txRunner
	Logger  *logger.Logger
	Metrics *metrics.MaintenanceMetrics
	Window  time.Duration
}

// NewOutboxRetention purges delivered outbox rows, and rows the publisher
// parked at parkedAttempts, once they are older than the window.
func NewOutboxRetention(params RetentionParams, repo *outbox.Repository, parkedAttempts int) (Job, error) {
	if repo == nil {
		return nil, errors.New("outbox repository required")
	}
	return newRetentionJob("outbox-retention", params, defaultOutboxRetention, func(tx *gorm.DB, cutoff time.Time) (int64, error) {
		return repo.DeleteSettledBefore(tx, cutoff, parkedAttempts)
	})
}

// NewDLQRetention purges dead letters once they are older than the window.
func NewDLQRetention(params RetentionParams, repo *outbox.DLQRepository) (Job, error) {
	if repo == nil {
		return nil, errors.New("dlq repository required")
	}
	return newRetentionJob("dlq-retention", params, defaultDLQRetention, repo.DeleteFailedBefore)
}

func newRetentionJob(name string, params RetentionParams, fallback time.Duration, purge purgeFunc) (Job, error) {
	if params.DB == nil {
		return nil, errors.New("db runner required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	window := params.Window
	if window <= 0 {
		window = fallback
	}
	return &retentionJob{
		name:    name,
		window:  window,
		db:      params.DB,
		purge:   purge,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.window)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.purge(tx, cutoff)
		deleted = n
		return err
	})
	if err != nil {
		return err
	}
	j.metrics.AddPurged(j.name, deleted)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "retention purge complete")
	return nil
}
