package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/gethsun1/solmarket-backend/pkg/logger"
	"github.com/gethsun1/solmarket-backend/pkg/metrics"
)

const defaultStaleCartMaxAge = 30 * 24 * time.Hour

type staleCartCleaner interface {
	DeleteStaleOpenCarts(ctx context.Context, cutoff time.Time) (int64, error)
}

// StaleCartJobParams configure the abandoned cart cleanup.
type StaleCartJobParams struct {
	Logger  *logger.Logger
	Carts   staleCartCleaner
	Metrics *metrics.CronJobMetrics
	MaxAge  time.Duration
}

// NewStaleCartJob deletes open carts untouched longer than the max age.
func NewStaleCartJob(params StaleCartJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultStaleCartMaxAge
	}
	return &staleCartJob{
		logg:    params.Logger,
		carts:   params.Carts,
		metrics: params.Metrics,
		maxAge:  maxAge,
		now:     time.Now,
	}, nil
}

type staleCartJob struct {
	logg    *logger.Logger
	carts   staleCartCleaner
	metrics *metrics.CronJobMetrics
	maxAge  time.Duration
	now     func() time.Time
}

func (j *staleCartJob) Name() string { return "stale-cart-cleanup" }

func (j *staleCartJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	deleted, err := j.carts.DeleteStaleOpenCarts(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("stale cart cleanup: %w", err)
	}
	j.metrics.AddSwept(j.Name(), int(deleted))

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "stale cart cleanup complete")
	return nil
}
