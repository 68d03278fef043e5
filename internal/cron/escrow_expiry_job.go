package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/gethsun1/solmarket-backend/pkg/logger"
	"github.com/gethsun1/solmarket-backend/pkg/metrics"
)

const defaultExpirySweepLimit = 500

type expirySweeper interface {
	SweepExpired(ctx context.Context, now time.Time, limit int) (int64, error)
}

// EscrowExpiryJobParams configure the escrow expiry sweep.
type EscrowExpiryJobParams struct {
	Logger  *logger.Logger
	Escrow  expirySweeper
	Metrics *metrics.CronJobMetrics
	Limit   int
}

// NewEscrowExpiryJob sweeps pending and funded escrows past their expiry.
// The request path never expires rows itself, so without this job an
// abandoned escrow would sit pending forever.
func NewEscrowExpiryJob(params EscrowExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Escrow == nil {
		return nil, fmt.Errorf("escrow service required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultExpirySweepLimit
	}
	return &escrowExpiryJob{
		logg:    params.Logger,
		escrow:  params.Escrow,
		metrics: params.Metrics,
		limit:   limit,
		now:     time.Now,
	}, nil
}

type escrowExpiryJob struct {
	logg    *logger.Logger
	escrow  expirySweeper
	metrics *metrics.CronJobMetrics
	limit   int
	now     func() time.Time
}

func (j *escrowExpiryJob) Name() string { return "escrow-expiry" }

func (j *escrowExpiryJob) Run(ctx context.Context) error {
	expired, err := j.escrow.SweepExpired(ctx, j.now().UTC(), j.limit)
	if err != nil {
		return fmt.Errorf("escrow expiry sweep: %w", err)
	}
	j.metrics.AddSwept(j.Name(), int(expired))

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"rows_expired": expired,
		"limit":        j.limit,
	})
	j.logg.Info(logCtx, "escrow expiry sweep complete")
	return nil
}
