package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/gethsun1/solmarket-backend/pkg/logger"
	"github.com/gethsun1/solmarket-backend/pkg/metrics"
)

const defaultMarketCloseLimit = 500

type dueEnder interface {
	EndDue(ctx context.Context, now time.Time, limit int) (int64, error)
}

// MarketCloseJobParams configure the auction/raffle closing sweep.
type MarketCloseJobParams struct {
	Logger   *logger.Logger
	Auctions dueEnder
	Raffles  dueEnder
	Metrics  *metrics.CronJobMetrics
	Limit    int
}

// NewMarketCloseJob flips auctions and raffles past their end time to ended.
func NewMarketCloseJob(params MarketCloseJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Auctions == nil {
		return nil, fmt.Errorf("auction service required")
	}
	if params.Raffles == nil {
		return nil, fmt.Errorf("raffle service required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultMarketCloseLimit
	}
	return &marketCloseJob{
		logg:     params.Logger,
		auctions: params.Auctions,
		raffles:  params.Raffles,
		metrics:  params.Metrics,
		limit:    limit,
		now:      time.Now,
	}, nil
}

type marketCloseJob struct {
	logg     *logger.Logger
	auctions dueEnder
	raffles  dueEnder
	metrics  *metrics.CronJobMetrics
	limit    int
	now      func() time.Time
}

func (j *marketCloseJob) Name() string { return "market-close" }

func (j *marketCloseJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	var errs error

	auctionsEnded, err := j.auctions.EndDue(ctx, now, j.limit)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("end due auctions: %w", err))
	}
	rafflesEnded, err := j.raffles.EndDue(ctx, now, j.limit)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("end due raffles: %w", err))
	}
	if errs != nil {
		return errs
	}
	j.metrics.AddSwept(j.Name(), int(auctionsEnded+rafflesEnded))

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"auctions_ended": auctionsEnded,
		"raffles_ended":  rafflesEnded,
	})
	j.logg.Info(logCtx, "market close sweep complete")
	return nil
}
