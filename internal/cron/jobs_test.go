package cron

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubSweeper struct {
	count int64
	err   error
	calls int
	limit int
}

func (s *stubSweeper) SweepExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	s.calls++
	s.limit = limit
	return s.count, s.err
}

func (s *stubSweeper) EndDue(ctx context.Context, now time.Time, limit int) (int64, error) {
	s.calls++
	s.limit = limit
	return s.count, s.err
}

type stubCartCleaner struct {
	deleted int64
	err     error
	cutoff  time.Time
}

func (s *stubCartCleaner) DeleteStaleOpenCarts(ctx context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.deleted, s.err
}

func TestEscrowExpiryJob(t *testing.T) {
	sweeper := &stubSweeper{count: 7}
	job, err := NewEscrowExpiryJob(EscrowExpiryJobParams{
		Logger: testLogger(),
		Escrow: sweeper,
		Limit:  100,
	})
	if err != nil {
		t.Fatalf("NewEscrowExpiryJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sweeper.calls != 1 || sweeper.limit != 100 {
		t.Fatalf("unexpected sweep call: %+v", sweeper)
	}

	sweeper.err = errors.New("db down")
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected sweep error to surface")
	}
}

func TestEscrowExpiryJobDefaultsLimit(t *testing.T) {
	sweeper := &stubSweeper{}
	job, err := NewEscrowExpiryJob(EscrowExpiryJobParams{
		Logger: testLogger(),
		Escrow: sweeper,
	})
	if err != nil {
		t.Fatalf("NewEscrowExpiryJob: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sweeper.limit != defaultExpirySweepLimit {
		t.Fatalf("expected default limit, got %d", sweeper.limit)
	}
}

func TestStaleCartJobUsesCutoff(t *testing.T) {
	cleaner := &stubCartCleaner{deleted: 2}
	job, err := NewStaleCartJob(StaleCartJobParams{
		Logger: testLogger(),
		Carts:  cleaner,
		MaxAge: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewStaleCartJob: %v", err)
	}

	before := time.Now().UTC()
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	expected := before.Add(-24 * time.Hour)
	if cleaner.cutoff.Before(expected.Add(-time.Minute)) || cleaner.cutoff.After(expected.Add(time.Minute)) {
		t.Fatalf("cutoff %s not near %s", cleaner.cutoff, expected)
	}
}

func TestMarketCloseJobAggregatesErrors(t *testing.T) {
	auctions := &stubSweeper{count: 1}
	raffles := &stubSweeper{err: errors.New("raffle table locked")}

	job, err := NewMarketCloseJob(MarketCloseJobParams{
		Logger:   testLogger(),
		Auctions: auctions,
		Raffles:  raffles,
	})
	if err != nil {
		t.Fatalf("NewMarketCloseJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected raffle error to surface")
	}
	if auctions.calls != 1 || raffles.calls != 1 {
		t.Fatal("both sweeps must run even when one fails")
	}
}

func TestMarketCloseJobHappyPath(t *testing.T) {
	job, err := NewMarketCloseJob(MarketCloseJobParams{
		Logger:   testLogger(),
		Auctions: &stubSweeper{count: 2},
		Raffles:  &stubSweeper{count: 3},
	})
	if err != nil {
		t.Fatalf("NewMarketCloseJob: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
