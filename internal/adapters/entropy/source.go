package entropy

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// LocalSource serves integers from the process-local PRNG. It backs
// FallbackSource degradation and can run as the primary source when no
// upstream is configured.
type LocalSource struct{}

func (LocalSource) RandomInts(_ context.Context, count int) ([]int, error) {
	out := make([]int, count)
	for i := range out {
		out[i] = rand.IntN(maxUint16 + 1)
	}
	return out, nil
}

// FallbackSource tries the upstream once per call and degrades to the
// local PRNG when it fails. It only errors when the context is done.
type FallbackSource struct {
	client *Client
	local  LocalSource
	logger *slog.Logger
}

func NewFallbackSource(client *Client, logger *slog.Logger) *FallbackSource {
	return &FallbackSource{client: client, logger: logger}
}

func (s *FallbackSource) RandomInts(ctx context.Context, count int) ([]int, error) {
	ints, err := s.client.Fetch(ctx, count)
	if err == nil {
		return ints, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	s.logger.WarnContext(ctx, "entropy upstream failed, falling back to local PRNG", "error", err)
	return s.local.RandomInts(ctx, count)
}

// SleepFunc pauses for d or until ctx is done, returning ctx.Err() in that
// case.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BackoffSource retries the upstream with exponential backoff until it
// succeeds or the context is cancelled. It never degrades to local
// randomness.
type BackoffSource struct {
	client  *Client
	initial time.Duration
	max     time.Duration
	logger  *slog.Logger

	// Sleep is swapped out by tests to record delays instead of waiting.
	Sleep SleepFunc
}

func NewBackoffSource(client *Client, initial, max time.Duration, logger *slog.Logger) *BackoffSource {
	return &BackoffSource{
		client:  client,
		initial: initial,
		max:     max,
		logger:  logger,
		Sleep:   sleepContext,
	}
}

func (s *BackoffSource) RandomInts(ctx context.Context, count int) ([]int, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.initial
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxInterval = s.max
	bo.Reset()

	for attempt := 1; ; attempt++ {
		ints, err := s.client.Fetch(ctx, count)
		if err == nil {
			return ints, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		delay := bo.NextBackOff()
		s.logger.WarnContext(ctx, "entropy upstream failed, retrying",
			"attempt", attempt, "delay", delay, "error", err)
		if err := s.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}
