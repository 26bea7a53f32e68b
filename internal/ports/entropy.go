package ports

import "context"

// EntropySource supplies batches of random integers that drive one shuffle
// each. A batch is consumed once and discarded. Implementations decide how
// to cope with an unreliable upstream: retry until the context is done, or
// degrade to a local generator and never fail.
type EntropySource interface {
	// RandomInts returns at least count non-negative integers in [0, 65535].
	RandomInts(ctx context.Context, count int) ([]int, error)
}
