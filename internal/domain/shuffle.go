package domain

import "fmt"

// Shuffle returns a Fisher-Yates permutation of cards driven by an
// externally supplied stream of random integers. It consumes exactly
// len(cards) values, one per step: the working index i runs from len(cards)
// down to 1, picking j = randomInts[len(cards)-i] mod i and swapping
// positions i-1 and j. The final step swaps position 0 with itself and
// still consumes a value, so the batch size callers must supply equals the
// card count.
//
// The input slice is not mutated. Identical inputs produce identical
// output, which is what makes draws reproducible in tests.
func Shuffle(cards []Card, randomInts []int) ([]Card, error) {
	n := len(cards)
	if len(randomInts) < n {
		return nil, fmt.Errorf("%w: need %d values, have %d", ErrInsufficientEntropy, n, len(randomInts))
	}

	out := make([]Card, n)
	copy(out, cards)

	for i := n; i >= 1; i-- {
		r := randomInts[n-i]
		if r < 0 {
			return nil, fmt.Errorf("%w: negative value at index %d", ErrInsufficientEntropy, n-i)
		}
		j := r % i
		out[i-1], out[j] = out[j], out[i-1]
	}

	return out, nil
}
