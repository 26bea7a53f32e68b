package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/attacker99/arcana/internal/domain"
	"github.com/attacker99/arcana/internal/ports"
)

// DrawCoordinator draws cards from one fixed deck without replacement,
// given the set of identifiers already surfaced. It holds no per-session
// state; callers pass the exclusion set and record the result themselves.
type DrawCoordinator struct {
	deck    domain.Deck
	entropy ports.EntropySource
	rng     domain.RNG
	logger  *slog.Logger
}

// NewDrawCoordinator resolves the deck from the store and validates it once
// up front so that every later draw can trust card identifiers to be present
// and unique.
func NewDrawCoordinator(ctx context.Context, store ports.DeckStore, deckID string, entropy ports.EntropySource, rng domain.RNG, logger *slog.Logger) (*DrawCoordinator, error) {
	deck, err := store.GetDeck(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("load deck %q: %w", deckID, err)
	}
	if deck.Size() == 0 {
		return nil, fmt.Errorf("%w: deck %q is empty", domain.ErrBadDeck, deck.ID)
	}
	seen := make(map[string]struct{}, deck.Size())
	for _, card := range deck.Cards {
		if card.ID == "" {
			return nil, fmt.Errorf("%w: deck %q has a card with no id", domain.ErrBadDeck, deck.ID)
		}
		if _, dup := seen[card.ID]; dup {
			return nil, fmt.Errorf("%w: deck %q has duplicate card %q", domain.ErrBadDeck, deck.ID, card.ID)
		}
		seen[card.ID] = struct{}{}
	}
	return &DrawCoordinator{deck: deck, entropy: entropy, rng: rng, logger: logger}, nil
}

func (c *DrawCoordinator) DeckID() string { return c.deck.ID }

func (c *DrawCoordinator) DeckSize() int { return c.deck.Size() }

// Draw returns count cards absent from excluding, in shuffled order with
// positions starting at 1. The whole remaining deck is shuffled with one
// fresh entropy batch per call. count is clamped to the cards left; a draw
// that ends up at zero touches neither the entropy source nor the deck.
func (c *DrawCoordinator) Draw(ctx context.Context, count int, excluding map[string]struct{}) (domain.DrawResult, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidDrawCount, count)
	}
	if count == 0 {
		return domain.DrawResult{}, nil
	}

	available := c.deck.Remaining(excluding)
	if count > len(available) {
		c.logger.WarnContext(ctx, "draw count exceeds remaining cards, clamping",
			"requested", count, "remaining", len(available))
		count = len(available)
	}
	if count == 0 {
		return domain.DrawResult{}, nil
	}

	ints, err := c.entropy.RandomInts(ctx, len(available))
	if err != nil {
		return nil, fmt.Errorf("fetch entropy: %w", err)
	}

	shuffled, err := domain.Shuffle(available, ints)
	if err != nil {
		return nil, fmt.Errorf("shuffle: %w", err)
	}

	result := make(domain.DrawResult, count)
	for i, card := range shuffled[:count] {
		orientation := domain.Upright
		if c.rng.Intn(2) == 1 {
			orientation = domain.Reversed
		}
		result[i] = domain.DrawnCard{
			Card:        card,
			Position:    i + 1,
			Orientation: orientation,
		}
	}
	return result, nil
}
