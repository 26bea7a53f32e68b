package ports

import (
	"context"

	"github.com/attacker99/arcana/internal/domain"
)

// DeckStore provides access to tarot decks.
type DeckStore interface {
	GetDeck(ctx context.Context, deckID string) (domain.Deck, error)
}
