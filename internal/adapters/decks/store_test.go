package decks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/attacker99/arcana/internal/adapters/decks"
	"github.com/attacker99/arcana/internal/domain"
)

func TestGetDeck_RiderWaite(t *testing.T) {
	store := decks.NewEmbeddedStore()

	deck, err := store.GetDeck(context.Background(), decks.DefaultDeckID)
	if err != nil {
		t.Fatalf("GetDeck: %v", err)
	}
	if deck.ID != "rider_waite" {
		t.Errorf("deck ID = %q, want %q", deck.ID, "rider_waite")
	}
	if deck.Size() != domain.DeckSize {
		t.Fatalf("deck size = %d, want %d", deck.Size(), domain.DeckSize)
	}

	seen := make(map[string]struct{}, deck.Size())
	for _, card := range deck.Cards {
		if card.ID == "" || card.Name == "" {
			t.Fatalf("card with empty id or name: %+v", card)
		}
		if len(card.Keywords) == 0 {
			t.Errorf("card %s has no keywords", card.ID)
		}
		if card.Short == "" {
			t.Errorf("card %s has no short meaning", card.ID)
		}
		if _, dup := seen[card.ID]; dup {
			t.Fatalf("duplicate card id %s", card.ID)
		}
		seen[card.ID] = struct{}{}
	}

	if deck.Cards[0].ID != "the_fool" {
		t.Errorf("first card = %s, want the_fool", deck.Cards[0].ID)
	}
	if last := deck.Cards[len(deck.Cards)-1].ID; last != "king_of_pentacles" {
		t.Errorf("last card = %s, want king_of_pentacles", last)
	}
}

func TestGetDeck_Unknown(t *testing.T) {
	store := decks.NewEmbeddedStore()

	_, err := store.GetDeck(context.Background(), "thoth")
	if !errors.Is(err, domain.ErrDeckNotFound) {
		t.Fatalf("err = %v, want ErrDeckNotFound", err)
	}
}
