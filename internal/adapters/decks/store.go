package decks

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/attacker99/arcana/internal/domain"
)

//go:embed data/*.json
var deckFS embed.FS

// DefaultDeckID is the deck served when a request does not name one.
const DefaultDeckID = "rider_waite"

// registry maps deck IDs to their display name and JSON filename inside data/.
var registry = map[string]struct {
	name string
	file string
}{
	"rider_waite": {name: "Rider-Waite", file: "data/rider_waite.json"},
}

// EmbeddedStore loads decks from embedded JSON files.
type EmbeddedStore struct {
	once  sync.Once
	decks map[string]domain.Deck
	err   error
}

func NewEmbeddedStore() *EmbeddedStore {
	return &EmbeddedStore{}
}

func (s *EmbeddedStore) init() {
	s.decks = make(map[string]domain.Deck, len(registry))
	for id, entry := range registry {
		raw, err := deckFS.ReadFile(entry.file)
		if err != nil {
			s.err = fmt.Errorf("read embedded deck %s: %w", id, err)
			return
		}
		var cards []domain.Card
		if err := json.Unmarshal(raw, &cards); err != nil {
			s.err = fmt.Errorf("parse embedded deck %s: %w", id, err)
			return
		}
		s.decks[id] = domain.Deck{
			ID:    id,
			Name:  entry.name,
			Cards: cards,
		}
	}
}

func (s *EmbeddedStore) GetDeck(_ context.Context, deckID string) (domain.Deck, error) {
	s.once.Do(s.init)
	if s.err != nil {
		return domain.Deck{}, s.err
	}
	deck, ok := s.decks[deckID]
	if !ok {
		return domain.Deck{}, domain.ErrDeckNotFound
	}
	return deck, nil
}
