package domain

// DeckSize is the number of cards in a full reading deck. Draw bookkeeping
// and the composition root treat this as constant data, never configuration.
const DeckSize = 78

// MaxClarifyDraw caps how many extra cards a single clarification turn may add.
const MaxClarifyDraw = 3

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

// Orientation represents the orientation of a drawn tarot card.
type Orientation string

const (
	Upright  Orientation = "upright"
	Reversed Orientation = "reversed"
)

// Card represents a single tarot card in a deck.
type Card struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Short    string   `json:"short"`
}

// DrawnCard is a card surfaced by a draw, with its position in the draw
// order and an orientation chosen independently of which card it is.
type DrawnCard struct {
	Card
	Position    int         `json:"position"`
	Orientation Orientation `json:"orientation"`
}

// DrawResult is the ordered outcome of one draw operation. Identifiers are
// pairwise distinct and disjoint from the exclusion set the draw was given.
type DrawResult []DrawnCard

// IDs returns the card identifiers in draw order.
func (r DrawResult) IDs() []string {
	ids := make([]string, len(r))
	for i, c := range r {
		ids[i] = c.ID
	}
	return ids
}

// Names returns the card names in draw order.
func (r DrawResult) Names() []string {
	names := make([]string, len(r))
	for i, c := range r {
		names[i] = c.Name
	}
	return names
}

// Interpretation is the structured text produced for a spread or a
// clarification turn. Model is bookkeeping for logs and response metadata,
// never part of the reading itself.
type Interpretation struct {
	Text       string `json:"text"`
	Style      string `json:"style"`
	Disclaimer string `json:"disclaimer"`
	Model      string `json:"-"`
}

// Deck is an immutable ordered catalogue of cards. Order is canonical but
// drawing depends on it only as the shuffle's starting order.
type Deck struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// Size returns the number of cards in the deck.
func (d Deck) Size() int { return len(d.Cards) }

// Remaining returns the deck's cards whose IDs are not in excluding,
// preserving canonical order.
func (d Deck) Remaining(excluding map[string]struct{}) []Card {
	out := make([]Card, 0, max(0, len(d.Cards)-len(excluding)))
	for _, c := range d.Cards {
		if _, drawn := excluding[c.ID]; drawn {
			continue
		}
		out = append(out, c)
	}
	return out
}

// SpreadType identifies the layout of an initial reading.
type SpreadType string

const (
	SpreadSingle      SpreadType = "single"
	SpreadThreeCard   SpreadType = "three_card"
	SpreadCelticCross SpreadType = "celtic_cross"
)

// CardCount returns how many cards the spread lays out.
func (s SpreadType) CardCount() int {
	switch s {
	case SpreadSingle:
		return 1
	case SpreadCelticCross:
		return 10
	default:
		return 3
	}
}

// ParseSpreadType maps a raw spread name to a SpreadType. An empty string
// resolves to the three-card spread.
func ParseSpreadType(raw string) (SpreadType, error) {
	switch raw {
	case "single":
		return SpreadSingle, nil
	case "three_card", "":
		return SpreadThreeCard, nil
	case "celtic_cross":
		return SpreadCelticCross, nil
	default:
		return "", ErrUnknownSpread
	}
}
