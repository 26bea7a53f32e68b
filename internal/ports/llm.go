package ports

import (
	"context"

	"github.com/attacker99/arcana/internal/domain"
)

// CardInput is a simplified card representation for the LLM prompts.
type CardInput struct {
	Name        string
	Position    int
	Orientation string
	Keywords    []string
	Short       string
}

// TurnContext is one prior clarification exchange, passed as read-only
// context to later decide and interpret calls.
type TurnContext struct {
	Question  string
	CardNames []string
	Response  string
}

// SpreadInput holds everything the LLM needs to interpret an initial spread.
type SpreadInput struct {
	DeckID   string
	Spread   string
	Question string
	Cards    []CardInput
}

// DecideInput holds the context for choosing a clarification draw count.
type DecideInput struct {
	Question       string
	Interpretation string
	History        []TurnContext
	Remaining      int
}

// ClarifyInput holds the context for interpreting a follow-up turn. Cards
// is empty when the turn drew nothing; interpreters must reference only the
// cards passed here and in History, never invent others.
type ClarifyInput struct {
	OriginalQuestion string
	Question         string
	Interpretation   string
	History          []TurnContext
	Cards            []CardInput
}

// Decider chooses how many clarification cards (0 to 3) a follow-up
// question warrants. It never performs the draw itself.
type Decider interface {
	DecideDrawCount(ctx context.Context, in DecideInput) (int, error)
}

// Interpreter generates tarot interpretations via an LLM. The with-cards
// and without-cards paths are distinct steps: the latter must answer from
// the existing reading alone.
type Interpreter interface {
	InterpretSpread(ctx context.Context, in SpreadInput) (domain.Interpretation, error)
	InterpretWithCards(ctx context.Context, in ClarifyInput) (domain.Interpretation, error)
	InterpretWithoutCards(ctx context.Context, in ClarifyInput) (domain.Interpretation, error)
}
