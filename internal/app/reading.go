package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/attacker99/arcana/internal/domain"
	"github.com/attacker99/arcana/internal/ports"
)

// StartReadingRequest is the application-level input (no HTTP types).
type StartReadingRequest struct {
	Question string
	Spread   string
}

// ClarifyRequest asks a follow-up question within an existing reading.
type ClarifyRequest struct {
	ReadingID string
	Question  string
}

// ClarifyResponse carries the recorded turn and the session state after it.
type ClarifyResponse struct {
	Turn    domain.ClarificationTurn
	Session domain.SessionView
}

// ReadingService orchestrates the reading lifecycle: the initial spread,
// follow-up clarification turns, and lookups.
type ReadingService struct {
	coord    *DrawCoordinator
	decider  ports.Decider
	interp   ports.Interpreter
	registry *SessionRegistry
	logger   *slog.Logger
}

func NewReadingService(coord *DrawCoordinator, decider ports.Decider, interp ports.Interpreter, registry *SessionRegistry, logger *slog.Logger) *ReadingService {
	return &ReadingService{
		coord:    coord,
		decider:  decider,
		interp:   interp,
		registry: registry,
		logger:   logger,
	}
}

// StartReading draws the requested spread, interprets it, and registers a
// new session. No session is created when any step fails.
func (s *ReadingService) StartReading(ctx context.Context, req StartReadingRequest) (domain.SessionView, error) {
	spread, err := domain.ParseSpreadType(req.Spread)
	if err != nil {
		return domain.SessionView{}, err
	}

	cards, err := s.coord.Draw(ctx, spread.CardCount(), nil)
	if err != nil {
		return domain.SessionView{}, fmt.Errorf("draw spread: %w", err)
	}

	interpretation, err := s.interp.InterpretSpread(ctx, ports.SpreadInput{
		DeckID:   s.coord.DeckID(),
		Spread:   string(spread),
		Question: req.Question,
		Cards:    toCardInputs(cards),
	})
	if err != nil {
		return domain.SessionView{}, fmt.Errorf("interpret spread: %w", err)
	}

	session := domain.NewSession(uuid.NewString(), req.Question, spread, cards, interpretation, time.Now())
	s.registry.Put(session)

	view := session.Snapshot()
	s.logger.InfoContext(ctx, "reading started",
		"reading_id", view.ID, "spread", string(spread), "cards", len(cards), "model", interpretation.Model)

	return view, nil
}

// Clarify runs one follow-up turn: ask the decider how many cards the
// question warrants, draw them (or none), and interpret. The drawn cards
// are committed to the session before interpretation, so a failed
// interpretation leaves them consumed but records no turn.
func (s *ReadingService) Clarify(ctx context.Context, req ClarifyRequest) (ClarifyResponse, error) {
	session, err := s.registry.Get(req.ReadingID)
	if err != nil {
		return ClarifyResponse{}, err
	}

	if !session.BeginTurn() {
		return ClarifyResponse{}, domain.ErrTurnInProgress
	}
	defer session.EndTurn()

	view := session.Snapshot()

	decided, err := s.decider.DecideDrawCount(ctx, ports.DecideInput{
		Question:       req.Question,
		Interpretation: view.Interpretation.Text,
		History:        toTurnContexts(view.Turns),
		Remaining:      s.coord.DeckSize() - view.DrawnCount,
	})
	if err != nil {
		return ClarifyResponse{}, fmt.Errorf("decide draw count: %w", err)
	}
	if decided < 0 {
		decided = 0
	} else if decided > domain.MaxClarifyDraw {
		decided = domain.MaxClarifyDraw
	}

	cards := domain.DrawResult{}
	if decided > 0 {
		cards, err = s.coord.Draw(ctx, decided, view.Drawn)
		if err != nil {
			return ClarifyResponse{}, fmt.Errorf("draw clarification: %w", err)
		}
		if len(cards) > 0 {
			session.CommitDraw(cards)
		}
	}

	in := ports.ClarifyInput{
		OriginalQuestion: view.Question,
		Question:         req.Question,
		Interpretation:   view.Interpretation.Text,
		History:          toTurnContexts(view.Turns),
		Cards:            toCardInputs(cards),
	}

	var interpretation domain.Interpretation
	if len(cards) > 0 {
		interpretation, err = s.interp.InterpretWithCards(ctx, in)
	} else {
		interpretation, err = s.interp.InterpretWithoutCards(ctx, in)
	}
	if err != nil {
		return ClarifyResponse{}, fmt.Errorf("interpret clarification: %w", err)
	}

	turn := domain.ClarificationTurn{
		Question: req.Question,
		Cards:    cards,
		Response: interpretation,
		At:       time.Now(),
	}
	session.AppendTurn(turn)

	s.logger.InfoContext(ctx, "clarification answered",
		"reading_id", view.ID, "decided", decided, "drawn", len(cards), "model", interpretation.Model)

	return ClarifyResponse{Turn: turn, Session: session.Snapshot()}, nil
}

// GetReading returns a point-in-time view of an existing session.
func (s *ReadingService) GetReading(id string) (domain.SessionView, error) {
	session, err := s.registry.Get(id)
	if err != nil {
		return domain.SessionView{}, err
	}
	return session.Snapshot(), nil
}

// DeckID names the deck readings are served from.
func (s *ReadingService) DeckID() string {
	return s.coord.DeckID()
}

// DeckSize is the total number of cards in the deck.
func (s *ReadingService) DeckSize() int {
	return s.coord.DeckSize()
}

func toCardInputs(cards domain.DrawResult) []ports.CardInput {
	out := make([]ports.CardInput, len(cards))
	for i, c := range cards {
		out[i] = ports.CardInput{
			Name:        c.Name,
			Position:    c.Position,
			Orientation: string(c.Orientation),
			Keywords:    c.Keywords,
			Short:       c.Short,
		}
	}
	return out
}

func toTurnContexts(turns []domain.ClarificationTurn) []ports.TurnContext {
	out := make([]ports.TurnContext, len(turns))
	for i, t := range turns {
		out[i] = ports.TurnContext{
			Question:  t.Question,
			CardNames: t.Cards.Names(),
			Response:  t.Response.Text,
		}
	}
	return out
}
