package app_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attacker99/arcana/internal/app"
	"github.com/attacker99/arcana/internal/domain"
	"github.com/attacker99/arcana/internal/ports"
)

type stubDecider struct {
	count  int
	err    error
	calls  int
	lastIn ports.DecideInput
}

func (d *stubDecider) DecideDrawCount(_ context.Context, in ports.DecideInput) (int, error) {
	d.calls++
	d.lastIn = in
	if d.err != nil {
		return 0, d.err
	}
	return d.count, nil
}

type stubInterpreter struct {
	out domain.Interpretation

	spreadErr  error
	withErr    error
	withoutErr error

	spreadCalls  int
	withCalls    int
	withoutCalls int

	lastSpread  ports.SpreadInput
	lastClarify ports.ClarifyInput
}

func (i *stubInterpreter) InterpretSpread(_ context.Context, in ports.SpreadInput) (domain.Interpretation, error) {
	i.spreadCalls++
	i.lastSpread = in
	if i.spreadErr != nil {
		return domain.Interpretation{}, i.spreadErr
	}
	return i.out, nil
}

func (i *stubInterpreter) InterpretWithCards(_ context.Context, in ports.ClarifyInput) (domain.Interpretation, error) {
	i.withCalls++
	i.lastClarify = in
	if i.withErr != nil {
		return domain.Interpretation{}, i.withErr
	}
	return i.out, nil
}

func (i *stubInterpreter) InterpretWithoutCards(_ context.Context, in ports.ClarifyInput) (domain.Interpretation, error) {
	i.withoutCalls++
	i.lastClarify = in
	if i.withoutErr != nil {
		return domain.Interpretation{}, i.withoutErr
	}
	return i.out, nil
}

func newReadingFixture(t *testing.T, deckSize int, decider *stubDecider, interp *stubInterpreter) (*app.ReadingService, *app.SessionRegistry, *scriptedEntropy) {
	t.Helper()
	entropy := &scriptedEntropy{}
	coord := newCoordinator(t, testDeck(deckSize), entropy, &scriptedRNG{})
	registry := app.NewSessionRegistry(30*time.Minute, slog.Default())
	svc := app.NewReadingService(coord, decider, interp, registry, slog.Default())
	return svc, registry, entropy
}

func TestStartReading_DefaultsToThreeCard(t *testing.T) {
	interp := &stubInterpreter{out: domain.Interpretation{Text: "A reading.", Style: "neutral"}}
	svc, registry, entropy := newReadingFixture(t, 78, &stubDecider{}, interp)

	resp, err := svc.StartReading(context.Background(), app.StartReadingRequest{Question: "What lies ahead?"})
	require.NoError(t, err)

	assert.Equal(t, domain.SpreadThreeCard, resp.Spread)
	assert.Len(t, resp.Cards, 3)
	assert.Equal(t, 3, resp.DrawnCount)
	assert.Equal(t, "A reading.", resp.Interpretation.Text)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, 1, registry.Len())
	assert.Equal(t, []int{78}, entropy.counts)

	assert.Equal(t, 1, interp.spreadCalls)
	assert.Equal(t, "test_deck", interp.lastSpread.DeckID)
	assert.Equal(t, "What lies ahead?", interp.lastSpread.Question)
	require.Len(t, interp.lastSpread.Cards, 3)
	assert.Equal(t, 1, interp.lastSpread.Cards[0].Position)
}

func TestStartReading_CelticCross(t *testing.T) {
	interp := &stubInterpreter{out: domain.Interpretation{Text: "A reading."}}
	svc, _, _ := newReadingFixture(t, 78, &stubDecider{}, interp)

	resp, err := svc.StartReading(context.Background(), app.StartReadingRequest{Spread: "celtic_cross"})
	require.NoError(t, err)
	assert.Len(t, resp.Cards, 10)
}

func TestStartReading_UnknownSpread(t *testing.T) {
	svc, registry, entropy := newReadingFixture(t, 78, &stubDecider{}, &stubInterpreter{})

	_, err := svc.StartReading(context.Background(), app.StartReadingRequest{Spread: "pentagram"})
	assert.ErrorIs(t, err, domain.ErrUnknownSpread)
	assert.Equal(t, 0, registry.Len())
	assert.Empty(t, entropy.counts)
}

func TestStartReading_InterpretFailure_NoSession(t *testing.T) {
	interp := &stubInterpreter{spreadErr: fmt.Errorf("%w: model down", domain.ErrUpstreamLLM)}
	svc, registry, _ := newReadingFixture(t, 78, &stubDecider{}, interp)

	_, err := svc.StartReading(context.Background(), app.StartReadingRequest{Question: "Anything?"})
	assert.ErrorIs(t, err, domain.ErrUpstreamLLM)
	assert.Equal(t, 0, registry.Len(), "failed readings must not leave a session behind")
}

func startReading(t *testing.T, svc *app.ReadingService, spread string) domain.SessionView {
	t.Helper()
	resp, err := svc.StartReading(context.Background(), app.StartReadingRequest{
		Question: "What lies ahead?",
		Spread:   spread,
	})
	require.NoError(t, err)
	return resp
}

func TestClarify_DrawsDecidedCards(t *testing.T) {
	decider := &stubDecider{count: 2}
	interp := &stubInterpreter{out: domain.Interpretation{Text: "Clearer now."}}
	svc, _, entropy := newReadingFixture(t, 78, decider, interp)

	started := startReading(t, svc, "three_card")

	resp, err := svc.Clarify(context.Background(), app.ClarifyRequest{
		ReadingID: started.ID,
		Question:  "But what about my job?",
	})
	require.NoError(t, err)

	require.Len(t, resp.Turn.Cards, 2)
	assert.Equal(t, "Clearer now.", resp.Turn.Response.Text)
	assert.Equal(t, 5, resp.Session.DrawnCount)
	require.Len(t, resp.Session.Turns, 1)

	// Clarification cards never repeat the spread.
	spreadIDs := make(map[string]struct{})
	for _, id := range started.Cards.IDs() {
		spreadIDs[id] = struct{}{}
	}
	for _, id := range resp.Turn.Cards.IDs() {
		_, dup := spreadIDs[id]
		assert.False(t, dup, "card %s repeated from the spread", id)
	}

	// Spread batch then clarification batch over the 75 remaining cards.
	assert.Equal(t, []int{78, 75}, entropy.counts)

	assert.Equal(t, 1, decider.calls)
	assert.Equal(t, 75, decider.lastIn.Remaining)
	assert.Equal(t, 1, interp.withCalls)
	assert.Equal(t, 0, interp.withoutCalls)
	assert.Equal(t, "What lies ahead?", interp.lastClarify.OriginalQuestion)
	assert.Len(t, interp.lastClarify.Cards, 2)
}

func TestClarify_AfterCelticCross(t *testing.T) {
	decider := &stubDecider{count: 2}
	interp := &stubInterpreter{out: domain.Interpretation{Text: "x"}}
	svc, _, entropy := newReadingFixture(t, 78, decider, interp)

	started := startReading(t, svc, "celtic_cross")
	require.Len(t, started.Cards, 10)

	resp, err := svc.Clarify(context.Background(), app.ClarifyRequest{
		ReadingID: started.ID,
		Question:  "And the outcome?",
	})
	require.NoError(t, err)

	// Ten spread cards plus two clarifiers, all distinct by the drawn set.
	assert.Equal(t, 12, resp.Session.DrawnCount)
	assert.Equal(t, []int{78, 68}, entropy.counts)
}

func TestClarify_ZeroDraw_AnswersFromReading(t *testing.T) {
	decider := &stubDecider{count: 0}
	interp := &stubInterpreter{out: domain.Interpretation{Text: "The reading already covers this."}}
	svc, _, entropy := newReadingFixture(t, 78, decider, interp)

	started := startReading(t, svc, "three_card")

	resp, err := svc.Clarify(context.Background(), app.ClarifyRequest{
		ReadingID: started.ID,
		Question:  "Can you say more?",
	})
	require.NoError(t, err)

	assert.Empty(t, resp.Turn.Cards)
	assert.Equal(t, 3, resp.Session.DrawnCount, "zero-draw turn must not consume cards")
	require.Len(t, resp.Session.Turns, 1)

	assert.Equal(t, []int{78}, entropy.counts, "zero-draw turn must not fetch entropy")
	assert.Equal(t, 0, interp.withCalls)
	assert.Equal(t, 1, interp.withoutCalls)
	assert.Empty(t, interp.lastClarify.Cards)
}

func TestClarify_DecideFailure_NoMutation(t *testing.T) {
	decider := &stubDecider{err: fmt.Errorf("%w: model down", domain.ErrUpstreamLLM)}
	svc, registry, entropy := newReadingFixture(t, 78, decider, &stubInterpreter{out: domain.Interpretation{Text: "x"}})

	started := startReading(t, svc, "three_card")

	_, err := svc.Clarify(context.Background(), app.ClarifyRequest{
		ReadingID: started.ID,
		Question:  "Anything?",
	})
	assert.ErrorIs(t, err, domain.ErrUpstreamLLM)

	session, getErr := registry.Get(started.ID)
	require.NoError(t, getErr)
	view := session.Snapshot()
	assert.Equal(t, 3, view.DrawnCount)
	assert.Empty(t, view.Turns)
	assert.Equal(t, []int{78}, entropy.counts)
}

func TestClarify_InterpretFailureKeepsCardsConsumed(t *testing.T) {
	decider := &stubDecider{count: 2}
	interp := &stubInterpreter{
		out:     domain.Interpretation{Text: "x"},
		withErr: fmt.Errorf("%w: model down", domain.ErrUpstreamLLM),
	}
	svc, registry, _ := newReadingFixture(t, 78, decider, interp)

	started := startReading(t, svc, "three_card")

	_, err := svc.Clarify(context.Background(), app.ClarifyRequest{
		ReadingID: started.ID,
		Question:  "Anything?",
	})
	assert.ErrorIs(t, err, domain.ErrUpstreamLLM)

	// The draw committed before interpretation, so the cards stay consumed
	// even though the turn recorded nothing.
	session, getErr := registry.Get(started.ID)
	require.NoError(t, getErr)
	view := session.Snapshot()
	assert.Equal(t, 5, view.DrawnCount)
	assert.Empty(t, view.Turns)
}

func TestClarify_DeckExhausted(t *testing.T) {
	decider := &stubDecider{count: 3}
	interp := &stubInterpreter{out: domain.Interpretation{Text: "x"}}
	svc, _, _ := newReadingFixture(t, 3, decider, interp)

	started := startReading(t, svc, "single")

	// Two cards remain; the decided three is clamped by the draw.
	first, err := svc.Clarify(context.Background(), app.ClarifyRequest{
		ReadingID: started.ID,
		Question:  "More?",
	})
	require.NoError(t, err)
	assert.Len(t, first.Turn.Cards, 2)
	assert.Equal(t, 3, first.Session.DrawnCount)

	// Nothing remains; the turn degrades to a no-draw answer.
	second, err := svc.Clarify(context.Background(), app.ClarifyRequest{
		ReadingID: started.ID,
		Question:  "Even more?",
	})
	require.NoError(t, err)
	assert.Empty(t, second.Turn.Cards)
	assert.Equal(t, 3, second.Session.DrawnCount)
	assert.Equal(t, 1, interp.withoutCalls)
}

func TestClarify_UnknownReading(t *testing.T) {
	svc, _, _ := newReadingFixture(t, 78, &stubDecider{}, &stubInterpreter{})

	_, err := svc.Clarify(context.Background(), app.ClarifyRequest{ReadingID: "missing", Question: "?"})
	assert.ErrorIs(t, err, domain.ErrReadingNotFound)
}

func TestClarify_TurnInProgress(t *testing.T) {
	decider := &stubDecider{count: 1}
	interp := &stubInterpreter{out: domain.Interpretation{Text: "x"}}
	svc, registry, _ := newReadingFixture(t, 78, decider, interp)

	started := startReading(t, svc, "three_card")

	session, err := registry.Get(started.ID)
	require.NoError(t, err)
	require.True(t, session.BeginTurn())

	_, err = svc.Clarify(context.Background(), app.ClarifyRequest{
		ReadingID: started.ID,
		Question:  "Racing question",
	})
	assert.ErrorIs(t, err, domain.ErrTurnInProgress)

	session.EndTurn()

	_, err = svc.Clarify(context.Background(), app.ClarifyRequest{
		ReadingID: started.ID,
		Question:  "Racing question",
	})
	assert.NoError(t, err)
}

func TestGetReading(t *testing.T) {
	interp := &stubInterpreter{out: domain.Interpretation{Text: "A reading."}}
	svc, _, _ := newReadingFixture(t, 78, &stubDecider{}, interp)

	started := startReading(t, svc, "single")

	view, err := svc.GetReading(started.ID)
	require.NoError(t, err)
	assert.Equal(t, started.ID, view.ID)
	assert.Len(t, view.Cards, 1)

	_, err = svc.GetReading("missing")
	assert.ErrorIs(t, err, domain.ErrReadingNotFound)
}
