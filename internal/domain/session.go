package domain

import (
	"sync"
	"sync/atomic"
	"time"
)

// ClarificationTurn records one follow-up exchange: the question asked, the
// cards drawn for it (possibly none), and the interpretation produced.
type ClarificationTurn struct {
	Question string         `json:"question"`
	Cards    DrawResult     `json:"cards"`
	Response Interpretation `json:"response"`
	At       time.Time      `json:"at"`
}

// Session holds the state of one reading conversation: the initial spread
// and the set of every card identifier surfaced so far. The drawn set only
// ever grows; it is unioned with each successful draw's identifiers and
// supplied as the exclusion set on the next draw.
//
// Turns within a session are strictly ordered. BeginTurn admits one
// clarification at a time; independent sessions run fully in parallel.
type Session struct {
	id        string
	question  string
	spread    SpreadType
	createdAt time.Time

	mu             sync.RWMutex
	drawn          map[string]struct{}
	cards          DrawResult
	interpretation Interpretation
	turns          []ClarificationTurn
	lastActive     time.Time

	turnBusy atomic.Bool
}

// SessionView is a point-in-time copy of a session's visible state.
type SessionView struct {
	ID             string
	Question       string
	Spread         SpreadType
	Cards          DrawResult
	Interpretation Interpretation
	Turns          []ClarificationTurn
	Drawn          map[string]struct{}
	DrawnCount     int
	CreatedAt      time.Time
	LastActive     time.Time
}

// NewSession creates a session for a reading whose initial spread has
// already been drawn and interpreted. The spread's identifiers seed the
// drawn set.
func NewSession(id, question string, spread SpreadType, cards DrawResult, interpretation Interpretation, now time.Time) *Session {
	s := &Session{
		id:             id,
		question:       question,
		spread:         spread,
		createdAt:      now,
		drawn:          make(map[string]struct{}, DeckSize),
		cards:          cards,
		interpretation: interpretation,
		lastActive:     now,
	}
	for _, cardID := range cards.IDs() {
		s.drawn[cardID] = struct{}{}
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// BeginTurn marks a clarification turn as in flight. It reports false when
// another turn holds the session, in which case the caller must not draw.
func (s *Session) BeginTurn() bool {
	return s.turnBusy.CompareAndSwap(false, true)
}

// EndTurn releases the turn guard taken by BeginTurn.
func (s *Session) EndTurn() {
	s.turnBusy.Store(false)
}

// CommitDraw unions the result's identifiers into the drawn set. This is
// the commit point: once recorded, the cards stay consumed even if a later
// step of the turn fails.
func (s *Session) CommitDraw(result DrawResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range result.IDs() {
		s.drawn[id] = struct{}{}
	}
	s.lastActive = time.Now()
}

// AppendTurn records a completed clarification exchange.
func (s *Session) AppendTurn(turn ClarificationTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	s.lastActive = time.Now()
}

// Snapshot returns a consistent copy of the session's state. The drawn set
// and turn history are copied so callers can read them without holding any
// lock while a later turn mutates the session.
func (s *Session) Snapshot() SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	drawn := make(map[string]struct{}, len(s.drawn))
	for id := range s.drawn {
		drawn[id] = struct{}{}
	}
	turns := make([]ClarificationTurn, len(s.turns))
	copy(turns, s.turns)
	cards := make(DrawResult, len(s.cards))
	copy(cards, s.cards)

	return SessionView{
		ID:             s.id,
		Question:       s.question,
		Spread:         s.spread,
		Cards:          cards,
		Interpretation: s.interpretation,
		Turns:          turns,
		Drawn:          drawn,
		DrawnCount:     len(drawn),
		CreatedAt:      s.createdAt,
		LastActive:     s.lastActive,
	}
}

// LastActive returns the time of the session's most recent activity.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}
