package http

import (
	"time"

	"github.com/attacker99/arcana/internal/domain"
)

// StartReadingRequest is the JSON body of POST /v1/readings.
type StartReadingRequest struct {
	Question string `json:"question" validate:"max=500"`
	Spread   string `json:"spread"   validate:"omitempty,oneof=single three_card celtic_cross"`
}

// ClarifyRequest is the JSON body of POST /v1/readings/:id/clarifications.
type ClarifyRequest struct {
	Question string `json:"question" validate:"required,max=500"`
}

// ReadingResponse is the JSON shape of a reading session, returned by
// POST /v1/readings and GET /v1/readings/:id.
type ReadingResponse struct {
	ID             string             `json:"id"`
	Question       string             `json:"question,omitempty"`
	Spread         string             `json:"spread"`
	Deck           string             `json:"deck"`
	Cards          []CardResponse     `json:"cards"`
	Interpretation InterpretationResp `json:"interpretation"`
	Clarifications []TurnResponse     `json:"clarifications"`
	CardsRemaining int                `json:"cards_remaining"`
	CreatedAt      time.Time          `json:"created_at"`
	Meta           MetaResp           `json:"meta"`
}

// ClarificationResponse is the JSON shape returned by
// POST /v1/readings/:id/clarifications.
type ClarificationResponse struct {
	ReadingID      string             `json:"reading_id"`
	Question       string             `json:"question"`
	Cards          []CardResponse     `json:"cards"`
	Interpretation InterpretationResp `json:"interpretation"`
	CardsRemaining int                `json:"cards_remaining"`
	Meta           MetaResp           `json:"meta"`
}

type TurnResponse struct {
	Question       string             `json:"question"`
	Cards          []CardResponse     `json:"cards"`
	Interpretation InterpretationResp `json:"interpretation"`
	At             time.Time          `json:"at"`
}

type CardResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Position    int                `json:"position"`
	Orientation domain.Orientation `json:"orientation"`
	Keywords    []string           `json:"keywords"`
	Short       string             `json:"short"`
}

type InterpretationResp struct {
	Style      string `json:"style"`
	Text       string `json:"text"`
	Disclaimer string `json:"disclaimer"`
}

type MetaResp struct {
	Model     string `json:"model,omitempty"`
	RequestID string `json:"request_id"`
	LatencyMS int64  `json:"latency_ms"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
