package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/attacker99/arcana/internal/app"
	"github.com/attacker99/arcana/internal/domain"
)

type Handler struct {
	svc *app.ReadingService
}

func NewHandler(svc *app.ReadingService) *Handler {
	return &Handler{svc: svc}
}

// NewRouter builds the echo instance with middleware, request validation,
// and every route registered.
func NewRouter(logger *slog.Logger, h *Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(RequestIDMiddleware())
	e.Use(LoggingMiddleware(logger))

	h.Register(e)
	return e
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	e.POST("/v1/readings", h.StartReading)
	e.GET("/v1/readings/:id", h.GetReading)
	e.POST("/v1/readings/:id/clarifications", h.Clarify)
}

func (h *Handler) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) StartReading(c echo.Context) error {
	var req StartReadingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	start := time.Now()
	view, err := h.svc.StartReading(c.Request().Context(), app.StartReadingRequest{
		Question: req.Question,
		Spread:   req.Spread,
	})
	if err != nil {
		return mapError(c, err)
	}

	return c.JSON(http.StatusCreated, h.toReadingResponse(view, meta(c, view.Interpretation.Model, start)))
}

func (h *Handler) GetReading(c echo.Context) error {
	start := time.Now()
	view, err := h.svc.GetReading(c.Param("id"))
	if err != nil {
		return mapError(c, err)
	}

	return c.JSON(http.StatusOK, h.toReadingResponse(view, meta(c, view.Interpretation.Model, start)))
}

func (h *Handler) Clarify(c echo.Context) error {
	var req ClarifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	start := time.Now()
	resp, err := h.svc.Clarify(c.Request().Context(), app.ClarifyRequest{
		ReadingID: c.Param("id"),
		Question:  req.Question,
	})
	if err != nil {
		return mapError(c, err)
	}

	return c.JSON(http.StatusOK, ClarificationResponse{
		ReadingID:      resp.Session.ID,
		Question:       resp.Turn.Question,
		Cards:          toCardResponses(resp.Turn.Cards),
		Interpretation: toInterpretationResp(resp.Turn.Response),
		CardsRemaining: h.svc.DeckSize() - resp.Session.DrawnCount,
		Meta:           meta(c, resp.Turn.Response.Model, start),
	})
}

func (h *Handler) toReadingResponse(view domain.SessionView, m MetaResp) ReadingResponse {
	turns := make([]TurnResponse, len(view.Turns))
	for i, turn := range view.Turns {
		turns[i] = TurnResponse{
			Question:       turn.Question,
			Cards:          toCardResponses(turn.Cards),
			Interpretation: toInterpretationResp(turn.Response),
			At:             turn.At,
		}
	}
	return ReadingResponse{
		ID:             view.ID,
		Question:       view.Question,
		Spread:         string(view.Spread),
		Deck:           h.svc.DeckID(),
		Cards:          toCardResponses(view.Cards),
		Interpretation: toInterpretationResp(view.Interpretation),
		Clarifications: turns,
		CardsRemaining: h.svc.DeckSize() - view.DrawnCount,
		CreatedAt:      view.CreatedAt,
		Meta:           m,
	}
}

func toCardResponses(cards domain.DrawResult) []CardResponse {
	out := make([]CardResponse, len(cards))
	for i, dc := range cards {
		out[i] = CardResponse{
			ID:          dc.ID,
			Name:        dc.Name,
			Position:    dc.Position,
			Orientation: dc.Orientation,
			Keywords:    dc.Keywords,
			Short:       dc.Short,
		}
	}
	return out
}

func toInterpretationResp(in domain.Interpretation) InterpretationResp {
	return InterpretationResp{
		Style:      in.Style,
		Text:       in.Text,
		Disclaimer: in.Disclaimer,
	}
}

func meta(c echo.Context, model string, start time.Time) MetaResp {
	requestID, _ := c.Get("request_id").(string)
	return MetaResp{
		Model:     model,
		RequestID: requestID,
		LatencyMS: time.Since(start).Milliseconds(),
	}
}

func mapError(c echo.Context, err error) error {
	requestID, _ := c.Get("request_id").(string)

	switch {
	case errors.Is(err, domain.ErrReadingNotFound), errors.Is(err, domain.ErrDeckNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrUnknownSpread), errors.Is(err, domain.ErrInvalidDrawCount):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrTurnInProgress):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrEntropyUnavailable):
		slog.Error("entropy source failure", "request_id", requestID, "error", err)
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "entropy source unavailable"})
	case errors.Is(err, domain.ErrUpstreamLLM), errors.Is(err, domain.ErrInvalidLLMJSON):
		slog.Error("upstream LLM failure", "request_id", requestID, "error", err)
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: "upstream LLM failure"})
	default:
		slog.Error("internal error", "request_id", requestID, "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
