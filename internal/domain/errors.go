package domain

import "errors"

var (
	ErrDeckNotFound        = errors.New("deck not found")
	ErrBadDeck             = errors.New("deck has duplicate or missing card ids")
	ErrUnknownSpread       = errors.New("unknown spread type")
	ErrInvalidDrawCount    = errors.New("draw count must not be negative")
	ErrInsufficientEntropy = errors.New("not enough random values for shuffle")
	ErrEntropyUnavailable  = errors.New("entropy source unavailable")
	ErrReadingNotFound     = errors.New("reading not found")
	ErrTurnInProgress      = errors.New("another clarification turn is in progress")
	ErrUpstreamLLM         = errors.New("upstream LLM failure")
	ErrInvalidLLMJSON      = errors.New("LLM returned invalid JSON after retry")
)
