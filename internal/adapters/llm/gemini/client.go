package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/attacker99/arcana/internal/adapters/llm/prompt"
	"github.com/attacker99/arcana/internal/domain"
	"github.com/attacker99/arcana/internal/ports"
)

const defaultDisclaimer = "For reflection/entertainment; not medical/legal/financial advice."

// Client implements ports.Decider and ports.Interpreter via the Gemini API.
type Client struct {
	genai  *genai.Client
	model  string
	logger *slog.Logger

	// generate is swapped by tests to avoid the network.
	generate func(ctx context.Context, system, user string) (string, error)
}

func NewClient(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	c := &Client{genai: gc, model: model, logger: logger}
	c.generate = c.generateContent
	return c, nil
}

func (c *Client) generateContent(ctx context.Context, system, user string) (string, error) {
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response")
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) InterpretSpread(ctx context.Context, in ports.SpreadInput) (domain.Interpretation, error) {
	return c.interpret(ctx, prompt.SpreadUser(in))
}

func (c *Client) InterpretWithCards(ctx context.Context, in ports.ClarifyInput) (domain.Interpretation, error) {
	return c.interpret(ctx, prompt.ClarifyWithCardsUser(in))
}

func (c *Client) InterpretWithoutCards(ctx context.Context, in ports.ClarifyInput) (domain.Interpretation, error) {
	return c.interpret(ctx, prompt.ClarifyWithoutCardsUser(in))
}

func (c *Client) DecideDrawCount(ctx context.Context, in ports.DecideInput) (int, error) {
	var dec prompt.Decision
	if err := c.completeJSON(ctx, prompt.DecideSystem(), prompt.DecideUser(in), prompt.RetryDecision, &dec); err != nil {
		return 0, err
	}

	count := dec.DrawCount
	if count < 0 {
		c.logger.WarnContext(ctx, "decision below draw range, clamping", "draw_count", count, "reason", dec.Reason)
		count = 0
	} else if count > domain.MaxClarifyDraw {
		c.logger.WarnContext(ctx, "decision above draw range, clamping", "draw_count", count, "reason", dec.Reason)
		count = domain.MaxClarifyDraw
	}
	return count, nil
}

func (c *Client) interpret(ctx context.Context, userPrompt string) (domain.Interpretation, error) {
	var out domain.Interpretation
	if err := c.completeJSON(ctx, prompt.InterpretSystem(), userPrompt, prompt.RetryInterpretation, &out); err != nil {
		return domain.Interpretation{}, err
	}

	if out.Style == "" {
		out.Style = "neutral"
	}
	if out.Disclaimer == "" {
		out.Disclaimer = defaultDisclaimer
	}
	out.Model = c.model

	return out, nil
}

// completeJSON calls the model and unmarshals its reply into v, retrying
// once with a correction prompt when the reply is not valid JSON.
func (c *Client) completeJSON(ctx context.Context, system, user string, retry func(string) string, v any) error {
	content, err := c.generate(ctx, system, user)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamLLM, err)
	}

	if err := json.Unmarshal([]byte(content), v); err != nil {
		c.logger.WarnContext(ctx, "LLM returned invalid JSON, retrying", "model", c.model, "error", err)
		content, err = c.generate(ctx, system, retry(content))
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrUpstreamLLM, err)
		}
		if err := json.Unmarshal([]byte(content), v); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidLLMJSON, err)
		}
	}

	return nil
}
