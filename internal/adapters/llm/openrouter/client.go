package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/attacker99/arcana/internal/adapters/llm/prompt"
	"github.com/attacker99/arcana/internal/domain"
	"github.com/attacker99/arcana/internal/ports"
)

const defaultDisclaimer = "For reflection/entertainment; not medical/legal/financial advice."

// Client implements ports.Decider and ports.Interpreter via the OpenRouter
// API.
type Client struct {
	httpClient     *http.Client
	apiKey         string
	baseURL        string
	model          string
	fallbackModels []string
	logger         *slog.Logger
}

func NewClient(httpClient *http.Client, apiKey, baseURL, model string, fallbackModels []string, logger *slog.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		apiKey:         apiKey,
		baseURL:        strings.TrimRight(baseURL, "/"),
		model:          model,
		fallbackModels: fallbackModels,
		logger:         logger,
	}
}

// chatRequest / chatResponse mirror the OpenAI-compatible API shapes.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
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
	_, err := c.tryModels(ctx, func(model string) error {
		dec = prompt.Decision{}
		return c.completeJSON(ctx, model, prompt.DecideSystem(), prompt.DecideUser(in), prompt.RetryDecision, &dec)
	})
	if err != nil {
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
	model, err := c.tryModels(ctx, func(model string) error {
		out = domain.Interpretation{}
		return c.completeJSON(ctx, model, prompt.InterpretSystem(), userPrompt, prompt.RetryInterpretation, &out)
	})
	if err != nil {
		return domain.Interpretation{}, err
	}

	if out.Style == "" {
		out.Style = "neutral"
	}
	if out.Disclaimer == "" {
		out.Disclaimer = defaultDisclaimer
	}
	out.Model = model

	return out, nil
}

// tryModels runs call against the primary model and then each fallback,
// returning the first model that succeeds.
func (c *Client) tryModels(ctx context.Context, call func(model string) error) (string, error) {
	models := make([]string, 0, 1+len(c.fallbackModels))
	models = append(models, c.model)
	models = append(models, c.fallbackModels...)

	var lastErr error
	for _, model := range models {
		err := call(model)
		if err == nil {
			return model, nil
		}
		lastErr = err
		if len(models) > 1 {
			c.logger.WarnContext(ctx, "model failed, trying next", "model", model, "error", err)
		}
	}

	return "", lastErr
}

// completeJSON calls the model and unmarshals its reply into v, retrying
// once with a correction prompt when the reply is not valid JSON.
func (c *Client) completeJSON(ctx context.Context, model, system, user string, retry func(string) string, v any) error {
	content, err := c.callLLM(ctx, model, system, user)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamLLM, err)
	}

	if err := json.Unmarshal([]byte(content), v); err != nil {
		c.logger.WarnContext(ctx, "LLM returned invalid JSON, retrying", "model", model, "error", err)
		content, err = c.callLLM(ctx, model, system, retry(content))
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrUpstreamLLM, err)
		}
		if err := json.Unmarshal([]byte(content), v); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidLLMJSON, err)
		}
	}

	return nil
}

func (c *Client) callLLM(ctx context.Context, model, system, user string) (string, error) {
	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upstream status %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}
