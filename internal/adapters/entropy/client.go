package entropy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/attacker99/arcana/internal/domain"
)

const maxUint16 = 1<<16 - 1

// Client fetches random integers from a QRNG-style HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds a Client talking to baseURL. The http.Client's Timeout
// bounds each individual attempt; retry policy lives in the sources that
// wrap Fetch.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// qrngResponse mirrors the upstream API shape.
type qrngResponse struct {
	Success bool  `json:"success"`
	Data    []int `json:"data"`
}

// Fetch requests count uint16 values. Every failure mode is wrapped in
// domain.ErrEntropyUnavailable so wrapping sources can apply their policy
// without inspecting transport details.
func (c *Client) Fetch(ctx context.Context, count int) ([]int, error) {
	url := fmt.Sprintf("%s/jsonI.php?length=%d&type=uint16", c.baseURL, count)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrEntropyUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http call: %w", domain.ErrEntropyUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrEntropyUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: upstream status %d: %s", domain.ErrEntropyUnavailable, resp.StatusCode, string(body))
	}

	var qr qrngResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrEntropyUnavailable, err)
	}

	if !qr.Success {
		return nil, fmt.Errorf("%w: upstream reported success=false", domain.ErrEntropyUnavailable)
	}
	if len(qr.Data) < count {
		return nil, fmt.Errorf("%w: got %d values, want %d", domain.ErrEntropyUnavailable, len(qr.Data), count)
	}
	for i, v := range qr.Data {
		if v < 0 || v > maxUint16 {
			return nil, fmt.Errorf("%w: value %d at index %d outside uint16 range", domain.ErrEntropyUnavailable, v, i)
		}
	}

	return qr.Data[:count:count], nil
}
