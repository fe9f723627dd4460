// Package genai calls the text-generation gateway that produces trip
// itineraries.
package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	commonhttp "trip-workers/internal/common/http"
	"trip-workers/internal/common/logger"
)

const generatePath = "/api/ai/generate"

var (
	ErrGenAITimeout     = errors.New("GENAI_TIMEOUT")
	ErrGenAIUnavailable = errors.New("GENAI_UNAVAILABLE")
	ErrEmptyResponse    = errors.New("GENAI_EMPTY_RESPONSE")
)

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

type Client struct {
	config *Config
	http   *commonhttp.Client
	logger logger.Logger
}

type generateRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Text string `json:"text"`
}

func NewClient(config *Config, log logger.Logger) *Client {
	headers := map[string]string{}
	if config.APIKey != "" {
		headers["Authorization"] = "Bearer " + config.APIKey
	}

	return &Client{
		config: config,
		http:   commonhttp.NewClient(config.BaseURL, config.Timeout, headers),
		logger: log.With(map[string]interface{}{"adapter": "genai"}),
	}
}

// Generate returns the raw model text for prompt. The text is untrusted and
// may contain prose or code fences around the JSON object.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	var resp generateResponse
	err := c.http.DoJSON(ctx, http.MethodPost, generatePath, nil, generateRequest{
		Prompt:      prompt,
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}, &resp)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", fmt.Errorf("%w: %v", ErrGenAITimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrGenAIUnavailable, err)
	}

	if strings.TrimSpace(resp.Text) == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("generation completed", map[string]interface{}{
		"durationMs": time.Since(start).Milliseconds(),
		"textLength": len(resp.Text),
	})

	return resp.Text, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
