package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/minutely/minute-api/internal/config"
)

// Client wraps the shared Gemini API client used by all three model
// collaborators.
type Client struct {
	genai  *genai.Client
	config config.LLMConfig
	logger *slog.Logger
}

// NewClient creates the shared Gemini client from LLM configuration.
func NewClient(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	return &Client{
		genai:  client,
		config: cfg,
		logger: logger.With("component", "gemini_client"),
	}, nil
}

// generateJSON makes a single model call requesting a JSON response and
// returns the raw response text. API errors are returned as-is (the
// workflow layer treats them as transient); an empty or safety-blocked
// response maps to a permanent sentinel error.
func (c *Client) generateJSON(ctx context.Context, model string, contents []*genai.Content) (string, error) {
	resp, err := c.genai.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("gemini call failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned", ErrInvalidResponse)
	}

	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", ErrContentBlocked
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("%w: empty response text", ErrInvalidResponse)
	}

	return text, nil
}
