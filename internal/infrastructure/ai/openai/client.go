// Package openai provides recipe generation through an OpenAI-compatible
// chat completions API
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/ai"
	"github.com/alchemorsel/mealplan/internal/infrastructure/ai/llm"
	"github.com/alchemorsel/mealplan/internal/infrastructure/config"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	service        = "openai"
	defaultBaseURL = "https://api.openai.com/v1"
)

// Client implements outbound.RecipeGenerator using the chat completions API
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
	logger      *zap.Logger
}

// NewClient creates a new OpenAI client
func NewClient(cfg config.AIConfig, logger *zap.Logger) *Client {
	baseURL := cfg.OpenAIBaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	logger.Info("OpenAI client initialized",
		zap.String("base_url", baseURL),
		zap.String("model", cfg.OpenAIModel),
		zap.Bool("api_key_set", cfg.OpenAIKey != ""))

	return &Client{
		apiKey:      cfg.OpenAIKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       cfg.OpenAIModel,
		temperature: cfg.Temperature,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("openai-client"),
	}
}

var _ outbound.RecipeGenerator = (*Client)(nil)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// HealthCheck verifies the API is reachable and the key is accepted
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.NewTransientError(service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.NewTransientError(service, fmt.Errorf("health check returned status %d", resp.StatusCode))
	}
	return nil
}

// Generate asks the model for one recipe. Transport failures and 5xx/429
// responses are transient; a reply cut off by the token limit or without a
// recipe object is a validation failure.
func (c *Client) Generate(ctx context.Context, input ai.GenerationInput) (*ai.RecipePayload, error) {
	body, err := json.Marshal(completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: llm.SystemPrompt},
			{Role: "user", Content: llm.UserPrompt(input)},
		},
		Temperature:    c.temperature,
		MaxTokens:      2000,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to encode generator request").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError("failed to create generator request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.NewTransientError(service, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransientError(service, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, errors.NewTransientError(service, fmt.Errorf("status %d: %s", resp.StatusCode, llm.Truncate(string(raw), 200)))
	case resp.StatusCode != http.StatusOK:
		return nil, errors.NewAppError(errors.CodeInternal, "recipe generator rejected the request",
			fmt.Sprintf("status %d: %s", resp.StatusCode, llm.Truncate(string(raw), 200)))
	}

	var completion completionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return nil, errors.NewTransientError(service, fmt.Errorf("undecodable response: %w", err))
	}
	if len(completion.Choices) == 0 {
		return nil, errors.NewTransientError(service, fmt.Errorf("response has no choices"))
	}

	choice := completion.Choices[0]
	if choice.FinishReason == "length" {
		return nil, errors.NewValidationError("payload", "generator reply was cut off")
	}

	c.logger.Debug("OpenAI chat completion successful",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", completion.Usage.PromptTokens),
		zap.Int("completion_tokens", completion.Usage.CompletionTokens))

	return llm.ParsePayload(choice.Message.Content)
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
