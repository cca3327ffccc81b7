// Package ollama provides Ollama integration for local recipe generation
package ollama

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

const service = "ollama"

// Client implements outbound.RecipeGenerator using the Ollama chat API
type Client struct {
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
	logger      *zap.Logger
}

// NewClient creates a new Ollama client
func NewClient(cfg config.AIConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	logger.Info("Ollama client initialized",
		zap.String("base_url", cfg.OllamaHost),
		zap.String("model", cfg.OllamaModel),
		zap.Duration("timeout", timeout))

	return &Client{
		baseURL:     strings.TrimRight(cfg.OllamaHost, "/"),
		model:       cfg.OllamaModel,
		temperature: cfg.Temperature,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.Named("ollama-client"),
	}
}

var _ outbound.RecipeGenerator = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string                 `json:"model"`
	Messages []chatMessage          `json:"messages"`
	Stream   bool                   `json:"stream"`
	Format   string                 `json:"format,omitempty"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

type chatResponse struct {
	Model        string      `json:"model"`
	Message      chatMessage `json:"message"`
	Done         bool        `json:"done"`
	EvalCount    int         `json:"eval_count,omitempty"`
	EvalDuration int64       `json:"eval_duration,omitempty"`
}

// HealthCheck verifies the Ollama service is reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

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
// responses are transient; output that is not the requested JSON is a
// validation failure.
func (c *Client) Generate(ctx context.Context, input ai.GenerationInput) (*ai.RecipePayload, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: llm.SystemPrompt},
			{Role: "user", Content: llm.UserPrompt(input)},
		},
		Stream: false,
		Format: "json",
		Options: map[string]interface{}{
			"temperature": c.temperature,
			"num_predict": 2000,
			"num_ctx":     4096,
		},
	})
	if err != nil {
		return nil, errors.NewInternalError("failed to encode generator request").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewInternalError("failed to create generator request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")

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

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return nil, errors.NewTransientError(service, fmt.Errorf("undecodable response: %w", err))
	}
	if !chat.Done {
		return nil, errors.NewTransientError(service, fmt.Errorf("incomplete response"))
	}

	c.logger.Debug("Ollama chat completion successful",
		zap.String("model", chat.Model),
		zap.Int64("eval_duration", chat.EvalDuration),
		zap.Int("eval_count", chat.EvalCount))

	return llm.ParsePayload(chat.Message.Content)
}
