package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/ai"
	"github.com/alchemorsel/mealplan/internal/infrastructure/config"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const reply = `Here you go:
{
  "name": "Shakshuka",
  "difficulty": "easy",
  "prep_time": 10,
  "cook_time": 20,
  "total_time": 30,
  "servings": 2,
  "ingredients": [{"name": "eggs", "amount": 4, "unit": "pieces"}, {"name": "paprika", "amount": "1", "unit": "tsp"}],
  "instructions": ["Simmer the sauce", "Poach the eggs"],
  "tags": ["brunch"]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.AIConfig{
		OllamaHost:  server.URL + "/",
		OllamaModel: "llama3.2:3b",
		Temperature: 0.7,
		Timeout:     5 * time.Second,
	}, zaptest.NewLogger(t))
}

func TestGenerate(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatResponse{
			Model:   "llama3.2:3b",
			Message: chatMessage{Role: "assistant", Content: reply},
			Done:    true,
		})
	})

	payload, err := client.Generate(context.Background(), ai.GenerationInput{
		Name:                "Shakshuka",
		Cuisine:             "levantine",
		DietaryRestrictions: []string{"vegetarian"},
		Servings:            2,
	})
	require.NoError(t, err)

	assert.Equal(t, "llama3.2:3b", got.Model)
	assert.Equal(t, "json", got.Format)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 2)
	assert.Contains(t, got.Messages[1].Content, "Cuisine style: levantine")
	assert.Contains(t, got.Messages[1].Content, "Dietary restrictions: vegetarian")

	assert.Equal(t, "Shakshuka", payload.Name)
	assert.Equal(t, "Simmer the sauce\nPoach the eggs", payload.Instructions)
	assert.Equal(t, 30, payload.TotalTime)
	require.Len(t, payload.Ingredients, 2)
	assert.Equal(t, 4.0, payload.Ingredients[0].Amount)
	assert.Equal(t, "1", payload.Ingredients[1].Amount)
}

func TestGenerate_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    errors.ErrorCode
		retries bool
	}{
		{"overloaded", http.StatusServiceUnavailable, "busy", errors.CodeTransient, true},
		{"rate limited", http.StatusTooManyRequests, "slow down", errors.CodeTransient, true},
		{"bad request", http.StatusBadRequest, "unknown model", errors.CodeInternal, false},
		{"garbled", http.StatusOK, "not json", errors.CodeTransient, true},
		{"incomplete", http.StatusOK, `{"done": false}`, errors.CodeTransient, true},
		{"prose reply", http.StatusOK, `{"done": true, "message": {"content": "I cannot help with that"}}`, errors.CodeValidationFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Generate(context.Background(), ai.GenerationInput{Name: "Soup", Servings: 1})
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
			assert.Equal(t, tt.retries, errors.IsRetryable(err))
		})
	}
}

func TestGenerate_Unreachable(t *testing.T) {
	client := NewClient(config.AIConfig{OllamaHost: "http://127.0.0.1:1", Timeout: time.Second}, zaptest.NewLogger(t))

	_, err := client.Generate(context.Background(), ai.GenerationInput{Name: "Soup", Servings: 1})
	assert.True(t, errors.IsRetryable(err))
	assert.Error(t, client.HealthCheck(context.Background()))
}

func TestHealthCheck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models": []}`))
	})
	assert.NoError(t, client.HealthCheck(context.Background()))
}
