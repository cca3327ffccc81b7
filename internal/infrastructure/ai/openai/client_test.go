package openai

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

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.AIConfig{
		OpenAIBaseURL: server.URL,
		OpenAIKey:     "sk-test",
		OpenAIModel:   "gpt-4o-mini",
		Timeout:       5 * time.Second,
	}, zaptest.NewLogger(t))
}

func completion(content, finish string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{{
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
	}
}

func TestGenerate(t *testing.T) {
	var got completionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(completion(`{"name": "Ramen", "instructions": "Boil", "total_time": 20}`, "stop"))
	})

	payload, err := client.Generate(context.Background(), ai.GenerationInput{Name: "Ramen", Servings: 2})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	assert.Equal(t, "Ramen", payload.Name)
	assert.Equal(t, 20, payload.TotalTime)
}

func TestGenerate_ClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   interface{}
		code   errors.ErrorCode
	}{
		{"overloaded", http.StatusBadGateway, map[string]string{"error": "upstream"}, errors.CodeTransient},
		{"rate limited", http.StatusTooManyRequests, map[string]string{"error": "quota"}, errors.CodeTransient},
		{"unauthorized", http.StatusUnauthorized, map[string]string{"error": "bad key"}, errors.CodeInternal},
		{"no choices", http.StatusOK, map[string]interface{}{"choices": []interface{}{}}, errors.CodeTransient},
		{"cut off", http.StatusOK, completion(`{"name": "Ra`, "length"), errors.CodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			})

			_, err := client.Generate(context.Background(), ai.GenerationInput{Name: "Ramen", Servings: 1})
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestHealthCheck(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data": []}`))
	})
	assert.NoError(t, client.HealthCheck(context.Background()))
}
