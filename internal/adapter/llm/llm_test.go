package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edurag/internal/domain"
)

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "rate limited", "type": "requests"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChatClient_Generate(t *testing.T) {
	t.Setenv("EDURAG_TEST_LLM_KEY", "k")
	srv := chatServer(t, http.StatusOK, "  You need a WAEC certificate.  ")

	c, err := NewChatClient(Options{Provider: "groq", Model: "test-model", BaseURL: srv.URL, APIKeyEnv: "EDURAG_TEST_LLM_KEY"})
	require.NoError(t, err)

	out, err := c.GenerateWithSystem(context.Background(), "system", "user")
	require.NoError(t, err)
	assert.Equal(t, "You need a WAEC certificate.", out)
	assert.Equal(t, "test-model", c.ModelName())
}

func TestChatClient_EmptyOutput(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "   ")
	c, err := NewChatClient(Options{Provider: "ollama", Model: "llama3", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.GenerateWithSystem(context.Background(), "system", "user")
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestChatClient_ServerError(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, "")
	c, err := NewChatClient(Options{Provider: "ollama", Model: "llama3", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.GenerateWithSystem(context.Background(), "system", "user")
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestNewChatClient_Errors(t *testing.T) {
	_, err := NewChatClient(Options{Provider: "nope", Model: "m"})
	assert.Error(t, err)

	t.Setenv("GROQ_API_KEY", "")
	_, err = NewChatClient(Options{Provider: "groq", Model: "m"})
	assert.Error(t, err)
}

func TestExtractive(t *testing.T) {
	prompt := "Documents:\n[1] Admission Guide\nAdmission requires a WAEC certificate.\n\nQuestion: What are the admission requirements?"
	out, err := NewExtractive().GenerateWithSystem(context.Background(), "system", prompt)
	require.NoError(t, err)
	assert.Contains(t, out, "WAEC certificate")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewExtractive().GenerateWithSystem(ctx, "system", prompt)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}
