package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newChatServer(t *testing.T, status int, content string, got *chatRequest, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "default",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAILLMComplete(t *testing.T) {
	var got chatRequest
	var calls int32
	srv := newChatServer(t, http.StatusOK, "graph TD\nA-->B", &got, &calls)
	defer srv.Close()

	llm, err := NewOpenAILLMFromConfig(&LLMSettings{APIKey: "test-key", Model: "default", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	out, err := llm.Complete(context.Background(), BuildGeneratePrompt("a flow"))
	require.NoError(t, err)
	assert.Equal(t, "graph TD\nA-->B", out)

	assert.Equal(t, "default", got.Model)
	assert.InDelta(t, 0.2, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "a flow", got.Messages[1].Content)
}

func TestOpenAILLMDoesNotRetry(t *testing.T) {
	var calls int32
	srv := newChatServer(t, http.StatusInternalServerError, "", nil, &calls)
	defer srv.Close()

	llm, err := NewOpenAILLMFromConfig(&LLMSettings{APIKey: "test-key", Model: "default", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	_, err = llm.Complete(context.Background(), BuildGeneratePrompt("x"))
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
