package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excellerator/internal/config"
	"excellerator/internal/gateway"
	"excellerator/internal/gateway/openai"
	"excellerator/internal/port"
)

func newTestGateway(serverURL string) *openai.Gateway {
	cfg := &config.ModelProviderConfig{
		Provider:     "openai",
		APIKey:       "sk-test",
		DefaultModel: "gpt-4o",
		TimeoutSecs:  30,
		Temperature:  0.1,
	}
	return openai.NewGatewayWithEndpoint(cfg, serverURL)
}

func completion(content, finishReason string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-2024-08-06",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": finishReason,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func TestGateway_Generate_ImageAttachment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4o", reqBody["model"])
		assert.Equal(t, "json_object", reqBody["response_format"].(map[string]interface{})["type"])

		messages := reqBody["messages"].([]interface{})
		require.Len(t, messages, 1)
		parts := messages[0].(map[string]interface{})["content"].([]interface{})
		require.Len(t, parts, 2)
		img := parts[0].(map[string]interface{})
		assert.Equal(t, "image_url", img["type"])
		assert.Contains(t, img["image_url"].(map[string]interface{})["url"], "data:image/jpeg;base64,")
		assert.Equal(t, "text", parts[1].(map[string]interface{})["type"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(`{"data":[{"A":"1"}]}`, "stop"))
	}))
	defer server.Close()

	out, err := newTestGateway(server.URL).Generate(context.Background(), port.GenerateInput{
		Prompt:     "extract",
		Attachment: &port.Attachment{Data: []byte{0xff, 0xd8}, ContentType: "image/jpeg"},
	})

	require.NoError(t, err)
	assert.Equal(t, `{"data":[{"A":"1"}]}`, out.Text)
	assert.Equal(t, "gpt-4o-2024-08-06", out.Model)
}

func TestGateway_Generate_PDFAttachment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		parts := reqBody["messages"].([]interface{})[0].(map[string]interface{})["content"].([]interface{})
		file := parts[0].(map[string]interface{})
		assert.Equal(t, "file", file["type"])
		assert.Equal(t, "invoice.pdf", file["file"].(map[string]interface{})["filename"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(`{"data":[]}`, "stop"))
	}))
	defer server.Close()

	_, err := newTestGateway(server.URL).Generate(context.Background(), port.GenerateInput{
		Prompt:     "extract",
		Attachment: &port.Attachment{Data: []byte("%PDF"), ContentType: "application/pdf", FileName: "invoice.pdf"},
	})
	require.NoError(t, err)
}

func TestGateway_Generate_Truncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(`{"data":[`, "length"))
	}))
	defer server.Close()

	_, err := newTestGateway(server.URL).Generate(context.Background(), port.GenerateInput{Prompt: "x"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestGateway_Generate_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	}))
	defer server.Close()

	_, err := newTestGateway(server.URL).Generate(context.Background(), port.GenerateInput{Prompt: "x"})

	var rlErr *gateway.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "openai", rlErr.Provider)
	assert.Equal(t, 5.0, rlErr.RetryAfter.Seconds())
}

func TestGateway_Generate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad"}}`))
	}))
	defer server.Close()

	_, err := newTestGateway(server.URL).Generate(context.Background(), port.GenerateInput{Prompt: "x"})

	require.Error(t, err)
	var rlErr *gateway.RateLimitError
	assert.False(t, errors.As(err, &rlErr))
}
