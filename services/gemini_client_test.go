package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abs-valuers/abs_backend/models"
)

func TestGeminiClient_Generate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		var body geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 2)
		assert.Equal(t, "model", body.Contents[0].Role)
		assert.Equal(t, "user", body.Contents[1].Role)
		assert.Equal(t, "be brief", body.SystemInstruction.Parts[0].Text)
		require.Len(t, body.Tools, 1)
		assert.NotNil(t, body.Tools[0].GoogleSearch)

		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "Hello "}, {"text": "there"}]},
				"groundingMetadata": {"groundingChunks": [{"web": {"uri": "https://a.example", "title": "A"}}]}
			}]
		}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(srv.URL, "test-model", "secret", 5*time.Second)
	res, err := client.Generate(context.Background(), GenerateRequest{
		SystemInstruction: "be brief",
		History: []Turn{
			{Role: models.ChatRoleModel, Text: "Welcome"},
			{Role: models.ChatRoleUser, Text: "Hi"},
		},
		Search: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", res.Text)
	require.Len(t, res.GroundingChunks, 1)
	assert.Equal(t, "https://a.example", res.GroundingChunks[0].Web.URI)
}

func TestGeminiClient_ErrorStatus(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"code": 429, "message": "Resource exhausted", "status": "RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	client := NewGeminiClient(srv.URL, "m", "secret", 5*time.Second)
	_, err := client.Generate(context.Background(), GenerateRequest{History: []Turn{{Role: models.ChatRoleUser, Text: "Hi"}}})
	require.ErrorIs(t, err, ErrAIUnavailable)
	assert.Contains(t, err.Error(), "Resource exhausted")
	assert.Equal(t, 1, calls)
}

func TestGeminiClient_NoKey(t *testing.T) {
	t.Parallel()

	_, err := NewGeminiClient("http://unused", "m", "", time.Second).Generate(context.Background(), GenerateRequest{})
	assert.ErrorIs(t, err, ErrAIUnavailable)
}
