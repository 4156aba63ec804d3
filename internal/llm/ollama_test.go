package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, reply string, inspect func(r ollamaGenerateRequest, h http.Header)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if inspect != nil {
			inspect(req, r.Header)
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: reply})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaClient_Classify_StructuredOutput(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "[true,false]", func(r ollamaGenerateRequest, h http.Header) {
		assert.Equal(t, "test-model", r.Model)
		assert.False(t, r.Stream)
		assert.Equal(t, "array", r.Format["type"])
		assert.Equal(t, "Bearer secret", h.Get("Authorization"))
	})

	client, err := NewOllamaClient(srv.URL, WithAPIKey("secret"))
	require.NoError(t, err)

	raw, err := client.Classify(context.Background(), Request{Model: "test-model", Prompt: "p", Schema: BoolArray(2)})
	require.NoError(t, err)

	out, err := Decode[[]bool](raw)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, out)
}

func TestOllamaClient_Classify_StripsCodeFence(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "```json\n[[\"Miami-Dade\"]]\n```", nil)
	client, err := NewOllamaClient(srv.URL)
	require.NoError(t, err)

	raw, err := client.Classify(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)

	out, err := Decode[[][]string](raw)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Miami-Dade"}}, out)
}

func TestOllamaClient_Classify_MalformedOutput(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "Sure! Here are the answers: yes, no", nil)
	client, err := NewOllamaClient(srv.URL)
	require.NoError(t, err)

	_, err = client.Classify(context.Background(), Request{Prompt: "p"})
	assert.ErrorIs(t, err, ErrMalformedOutput)
}

func TestOllamaClient_Classify_StatusError(t *testing.T) {
	srv := newTestServer(t, http.StatusServiceUnavailable, "", nil)
	client, err := NewOllamaClient(srv.URL)
	require.NoError(t, err)

	_, err = client.Classify(context.Background(), Request{Prompt: "p"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.True(t, IsRetryable(err))
}

func TestOllamaClient_Classify_MissingPrompt(t *testing.T) {
	client, err := NewOllamaClient("http://localhost:1")
	require.NoError(t, err)

	_, err = client.Classify(context.Background(), Request{})
	assert.Error(t, err)
	assert.False(t, IsRetryable(err))
}

func TestDecode_AcceptsWrappedArray(t *testing.T) {
	out, err := Decode[[]bool](json.RawMessage(`{"results":[true,true,false]}`))
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false}, out)

	_, err = Decode[[]bool](json.RawMessage(`{"results":"yes"}`))
	assert.ErrorIs(t, err, ErrMalformedOutput)
}
