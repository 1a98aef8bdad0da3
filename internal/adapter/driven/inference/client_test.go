package inference_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trinetra-dev/credregistry/internal/adapter/driven/inference"
)

func newTestClient(server *httptest.Server) *inference.Client {
	return inference.NewClientWithHTTPClient(server.Client(), server.URL, "test-key", "test-model")
}

func TestGenerate_ArrayResponse(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"generated_text": "  Hello there.  "}]`))
	}))
	defer server.Close()

	text, err := newTestClient(server).Generate(context.Background(), "Say hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello there.", text)

	assert.Equal(t, "/models/test-model", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "Say hello", gotBody["inputs"])

	params, ok := gotBody["parameters"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(512), params["max_new_tokens"])
	assert.Equal(t, false, params["return_full_text"])
}

func TestGenerate_ObjectResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"generated_text": "single shape"}`))
	}))
	defer server.Close()

	text, err := newTestClient(server).Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "single shape", text)
}

func TestGenerate_RetriesWhileModelLoading(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error": "Model test-model is currently loading"}`))
			return
		}
		_, _ = w.Write([]byte(`[{"generated_text": "finally up"}]`))
	}))
	defer server.Close()

	text, err := newTestClient(server).Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "finally up", text)
	assert.Equal(t, 3, attempts)
}

func TestGenerate_PermanentErrorFailsFast(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid prompt"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid prompt")
	assert.Equal(t, 1, attempts, "non-transient errors must not be retried")
}

func TestGenerate_GivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "rate limit exceeded"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Equal(t, 4, attempts, "initial attempt plus three retries")
}

func TestGenerate_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	_, err := newTestClient(server).Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no generated text")
}
