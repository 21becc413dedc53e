package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"askdata/internal/llm"
)

func TestNewClientDefaults(t *testing.T) {
	assert.Equal(t, "qwen3-vl:2b", llm.NewClient(llm.Config{}).Model())
	assert.Equal(t, "llama3", llm.NewClient(llm.Config{Model: "llama3"}).Model())
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "say hello", req.Prompt)
		assert.False(t, req.Stream)

		json.NewEncoder(w).Encode(map[string]string{"response": "hello from model"})
	}))
	defer srv.Close()

	client := llm.NewClient(llm.Config{BaseURL: srv.URL, Model: "test-model"})
	out, err := client.Generate(context.Background(), "say hello")
	require.NoError(t, err)
	assert.Equal(t, "hello from model", out)
}

func TestGenerateErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := llm.NewClient(llm.Config{BaseURL: srv.URL})
	_, err := client.Generate(context.Background(), "hi")
	assert.ErrorContains(t, err, "ollama API returned status: 500")
}

func TestAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))

	client := llm.NewClient(llm.Config{BaseURL: srv.URL})
	assert.True(t, client.Available(context.Background()))

	srv.Close()
	assert.False(t, client.Available(context.Background()))
}
