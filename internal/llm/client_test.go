package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Options{
		Endpoint:      srv.URL,
		Model:         "llama3.1:8b",
		ContextTokens: 4096,
		Timeout:       5 * time.Second,
		Logger:        zerolog.Nop(),
	})
}

func TestGenerate(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.1:8b", req.Model)
		assert.False(t, req.Stream)
		assert.Equal(t, 4096, req.Options.NumCtx)
		assert.Equal(t, "hello", req.Prompt)

		json.NewEncoder(w).Encode(generateResponse{Response: "CONVERSATION: hi", Done: true})
	})

	reply, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "CONVERSATION: hi", reply)
}

func TestGenerateServerError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	})
	_, err := c.Generate(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGenerateUnknownModel(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	})
	_, err := c.Generate(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestGenerateEmptyReply(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "   ", Done: true})
	})
	_, err := c.Generate(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestGenerateUnreachable(t *testing.T) {
	c := New(Options{Endpoint: "http://127.0.0.1:1", Model: "m", Timeout: time.Second, Logger: zerolog.Nop()})
	_, err := c.Generate(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGenerateCanceled(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		// The server only notices the client going away once the body
		// is consumed; without the drain this handler never returns
		// and Cleanup hangs on srv.Close.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Generate(ctx, "hello")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPing(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, c.Ping(context.Background()))
}
