package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	requireBearer := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
				return
			}
			assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
			next(w, r)
		}
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "ai_service": "available", "timestamp": "t"})
	})
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["username"] != "alice" || body["password"] != "secret123" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "tok-1", "token_type": "bearer"})
	})
	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Username already registered"})
	})
	mux.HandleFunc("POST /send", requireBearer(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, SendResult{
			Response: "echo: " + body["message"],
			History: []Message{
				{Role: "user", Content: body["message"]},
				{Role: "assistant", Content: "echo: " + body["message"]},
			},
		})
	}))
	mux.HandleFunc("GET /history/{id}", requireBearer(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "my session" {
			writeJSON(w, http.StatusOK, []Message{})
			return
		}
		writeJSON(w, http.StatusOK, []Message{{Role: "user", Content: "hi"}})
	}))
	mux.HandleFunc("DELETE /sessions/{id}", requireBearer(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Session not found"})
	}))
	mux.HandleFunc("DELETE /sessions", requireBearer(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "All sessions cleared successfully"})
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAPIClient_LoginAndAuthenticatedCalls(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	c := NewAPIClient(srv.URL+"/", time.Second)
	ctx := context.Background()

	_, err := c.Send(ctx, "s1", "hi")
	require.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, c.Login(ctx, "alice", []byte("secret123")))
	assert.Equal(t, "tok-1", c.Token())

	res, err := c.Send(ctx, "s1", "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", res.Response)
	assert.Len(t, res.History, 2)

	msgs, err := c.History(ctx, "my session")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Content)

	msg, err := c.ClearSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "All sessions cleared successfully", msg)

	_, err = c.DeleteSession(ctx, "s1")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Session not found", apiErr.Detail)

	c.Logout()
	_, err = c.Sessions(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestAPIClient_ErrorMapping(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	c := NewAPIClient(srv.URL, time.Second)
	ctx := context.Background()

	err := c.Login(ctx, "alice", []byte("wrong"))
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, c.Token())

	err = c.Register(ctx, "alice", []byte("x"))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Username already registered", apiErr.Detail)

	c.SetToken("stale")
	_, err = c.Send(ctx, "s1", "hi")
	assert.ErrorIs(t, err, ErrUnauthorized)

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "available", h.AIService)
}

func TestAPIClient_Unavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewAPIClient(url, 200*time.Millisecond)
	_, err := c.Health(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}
