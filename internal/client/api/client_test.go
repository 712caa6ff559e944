package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticTokenSource hands out canned tokens and counts refreshes.
type staticTokenSource struct {
	mu         sync.Mutex
	current    string
	next       string
	refreshes  int
	refreshErr error
}

func (s *staticTokenSource) AccessToken(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current, nil
}

func (s *staticTokenSource) Refresh(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	if s.refreshErr != nil {
		return "", s.refreshErr
	}
	s.current = s.next

	return s.current, nil
}

func (s *staticTokenSource) refreshCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.refreshes
}

func TestClient_PasswordGrant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "cli", r.PostForm.Get("client_id"))
		assert.Equal(t, "alice", r.PostForm.Get("username"))

		json.NewEncoder(w).Encode(TokenGrant{
			AccessToken:      "access-value",
			TokenType:        "Bearer",
			ExpiresIn:        900,
			RefreshToken:     "refresh-value",
			RefreshExpiresIn: 2592000,
		})
	}))
	defer server.Close()

	client := New(server.URL, "cli", "s3cret")

	grant, err := client.PasswordGrant(context.Background(), "alice", "pw", "")

	require.NoError(t, err)
	assert.Equal(t, "access-value", grant.AccessToken)
	assert.Equal(t, int64(900), grant.ExpiresIn)
	assert.Equal(t, int64(2592000), grant.RefreshExpiresIn)
}

func TestClient_PasswordGrant_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wireError string
		wantErr   error
	}{
		{"bad client credentials", http.StatusUnauthorized, "invalid_client", ErrInvalidClient},
		{"bad user credentials", http.StatusBadRequest, "invalid_grant", ErrInvalidGrant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]string{"error": tt.wireError})
			}))
			defer server.Close()

			client := New(server.URL, "cli", "s3cret")

			_, err := client.PasswordGrant(context.Background(), "alice", "pw", "")

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_AuthorizedCall_RefreshesOnceOn401(t *testing.T) {
	var mu sync.Mutex
	seenTokens := []string{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		mu.Lock()
		seenTokens = append(seenTokens, token)
		mu.Unlock()

		if token != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		w.Write([]byte("file content"))
	}))
	defer server.Close()

	tokens := &staticTokenSource{current: "stale", next: "fresh"}
	client := New(server.URL, "cli", "s3cret")
	client.SetTokenSource(tokens)

	content, err := client.Download(context.Background(), "notes/today.txt")

	require.NoError(t, err)
	assert.Equal(t, []byte("file content"), content)
	assert.Equal(t, 1, tokens.refreshCount())
	assert.Equal(t, []string{"Bearer stale", "Bearer fresh"}, seenTokens)
}

func TestClient_AuthorizedCall_GivesUpAfterOneRetry(t *testing.T) {
	var mu sync.Mutex
	requests := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tokens := &staticTokenSource{current: "stale", next: "still-bad"}
	client := New(server.URL, "cli", "s3cret")
	client.SetTokenSource(tokens)

	_, err := client.Download(context.Background(), "notes/today.txt")

	assert.ErrorIs(t, err, ErrSessionExpired)
	// One original attempt plus exactly one retry, never a loop.
	mu.Lock()
	assert.Equal(t, 2, requests)
	mu.Unlock()
	assert.Equal(t, 1, tokens.refreshCount())
}

func TestClient_AuthorizedCall_FailedRefreshEndsSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tokens := &staticTokenSource{current: "stale", refreshErr: ErrInvalidGrant}
	client := New(server.URL, "cli", "s3cret")
	client.SetTokenSource(tokens)

	_, err := client.Download(context.Background(), "f.txt")

	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestClient_Download_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"code":    404,
			"message": "resource not found",
			"error":   map[string]string{"code": "NOT_FOUND"},
		})
	}))
	defer server.Close()

	tokens := &staticTokenSource{current: "good", next: "good"}
	client := New(server.URL, "cli", "s3cret")
	client.SetTokenSource(tokens)

	_, err := client.Download(context.Background(), "missing.txt")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_List_DecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/vault/list", r.URL.Path)
		assert.Equal(t, "docs", r.URL.Query().Get("dir"))

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"code":    200,
			"message": "Success",
			"data": []map[string]any{
				{"name": "a.txt", "isDir": false, "size": 40},
				{"name": "sub", "isDir": true},
			},
		})
	}))
	defer server.Close()

	tokens := &staticTokenSource{current: "good"}
	client := New(server.URL, "cli", "s3cret")
	client.SetTokenSource(tokens)

	entries, err := client.List(context.Background(), "docs")

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.Equal(t, int64(40), entries[0].Size)
	assert.True(t, entries[1].IsDir)
}

func TestClient_EscapePath(t *testing.T) {
	assert.Equal(t, "notes/with%20space.txt", escapePath("notes/with space.txt"))
	assert.Equal(t, "plain.txt", escapePath("plain.txt"))
}
