package hugchat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phoenixr49/hugbridge/internal/auth"
	"github.com/phoenixr49/hugbridge/internal/log"
)

func testBundle() *auth.Bundle {
	return &auth.Bundle{
		Email:     "user@example.com",
		CreatedAt: time.Now(),
		Cookies: []auth.Cookie{
			{Name: "token", Value: "secret", Path: "/", Expires: time.Now().Add(time.Hour)},
		},
	}
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		BaseURL: srv.URL,
		Bundle:  testBundle(),
		Model:   "test-model",
		Logger:  log.NewNop(),
	})
	require.NoError(t, err)
	return c
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing bundle", Config{BaseURL: "https://example.com", Model: "m"}},
		{"missing model", Config{BaseURL: "https://example.com", Bundle: testBundle()}},
		{"bad base URL", Config{BaseURL: "://nope", Bundle: testBundle(), Model: "m"}},
		{"relative base URL", Config{BaseURL: "example.com", Bundle: testBundle(), Model: "m"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			require.ErrorIs(t, err, ErrInit)
		})
	}
}

func TestNewLeavesProvidedHTTPClientUntouched(t *testing.T) {
	base := &http.Client{Timeout: time.Second}

	_, err := New(Config{
		BaseURL:    "https://example.com",
		Bundle:     testBundle(),
		Model:      "m",
		HTTPClient: base,
		Logger:     log.NewNop(),
	})
	require.NoError(t, err)

	// The session jar is installed on an internal copy only.
	assert.Nil(t, base.Jar)
}

func TestNewConversation(t *testing.T) {
	var gotReq newConversationRequest
	var gotCookie string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/chat/conversation", r.URL.Path)
		if cookie, err := r.Cookie("token"); err == nil {
			gotCookie = cookie.Value
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(newConversationResponse{ConversationID: "abc123"})
	}))
	c.SetSystemPrompt("be brief")

	conv, err := c.NewConversation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", conv.ID)
	assert.Equal(t, "test-model", conv.Model)
	assert.Equal(t, "test-model", gotReq.Model)
	assert.Equal(t, "be brief", gotReq.Preprompt)
	assert.Equal(t, "secret", gotCookie, "session cookie must accompany requests")
}

func TestNewConversationEmptyID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(newConversationResponse{})
	}))

	_, err := c.NewConversation(context.Background())
	require.ErrorIs(t, err, ErrQuery)
}

func TestRefreshAndResolveConversations(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/api/conversations", r.URL.Path)
		_ = json.NewEncoder(w).Encode(conversationsResponse{Conversations: []Conversation{
			{ID: "abc123", Title: "first"},
			{ID: "def456", Title: "second"},
		}})
	}))

	require.NoError(t, c.RefreshConversations(context.Background()))

	conv, err := c.ConversationFromID("def456")
	require.NoError(t, err)
	assert.Equal(t, "second", conv.Title)

	_, err = c.ConversationFromID("missing")
	require.ErrorIs(t, err, ErrUnknownConversation)
}

func TestQuery(t *testing.T) {
	var gotReq queryRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/conversation/abc123", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(queryResponse{GeneratedText: "the answer"})
	}))
	c.ChangeConversation(Conversation{ID: "abc123"})

	reply, err := c.Query(context.Background(), "the question", QueryOptions{
		Temperature: 0.9,
		TopP:        0.95,
		MaxTokens:   1024,
	})
	require.NoError(t, err)
	assert.Equal(t, "the answer", reply)
	assert.Equal(t, "the question", gotReq.Inputs)
	assert.InDelta(t, 0.9, gotReq.Parameters.Temperature, 1e-9)
	assert.InDelta(t, 0.95, gotReq.Parameters.TopP, 1e-9)
	assert.Equal(t, 1024, gotReq.Parameters.MaxNewTokens)
}

func TestQueryNoActiveConversation(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	_, err := c.Query(context.Background(), "hello", QueryOptions{})
	require.ErrorIs(t, err, ErrNoActiveConversation)
}

func TestQueryOverloadedStatus(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		c.ChangeConversation(Conversation{ID: "abc123"})

		_, err := c.Query(context.Background(), "hello", QueryOptions{})
		require.ErrorIs(t, err, ErrOverloaded, "status %d", status)
	}
}

func TestQueryOverloadedBodyMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(queryResponse{Error: "Model is overloaded, please retry"})
	}))
	c.ChangeConversation(Conversation{ID: "abc123"})

	_, err := c.Query(context.Background(), "hello", QueryOptions{})
	require.ErrorIs(t, err, ErrOverloaded)
}

func TestQueryRemoteError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal failure", http.StatusInternalServerError)
	}))
	c.ChangeConversation(Conversation{ID: "abc123"})

	_, err := c.Query(context.Background(), "hello", QueryOptions{})
	require.ErrorIs(t, err, ErrQuery)
	require.NotErrorIs(t, err, ErrOverloaded)
}

func TestQueryErrorField(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(queryResponse{Error: "conversation deleted"})
	}))
	c.ChangeConversation(Conversation{ID: "abc123"})

	_, err := c.Query(context.Background(), "hello", QueryOptions{})
	require.ErrorIs(t, err, ErrQuery)
}

func TestActiveConversation(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	_, ok := c.ActiveConversation()
	assert.False(t, ok)

	c.ChangeConversation(Conversation{ID: "abc123", Title: "t"})
	conv, ok := c.ActiveConversation()
	require.True(t, ok)
	assert.Equal(t, "abc123", conv.ID)
}
