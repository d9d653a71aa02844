package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phoenixr49/hugbridge/internal/log"
)

func newLoginServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestLogin(t *testing.T) {
	var gotUser, gotPass string
	srv := newLoginServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/login", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotUser = r.PostForm.Get("username")
		gotPass = r.PostForm.Get("password")

		http.SetCookie(w, &http.Cookie{
			Name:    "token",
			Value:   "issued-token",
			Path:    "/",
			Expires: time.Now().Add(24 * time.Hour),
		})
		w.WriteHeader(http.StatusOK)
	})

	p := NewProvider(srv.URL, log.NewNop())
	bundle, err := p.Login(context.Background(), "user@example.com", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", gotUser)
	assert.Equal(t, "hunter2", gotPass)
	assert.Equal(t, "user@example.com", bundle.Email)
	assert.True(t, bundle.Usable(time.Now()))
}

func TestLoginRejectedCredentials(t *testing.T) {
	srv := newLoginServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	p := NewProvider(srv.URL, log.NewNop())
	_, err := p.Login(context.Background(), "user@example.com", "wrong")
	require.ErrorIs(t, err, ErrLoginFailed)
}

func TestLoginNoTokenIssued(t *testing.T) {
	srv := newLoginServer(t, func(w http.ResponseWriter, r *http.Request) {
		// 200 but no session cookie: still a failed login.
		w.WriteHeader(http.StatusOK)
	})

	p := NewProvider(srv.URL, log.NewNop())
	_, err := p.Login(context.Background(), "user@example.com", "hunter2")
	require.ErrorIs(t, err, ErrLoginFailed)
}

func TestLoginServerUnreachable(t *testing.T) {
	srv := newLoginServer(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	p := NewProvider(srv.URL, log.NewNop())
	_, err := p.Login(context.Background(), "user@example.com", "hunter2")
	require.ErrorIs(t, err, ErrLoginFailed)
}
