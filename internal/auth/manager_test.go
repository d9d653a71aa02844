package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phoenixr49/hugbridge/internal/log"
)

func newCountingLoginServer(t *testing.T, logins *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins.Add(1)
		http.SetCookie(w, &http.Cookie{
			Name:    "token",
			Value:   "issued",
			Path:    "/",
			Expires: time.Now().Add(24 * time.Hour),
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestManagerLogsInOnceOnCacheMiss(t *testing.T) {
	var logins atomic.Int64
	srv := newCountingLoginServer(t, &logins)

	dir := t.TempDir()
	provider := NewProvider(srv.URL, log.NewNop())
	m := NewManager(provider, dir, "user@example.com", "hunter2", log.NewNop())

	first, err := m.Bundle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := m.Bundle(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)

	assert.Equal(t, int64(1), logins.Load())

	// The login result was persisted before being handed out.
	onDisk, err := LoadBundle(dir, "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", onDisk.Email)
}

func TestManagerUsesDiskCache(t *testing.T) {
	var logins atomic.Int64
	srv := newCountingLoginServer(t, &logins)

	dir := t.TempDir()
	require.NoError(t, SaveBundle(dir, validBundle("user@example.com")))

	provider := NewProvider(srv.URL, log.NewNop())
	m := NewManager(provider, dir, "user@example.com", "hunter2", log.NewNop())

	bundle, err := m.Bundle(context.Background())
	require.NoError(t, err)
	assert.True(t, bundle.Usable(time.Now()))
	assert.Equal(t, int64(0), logins.Load(), "disk cache hit must not trigger a login")
}

func TestManagerInvalidateRereadsDisk(t *testing.T) {
	var logins atomic.Int64
	srv := newCountingLoginServer(t, &logins)

	dir := t.TempDir()
	provider := NewProvider(srv.URL, log.NewNop())
	m := NewManager(provider, dir, "user@example.com", "hunter2", log.NewNop())

	_, err := m.Bundle(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), logins.Load())

	m.Invalidate()

	// The persisted bundle is still usable, so no second login happens.
	_, err = m.Bundle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), logins.Load())
}

func TestManagerPropagatesLoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	provider := NewProvider(srv.URL, log.NewNop())
	m := NewManager(provider, t.TempDir(), "user@example.com", "wrong", log.NewNop())

	_, err := m.Bundle(context.Background())
	require.ErrorIs(t, err, ErrLoginFailed)
}
