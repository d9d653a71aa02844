package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/phoenixr49/hugbridge/internal/log"
)

// Manager resolves the session bundle for one account, in order of
// preference: in-memory copy, on-disk cache, interactive login. The
// login path runs at most once at a time and its result is persisted
// before it is handed out, so a cache miss never triggers a login storm.
type Manager struct {
	dir      string
	email    string
	password string
	provider *Provider
	logger   log.Logger

	mu     sync.Mutex
	cached *Bundle
}

// NewManager creates a bundle manager. provider performs the actual
// login; dir is the cookie cache directory.
func NewManager(provider *Provider, dir, email, password string, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{
		dir:      dir,
		email:    email,
		password: password,
		provider: provider,
		logger:   logger,
	}
}

// Bundle returns a usable session bundle, logging in only when neither
// the in-memory nor the on-disk copy is usable.
func (m *Manager) Bundle(ctx context.Context) (*Bundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if m.cached.Usable(now) {
		return m.cached, nil
	}

	bundle, err := LoadBundle(m.dir, m.email)
	if err == nil {
		m.cached = bundle
		return bundle, nil
	}
	if !errors.Is(err, ErrNoCache) {
		return nil, err
	}

	m.logger.Info("no cached session bundle, logging in", "email", m.email)
	bundle, err = m.provider.Login(ctx, m.email, m.password)
	if err != nil {
		return nil, err
	}
	if err := SaveBundle(m.dir, bundle); err != nil {
		return nil, err
	}

	m.cached = bundle
	return bundle, nil
}

// Invalidate drops the in-memory bundle so the next Bundle call re-reads
// the disk cache or logs in again. Used when the service rejects the
// session mid-flight.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cached = nil
}
