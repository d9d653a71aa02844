package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// ErrNoCache indicates no usable cached bundle exists for the account.
// Callers fall back to the interactive login path.
var ErrNoCache = errors.New("no cached session bundle")

// CachePath returns the bundle file path for an account within dir.
// The email is sanitized so it is safe as a file name.
func CachePath(dir, email string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, email)
	return filepath.Join(dir, name+".json")
}

// LoadBundle reads the cached bundle for the account. Returns ErrNoCache
// if the file is missing, unreadable, malformed, or expired; any of
// those means the caller should log in again.
func LoadBundle(dir, email string) (*Bundle, error) {
	path := CachePath(dir, email)

	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("locking bundle cache: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoCache, err)
	}

	var bundle Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("%w: malformed cache: %w", ErrNoCache, err)
	}
	if !strings.EqualFold(bundle.Email, email) || !bundle.Usable(time.Now()) {
		return nil, ErrNoCache
	}

	return &bundle, nil
}

// SaveBundle persists the bundle atomically (temp file + rename) with
// 0600 permissions under an exclusive file lock.
func SaveBundle(dir string, bundle *Bundle) error {
	if bundle == nil {
		return errors.New("nil bundle")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating cookie cache directory: %w", err)
	}

	path := CachePath(dir, bundle.Email)

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking bundle cache: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding bundle: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".bundle-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing bundle: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("setting bundle permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("installing bundle file: %w", err)
	}

	return nil
}
