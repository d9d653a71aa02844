// Package auth handles authentication against the remote chat service.
//
// A successful login yields a [Bundle] of session cookies. Bundles are
// cached on disk so subsequent startups skip the login round-trip; the
// interactive login path runs only when no usable cached bundle exists.
//
// Cache files are written atomically (temp file + rename) under a
// flock-guarded lock file so concurrent processes sharing one account
// never observe a partial write.
package auth

import (
	"net/http"
	"strings"
	"time"
)

// Bundle is the reusable session material obtained from a login:
// the cookie set the remote service issued, plus enough metadata to
// key the on-disk cache.
type Bundle struct {
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Cookies   []Cookie  `json:"cookies"`
}

// Cookie is the persisted subset of http.Cookie. Only fields the remote
// service round-trips are stored.
type Cookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Domain  string    `json:"domain,omitempty"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

// HTTPCookies converts the bundle to http.Cookie values for a cookie jar.
func (b *Bundle) HTTPCookies() []*http.Cookie {
	out := make([]*http.Cookie, 0, len(b.Cookies))
	for _, c := range b.Cookies {
		out = append(out, &http.Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Domain:  c.Domain,
			Path:    c.Path,
			Expires: c.Expires,
		})
	}
	return out
}

// Usable reports whether the bundle still carries an unexpired session
// token. Bundles without a token cookie are never usable.
func (b *Bundle) Usable(now time.Time) bool {
	if b == nil {
		return false
	}
	for _, c := range b.Cookies {
		if !strings.EqualFold(c.Name, "token") {
			continue
		}
		if c.Expires.IsZero() || c.Expires.After(now) {
			return true
		}
	}
	return false
}

func fromHTTPCookies(cookies []*http.Cookie) []Cookie {
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Domain:  c.Domain,
			Path:    c.Path,
			Expires: c.Expires,
		})
	}
	return out
}
