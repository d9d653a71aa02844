package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/phoenixr49/hugbridge/internal/log"
)

// ErrLoginFailed indicates the remote service rejected the credentials
// or did not issue a session token.
var ErrLoginFailed = errors.New("login failed")

// loginTimeout caps the whole login exchange. Login is interactive-path
// only, so a generous bound is fine.
const loginTimeout = 30 * time.Second

// Provider performs logins against the remote chat service.
type Provider struct {
	baseURL string
	client  *http.Client
	logger  log.Logger
}

// NewProvider creates a login provider for the given service base URL.
func NewProvider(baseURL string, logger log.Logger) *Provider {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Provider{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Login authenticates with email and password and returns the session
// bundle the service issued. The bundle is NOT cached here; callers
// decide when to persist it (see SaveBundle).
func (p *Provider) Login(ctx context.Context, email, password string) (*Bundle, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	client := p.client
	if client == nil {
		client = &http.Client{Timeout: loginTimeout}
	}
	client.Jar = jar

	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: status %d", ErrLoginFailed, resp.StatusCode)
	}

	base, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	bundle := &Bundle{
		Email:     email,
		CreatedAt: time.Now(),
		Cookies:   fromHTTPCookies(jar.Cookies(base)),
	}
	if !bundle.Usable(time.Now()) {
		return nil, fmt.Errorf("%w: no session token issued", ErrLoginFailed)
	}

	p.logger.Info("logged in to remote chat service", "email", email)
	return bundle, nil
}

// SetHTTPClient overrides the HTTP client, primarily for tests.
func (p *Provider) SetHTTPClient(c *http.Client) {
	p.client = c
}
