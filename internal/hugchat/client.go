// Package hugchat implements the cookie-session client for the
// HuggingChat web API.
//
// The client covers exactly the surface the conversation agent needs:
// creating a conversation, refreshing the remote conversation list,
// switching the active conversation, and submitting a query with
// sampling parameters. Full protocol fidelity (streaming, web search,
// tool plugins) is deliberately out of scope.
//
// All operations are blocking HTTP calls; the agent dispatches them
// through its bounded executor so the serving path is never starved.
package hugchat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/phoenixr49/hugbridge/internal/auth"
	"github.com/phoenixr49/hugbridge/internal/log"
)

const defaultHTTPTimeout = 2 * time.Minute

// Config contains all required parameters for the client.
type Config struct {
	// BaseURL of the service, e.g. "https://huggingface.co".
	BaseURL string

	// Bundle is the authenticated session material from internal/auth.
	Bundle *auth.Bundle

	// Model is the remote model identifier for new conversations.
	Model string

	// SystemPrompt is sent as the preprompt when creating a conversation.
	// Empty is valid: the agent constructs the client with an empty
	// placeholder first and re-initializes once the prompt is rendered.
	SystemPrompt string

	// Limiter optionally rate-limits queries client-side. Nil disables.
	Limiter *rate.Limiter

	// HTTPClient overrides the default client, primarily for tests.
	HTTPClient *http.Client

	Logger log.Logger
}

// Client talks to the remote chat service on behalf of one account.
//
// The conversation list and active conversation are protected by a
// mutex; the agent serializes turns per conversation above this layer.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	model        string
	systemPrompt string
	limiter      *rate.Limiter
	logger       log.Logger

	mu            sync.Mutex
	conversations []Conversation
	active        *Conversation
}

// New creates a client bound to a session bundle and model.
// Failures are reported as ErrInit.
func New(cfg Config) (*Client, error) {
	if cfg.Bundle == nil {
		return nil, fmt.Errorf("%w: session bundle is required", ErrInit)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%w: model is required", ErrInit)
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid base URL %q", ErrInit, cfg.BaseURL)
	}

	// The client is copied before the session jar is installed so a
	// caller-supplied http.Client is never mutated.
	var httpClient *http.Client
	if cfg.HTTPClient != nil {
		clone := *cfg.HTTPClient
		httpClient = &clone
	} else {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("%w: creating cookie jar: %w", ErrInit, err)
		}
		httpClient.Jar = jar
	}
	httpClient.Jar.SetCookies(base, cfg.Bundle.HTTPCookies())

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	return &Client{
		baseURL:      base,
		httpClient:   httpClient,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		limiter:      cfg.Limiter,
		logger:       logger,
	}, nil
}

// Model returns the model identifier the client creates conversations with.
func (c *Client) Model() string { return c.model }

// SetSystemPrompt replaces the preprompt used for subsequently created
// conversations. The agent calls this after rendering the prompt
// template instead of constructing a second client.
func (c *Client) SetSystemPrompt(prompt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.systemPrompt = prompt
}

// NewConversation creates a remote conversation and returns its info.
// The returned ID becomes the conversation identifier for all
// subsequent turns.
func (c *Client) NewConversation(ctx context.Context) (Conversation, error) {
	c.mu.Lock()
	prompt := c.systemPrompt
	c.mu.Unlock()

	body := newConversationRequest{Model: c.model, Preprompt: prompt}

	var resp newConversationResponse
	if err := c.postJSON(ctx, "/chat/conversation", body, &resp); err != nil {
		return Conversation{}, err
	}
	if resp.ConversationID == "" {
		return Conversation{}, fmt.Errorf("%w: service returned empty conversation id", ErrQuery)
	}

	conv := Conversation{ID: resp.ConversationID, Model: c.model}
	c.logger.Debug("created remote conversation", "id", conv.ID, "model", c.model)
	return conv, nil
}

// RefreshConversations replaces the client's view of remote
// conversations with the service's current list.
func (c *Client) RefreshConversations(ctx context.Context) error {
	var resp conversationsResponse
	if err := c.getJSON(ctx, "/chat/api/conversations", &resp); err != nil {
		return err
	}

	c.mu.Lock()
	c.conversations = resp.Conversations
	c.mu.Unlock()
	return nil
}

// ConversationFromID resolves a conversation from the refreshed list.
// Returns ErrUnknownConversation if the service does not report the id.
func (c *Client) ConversationFromID(id string) (Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conv := range c.conversations {
		if conv.ID == id {
			return conv, nil
		}
	}
	return Conversation{}, fmt.Errorf("%w: %s", ErrUnknownConversation, id)
}

// ChangeConversation switches the active conversation. Queries are
// submitted against the active conversation only.
func (c *Client) ChangeConversation(conv Conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = &conv
}

// ActiveConversation returns the currently selected conversation.
func (c *Client) ActiveConversation() (Conversation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return Conversation{}, false
	}
	return *c.active, true
}

// Query submits user text to the active conversation and returns the
// generated reply. Overload conditions surface as ErrOverloaded, other
// remote failures as ErrQuery.
func (c *Client) Query(ctx context.Context, text string, opts QueryOptions) (string, error) {
	active, ok := c.ActiveConversation()
	if !ok {
		return "", ErrNoActiveConversation
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %w", ErrQuery, err)
		}
	}

	body := queryRequest{
		Inputs: text,
		Parameters: queryParameters{
			Temperature:  opts.Temperature,
			TopP:         opts.TopP,
			MaxNewTokens: opts.MaxTokens,
		},
	}

	var resp queryResponse
	if err := c.postJSON(ctx, "/chat/conversation/"+url.PathEscape(active.ID), body, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		if isOverloadMessage(resp.Error) {
			return "", fmt.Errorf("%w: %s", ErrOverloaded, resp.Error)
		}
		return "", fmt.Errorf("%w: %s", ErrQuery, resp.Error)
	}

	return resp.GeneratedText, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %w", ErrQuery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL.String()+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrQuery, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String()+path, nil)
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrQuery, err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrQuery, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("%w: reading response: %w", ErrQuery, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusServiceUnavailable:
		return fmt.Errorf("%w: status %d: %s", ErrOverloaded, resp.StatusCode, snippet(data))
	case resp.StatusCode >= 400:
		if isOverloadMessage(string(data)) {
			return fmt.Errorf("%w: status %d: %s", ErrOverloaded, resp.StatusCode, snippet(data))
		}
		return fmt.Errorf("%w: status %d: %s", ErrQuery, resp.StatusCode, snippet(data))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decoding response: %w", ErrQuery, err)
	}
	return nil
}

// isOverloadMessage matches the phrasings the service uses when the
// model is saturated.
func isOverloadMessage(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "overloaded") || strings.Contains(s, "too many requests")
}

func snippet(data []byte) string {
	const max = 200
	s := strings.TrimSpace(string(data))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
