// Package agent implements the conversation-session reconciler.
//
// The agent maps a conversation id supplied by the host platform onto a
// remote conversation, creating one when absent, and keeps an ordered
// in-memory transcript in sync with that decision. The remote service
// is the source of truth for conversation identity: a brand-new
// conversation is keyed by the id the service assigned, never by a
// host-supplied placeholder.
//
// # Failure semantics
//
// Client initialization, prompt rendering and query submission fail
// independently. Each failure is caught at its call site and converted
// into an error-flagged [Result] carrying a speech-style message and
// the best-known conversation id; ProcessTurn never returns an error.
//
// # Concurrency
//
// Turns for one conversation are serialized via the transcript store's
// per-conversation lock. Remote I/O runs through a bounded [Dispatcher]
// so a burst of turns cannot saturate the process with blocking calls.
package agent

import (
	"context"
	"errors"
	"time"

	"github.com/phoenixr49/hugbridge/internal/auth"
	"github.com/phoenixr49/hugbridge/internal/hugchat"
	"github.com/phoenixr49/hugbridge/internal/log"
	"github.com/phoenixr49/hugbridge/internal/metrics"
	"github.com/phoenixr49/hugbridge/internal/session"
)

// Speech-style error messages returned to the user. The failure class
// is named so the user knows whether retrying can help.
const (
	msgInitError     = "Sorry, an error occurred while initialising the chat: %v"
	msgTemplateError = "Sorry, I had a problem with my template: %v"
	msgQueryError    = "Sorry, I had a problem talking to the HuggingChat server: %v"
	msgOverloadError = "Sorry, the HuggingChat model is overloaded: %v"
	msgInternalError = "Sorry, an unexpected error occurred: %v"
)

// Input is one incoming user utterance. ConversationID is empty for a
// brand-new conversation.
type Input struct {
	ConversationID string
	Text           string
}

// ChatClient is the remote conversation surface the agent consumes.
// *hugchat.Client satisfies it; tests substitute fakes.
type ChatClient interface {
	NewConversation(ctx context.Context) (hugchat.Conversation, error)
	RefreshConversations(ctx context.Context) error
	ConversationFromID(id string) (hugchat.Conversation, error)
	ChangeConversation(conv hugchat.Conversation)
	SetSystemPrompt(prompt string)
	Query(ctx context.Context, text string, opts hugchat.QueryOptions) (string, error)
}

// BundleSource yields the authenticated session bundle.
// *auth.Manager satisfies it.
type BundleSource interface {
	Bundle(ctx context.Context) (*auth.Bundle, error)
}

// ClientFactory builds a chat client bound to a session bundle. The
// factory closes over the base URL, model and rate limiter so the agent
// stays unaware of transport details.
type ClientFactory func(bundle *auth.Bundle) (ChatClient, error)

// Config contains all required parameters for the agent.
type Config struct {
	Store      *session.Store
	Bundles    BundleSource
	NewClient  ClientFactory
	Dispatcher *Dispatcher
	Logger     log.Logger

	// Prompt is the system prompt template; LocationName is the single
	// variable exposed to it.
	Prompt       string
	LocationName string

	// Sampling parameters, read-only per request.
	Temperature float64
	TopP        float64
	MaxTokens   int

	// QueryTimeout bounds the remote query call. Zero disables.
	QueryTimeout time.Duration

	// Metrics is optional; nil disables instrumentation.
	Metrics *metrics.Metrics
}

func (cfg Config) validate() error {
	if cfg.Store == nil {
		return errors.New("transcript store is required")
	}
	if cfg.Bundles == nil {
		return errors.New("bundle source is required")
	}
	if cfg.NewClient == nil {
		return errors.New("client factory is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Agent is the session reconciler. It is safe for concurrent use; all
// configuration is captured immutably at construction time.
type Agent struct {
	store      *session.Store
	bundles    BundleSource
	newClient  ClientFactory
	dispatcher *Dispatcher
	logger     log.Logger
	metrics    *metrics.Metrics

	prompt       string
	locationName string
	opts         hugchat.QueryOptions
	queryTimeout time.Duration
}

// New creates an agent with required configuration.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dispatcher := cfg.Dispatcher
	if dispatcher == nil {
		dispatcher = NewDispatcher(1)
	}

	return &Agent{
		store:        cfg.Store,
		bundles:      cfg.Bundles,
		newClient:    cfg.NewClient,
		dispatcher:   dispatcher,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
		prompt:       cfg.Prompt,
		locationName: cfg.LocationName,
		opts: hugchat.QueryOptions{
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			MaxTokens:   cfg.MaxTokens,
		},
		queryTimeout: cfg.QueryTimeout,
	}, nil
}

// ProcessTurn handles one user utterance end to end: session bundle,
// client init, conversation reconciliation, query, transcript update.
// The returned Result is always well-formed; failures are flagged in
// Result.Err, never raised.
func (a *Agent) ProcessTurn(ctx context.Context, in Input) Result {
	start := time.Now()
	result := a.processTurn(ctx, in)
	a.metrics.ObserveTurn(outcomeLabel(result), time.Since(start))
	return result
}

func (a *Agent) processTurn(ctx context.Context, in Input) Result {
	// Step 1: session bundle. Cached fast path lives in the source;
	// failures here mean we never reached the chat service.
	var bundle *auth.Bundle
	err := a.dispatcher.Do(ctx, func(ctx context.Context) error {
		var err error
		bundle, err = a.bundles.Bundle(ctx)
		return err
	})
	if err != nil {
		a.logger.Error("session bundle acquisition failed", "error", err)
		return errorResult(in.ConversationID, KindRemoteInit, msgInitError, err)
	}

	// Step 2: client init with an empty prompt placeholder. For new
	// conversations the rendered prompt is injected later, after the
	// remote id round-trip.
	client, err := a.newClient(bundle)
	if err != nil {
		a.logger.Error("chat client initialisation failed", "error", err)
		return errorResult(in.ConversationID, KindRemoteInit, msgInitError, err)
	}

	// Step 3: branch on whether the id already has a local transcript.
	if in.ConversationID != "" && a.store.Has(in.ConversationID) {
		return a.continueConversation(ctx, client, in)
	}
	return a.startConversation(ctx, client, in)
}

// continueConversation reuses an existing transcript: refresh the
// remote view, resolve the conversation object, switch to it.
// The system prompt is never re-rendered or re-seeded on this path.
func (a *Agent) continueConversation(ctx context.Context, client ChatClient, in Input) Result {
	id := in.ConversationID

	release := a.store.Acquire(id)
	defer release()

	// The transcript can vanish between Has and Acquire; fall back to
	// the new-conversation path rather than failing the turn.
	if !a.store.Has(id) {
		return a.startConversation(ctx, client, in)
	}

	err := a.dispatcher.Do(ctx, func(ctx context.Context) error {
		a.metrics.RecordRemoteCall("refresh_conversations")
		return client.RefreshConversations(ctx)
	})
	if err != nil {
		a.logger.Error("refreshing remote conversations failed", "error", err, "conversation_id", id)
		return errorResult(id, KindRemoteQuery, msgQueryError, err)
	}

	conv, err := client.ConversationFromID(id)
	if err != nil {
		// The remote side no longer knows this conversation. Treated as
		// new: drop the stale transcript and start over, keeping the
		// dialogue alive instead of hard-failing.
		a.logger.Warn("conversation unknown to remote service, starting new",
			"conversation_id", id, "error", err)
		a.store.Delete(id)
		return a.startConversation(ctx, client, in)
	}
	client.ChangeConversation(conv)

	return a.exchange(ctx, client, id, in.Text)
}

// startConversation creates a remote conversation, renders the system
// prompt, switches to the new conversation and seeds the transcript.
// The remote-assigned id becomes the conversation id from here on.
func (a *Agent) startConversation(ctx context.Context, client ChatClient, in Input) Result {
	var conv hugchat.Conversation
	err := a.dispatcher.Do(ctx, func(ctx context.Context) error {
		a.metrics.RecordRemoteCall("new_conversation")
		var err error
		conv, err = client.NewConversation(ctx)
		return err
	})
	if err != nil {
		a.logger.Error("creating remote conversation failed", "error", err)
		// No remote id was ever obtained; fall back to the host-supplied id.
		return errorResult(in.ConversationID, KindRemoteQuery, msgQueryError, err)
	}

	prompt, err := RenderPrompt(a.prompt, PromptContext{LocationName: a.locationName})
	if err != nil {
		a.logger.Error("rendering prompt failed", "error", err)
		return errorResult(conv.ID, KindTemplateRender, msgTemplateError, err)
	}
	client.SetSystemPrompt(prompt)

	err = a.dispatcher.Do(ctx, func(ctx context.Context) error {
		a.metrics.RecordRemoteCall("refresh_conversations")
		return client.RefreshConversations(ctx)
	})
	if err != nil {
		a.logger.Error("refreshing remote conversations failed", "error", err, "conversation_id", conv.ID)
		return errorResult(conv.ID, KindRemoteQuery, msgQueryError, err)
	}
	if resolved, err := client.ConversationFromID(conv.ID); err == nil {
		conv = resolved
	}
	client.ChangeConversation(conv)

	release := a.store.Acquire(conv.ID)
	defer release()

	if err := a.store.Seed(conv.ID, prompt); err != nil {
		// Concurrent creation of the same remote id cannot happen (ids
		// are service-assigned), so an existing transcript is reused.
		if !errors.Is(err, session.ErrAlreadySeeded) {
			return errorResult(conv.ID, KindInternal, msgInternalError, err)
		}
	}

	return a.exchange(ctx, client, conv.ID, in.Text)
}

// exchange appends the user turn, submits the query and appends the
// assistant turn. Caller holds the per-conversation lock.
func (a *Agent) exchange(ctx context.Context, client ChatClient, id, text string) Result {
	if err := a.store.Append(id, session.User(text)); err != nil {
		return errorResult(id, KindInternal, msgInternalError, err)
	}

	a.logger.Debug("submitting query", "conversation_id", id, "turns", a.store.Len(id))

	queryCtx := ctx
	if a.queryTimeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, a.queryTimeout)
		defer cancel()
	}

	var reply string
	err := a.dispatcher.Do(queryCtx, func(ctx context.Context) error {
		a.metrics.RecordRemoteCall("query")
		var err error
		reply, err = client.Query(ctx, text, a.opts)
		return err
	})
	if err != nil {
		// The assistant turn is never appended on failure; the user turn
		// stays so a retry continues the same exchange.
		if errors.Is(err, hugchat.ErrOverloaded) {
			a.logger.Warn("remote model overloaded", "conversation_id", id, "error", err)
			return errorResult(id, KindRemoteOverload, msgOverloadError, err)
		}
		a.logger.Error("query failed", "conversation_id", id, "error", err)
		return errorResult(id, KindRemoteQuery, msgQueryError, err)
	}

	if err := a.store.Append(id, session.Assistant(reply)); err != nil {
		return errorResult(id, KindInternal, msgInternalError, err)
	}

	return Result{ConversationID: id, Speech: reply}
}

func outcomeLabel(r Result) string {
	if r.OK() {
		return metrics.OutcomeOK
	}
	switch r.Err.Kind {
	case KindRemoteInit:
		return metrics.OutcomeRemoteInit
	case KindTemplateRender:
		return metrics.OutcomeTemplateRender
	case KindRemoteOverload:
		return metrics.OutcomeRemoteOverload
	case KindInternal:
		return metrics.OutcomeInternal
	default:
		return metrics.OutcomeRemoteQuery
	}
}
