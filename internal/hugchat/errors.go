package hugchat

import "errors"

// Sentinel errors for remote chat operations. The agent maps these onto
// its result error kinds; check with errors.Is().
var (
	// ErrInit indicates the client could not be constructed or the
	// session bundle was rejected.
	ErrInit = errors.New("chat client initialization failed")

	// ErrQuery indicates a generic remote failure during a query.
	ErrQuery = errors.New("chat query failed")

	// ErrOverloaded indicates the remote model is temporarily
	// unavailable. Distinct from ErrQuery so the user-facing message can
	// say "try again shortly" instead of reporting a hard failure.
	ErrOverloaded = errors.New("chat model overloaded")

	// ErrUnknownConversation indicates the requested conversation id is
	// not present in the client's view of remote conversations.
	ErrUnknownConversation = errors.New("unknown conversation")

	// ErrNoActiveConversation indicates Query was called before a
	// conversation was created or selected.
	ErrNoActiveConversation = errors.New("no active conversation")
)
