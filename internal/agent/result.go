package agent

import "fmt"

// ErrorKind classifies a failed turn. Exactly one kind is assigned per
// failure; the response adapter maps kinds onto envelope error codes.
type ErrorKind string

const (
	// KindRemoteInit: the chat client could not be constructed or the
	// session bundle could not be acquired.
	KindRemoteInit ErrorKind = "remote_init"

	// KindTemplateRender: the system prompt template failed to render.
	KindTemplateRender ErrorKind = "template_render"

	// KindRemoteQuery: generic remote/service failure during the query
	// or conversation bookkeeping.
	KindRemoteQuery ErrorKind = "remote_query"

	// KindRemoteOverload: the remote model is temporarily unavailable.
	KindRemoteOverload ErrorKind = "remote_overload"

	// KindInternal: a local bookkeeping failure, not attributable to the
	// remote service. Practically unreachable while the per-conversation
	// lock is held; kept distinct so it is never blamed on the remote side.
	KindInternal ErrorKind = "internal"
)

// ErrorInfo carries the failure class and a speech-style message
// suitable for being read back to the user.
type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Result is the outcome of one processed turn. Err is nil on success.
// ConversationID is always populated with the best-known id so the
// dialogue can continue on the next turn even after a failure.
type Result struct {
	ConversationID string     `json:"conversation_id"`
	Speech         string     `json:"speech,omitempty"`
	Err            *ErrorInfo `json:"error,omitempty"`
}

// OK reports whether the turn succeeded.
func (r Result) OK() bool { return r.Err == nil }

// errorResult builds a failed Result with a formatted speech message.
func errorResult(conversationID string, kind ErrorKind, format string, args ...any) Result {
	return Result{
		ConversationID: conversationID,
		Err: &ErrorInfo{
			Kind:    kind,
			Message: fmt.Sprintf(format, args...),
		},
	}
}
