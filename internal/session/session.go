// Package session provides in-memory conversation transcripts.
//
// A transcript is the ordered turn log for one conversation, keyed by the
// remote service's conversation id. Transcripts live in process memory
// only and are destroyed on restart; the remote service remains the
// source of truth for conversation identity.
//
// # Concurrency
//
// [Store] is safe for concurrent use. Callers performing a read-modify-write
// sequence that spans a remote call must hold the per-conversation lock
// obtained from [Store.Acquire] so concurrent turns for the same
// conversation cannot interleave.
package session

// Role constants define valid turn roles for type safety.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn represents a single message with a role and text content.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// System returns a system turn with the given content.
func System(content string) Turn {
	return Turn{Role: RoleSystem, Content: content}
}

// User returns a user turn with the given content.
func User(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// Assistant returns an assistant turn with the given content.
func Assistant(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}
