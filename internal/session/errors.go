package session

import "errors"

// Sentinel errors for transcript operations.
// These are part of the Store's public API; check with errors.Is().
var (
	// ErrNotFound indicates no transcript exists for the conversation id.
	ErrNotFound = errors.New("transcript not found")

	// ErrAlreadySeeded indicates Seed was called for a conversation id
	// that already has a transcript. The system turn is written exactly
	// once per conversation.
	ErrAlreadySeeded = errors.New("transcript already seeded")
)
