package session

import (
	"sync"
)

// Store holds one transcript per conversation id.
//
// Two locking levels exist on purpose: the store-wide mutex protects the
// maps for individual operations, while Acquire hands out a per-conversation
// lock for multi-step sequences (read transcript, call remote, append
// result). The zero value is not useful; use NewStore.
type Store struct {
	mu          sync.RWMutex
	transcripts map[string][]Turn

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewStore creates an empty transcript store.
func NewStore() *Store {
	return &Store{
		transcripts: make(map[string][]Turn),
		locks:       make(map[string]*sync.Mutex),
	}
}

// Acquire locks the given conversation id and returns the unlock
// function. Turns for one conversation are strictly serialized; turns
// for different conversations proceed independently.
//
//	release := store.Acquire(id)
//	defer release()
func (s *Store) Acquire(id string) func() {
	s.lockMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.lockMu.Unlock()

	l.Lock()
	return l.Unlock
}

// Has reports whether a transcript exists for the conversation id.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.transcripts[id]
	return ok
}

// Get returns a copy of the transcript for the conversation id.
// The second return value is false if no transcript exists.
func (s *Store) Get(id string) ([]Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns, ok := s.transcripts[id]
	if !ok {
		return nil, false
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, true
}

// Seed creates the transcript for a new conversation with a single
// system turn holding the rendered prompt. Returns ErrAlreadySeeded if
// the conversation already has a transcript.
func (s *Store) Seed(id, systemPrompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transcripts[id]; ok {
		return ErrAlreadySeeded
	}
	s.transcripts[id] = []Turn{System(systemPrompt)}
	return nil
}

// Append adds turns to an existing transcript in submission order.
// Returns ErrNotFound if the conversation has no transcript.
func (s *Store) Append(id string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.transcripts[id]
	if !ok {
		return ErrNotFound
	}
	s.transcripts[id] = append(existing, turns...)
	return nil
}

// Len returns the number of turns in the transcript, or 0 if absent.
func (s *Store) Len(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transcripts[id])
}

// Delete removes the transcript. Idempotent.
//
// The keyed-lock entry is deliberately retained: the deleting goroutine
// may still hold it, and dropping the entry would let a concurrent
// Acquire mint a fresh mutex and run alongside the holder. The entry is
// small and conversation churn is low, so it stays for the process
// lifetime.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.transcripts, id)
	s.mu.Unlock()
}

// IDs returns the conversation ids with a transcript, in no particular order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.transcripts))
	for id := range s.transcripts {
		ids = append(ids, id)
	}
	return ids
}
