// Package session keeps per-session conversation history in memory.
//
// Histories are created lazily on first use and live for the process
// lifetime; clearing a session resets its log without invalidating handles
// other goroutines may hold.
package session

import (
	"sync"

	"github.com/firebase/genkit/go/ai"

	"github.com/docubot-ai/docubot/internal/log"
)

// Role constants define valid message roles for type safety.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// History encapsulates one session's conversation history with thread-safe
// access.
//
// Note: The zero value is NOT useful - histories come from Store.GetOrCreate.
type History struct {
	mu       sync.RWMutex
	messages []*ai.Message
}

// Messages returns a copy of all messages for thread-safe access.
func (h *History) Messages() []*ai.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]*ai.Message, len(h.messages))
	copy(result, h.messages)
	return result
}

// AddTurn appends the user question and assistant answer as one atomic
// pair, so concurrent turns on the same session never interleave their
// two messages.
func (h *History) AddTurn(question, answer string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages,
		ai.NewUserMessage(ai.NewTextPart(question)),
		ai.NewModelMessage(ai.NewTextPart(answer)),
	)
}

// AddMessage appends a single message.
// Returns without effect if msg is nil.
func (h *History) AddMessage(msg *ai.Message) {
	if msg == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

// Count returns the number of messages.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Clear removes all messages.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = h.messages[:0]
}

// Store manages session histories keyed by session id.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*History
	logger   log.Logger
}

// NewStore creates a Store. A nil logger falls back to a no-op logger.
func NewStore(logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		sessions: make(map[string]*History),
		logger:   logger.With("component", "session"),
	}
}

// GetOrCreate returns the history for id, creating it on first use.
// Repeated calls with the same id return the same History.
func (s *Store) GetOrCreate(id string) *History {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.sessions[id]
	if !ok {
		h = &History{}
		s.sessions[id] = h
		s.logger.Debug("created session", "session_id", id)
	}
	return h
}

// Clear resets the history of id. Unknown ids are a no-op. Handles
// obtained earlier from GetOrCreate stay valid and observe the reset.
func (s *Store) Clear(id string) {
	s.mu.Lock()
	h, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		h.Clear()
		s.logger.Debug("cleared session", "session_id", id)
	}
}

// ClearAll resets every session's history.
func (s *Store) ClearAll() {
	s.mu.Lock()
	histories := make([]*History, 0, len(s.sessions))
	for _, h := range s.sessions {
		histories = append(histories, h)
	}
	count := len(histories)
	s.mu.Unlock()

	for _, h := range histories {
		h.Clear()
	}
	s.logger.Debug("cleared all sessions", "count", count)
}

// Len returns the number of known sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
