package services

import (
	"sync"

	"avatar-relay/internal/models"
)

// DefaultHistoryLimit keeps the last ten user/assistant pairs.
const DefaultHistoryLimit = 20

// ConversationHistory is the bounded, in-memory rolling context shared by all
// conversation turns of the process.
type ConversationHistory struct {
	mu       sync.Mutex
	messages []models.ChatMessage
	limit    int
}

func NewConversationHistory(limit int) *ConversationHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &ConversationHistory{
		messages: make([]models.ChatMessage, 0, limit),
		limit:    limit,
	}
}

// Snapshot returns a copy of the current history, oldest first.
func (h *ConversationHistory) Snapshot() []models.ChatMessage {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]models.ChatMessage, len(h.messages))
	copy(out, h.messages)
	return out
}

// AppendTurn records a completed exchange and evicts the oldest entries
// beyond the limit.
func (h *ConversationHistory) AppendTurn(userText, reply string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages,
		models.ChatMessage{Role: models.RoleUser, Content: userText},
		models.ChatMessage{Role: models.RoleAssistant, Content: reply},
	)
	if over := len(h.messages) - h.limit; over > 0 {
		kept := make([]models.ChatMessage, h.limit)
		copy(kept, h.messages[over:])
		h.messages = kept
	}
}

func (h *ConversationHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.messages)
}

func (h *ConversationHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = h.messages[:0]
}
