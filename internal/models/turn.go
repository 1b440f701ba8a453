package models

import (
	"time"

	"github.com/google/uuid"
)

// Turn kinds
const (
	TurnConversation = "conversation"
	TurnTranslation  = "translation"
)

// TurnEvent describes one completed relay, handed to the async sinks.
type TurnEvent struct {
	ID         uuid.UUID `json:"id"`
	RequestID  string    `json:"request_id,omitempty"`
	Kind       string    `json:"kind"`
	Language   string    `json:"language"`
	UserText   string    `json:"user_text"`
	Reply      string    `json:"reply"`
	Chunks     int       `json:"chunks"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// WSMessage is the envelope pushed to /ws clients.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
