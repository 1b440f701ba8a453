package models

// Message roles understood by the provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of the conversation sent to the provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload sent to POST /chat.
type ChatRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

// HistoryResponse is the body of GET /history.
type HistoryResponse struct {
	Messages []ChatMessage `json:"messages"`
}

// ErrorResponse is the flat error body used by every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}
