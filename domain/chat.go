package domain

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of an assistant conversation.
type ChatMessage struct {
	Role    ChatRole `json:"role" validate:"oneof=user assistant"`
	Content string   `json:"content" validate:"notblank"`
}

// ChatDelta is one streamed fragment of an assistant reply. A non-nil Err ends the stream.
type ChatDelta struct {
	Text string
	Err  error
}
