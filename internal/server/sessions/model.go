package sessions

import (
	"time"

	"github.com/dmitrijs2005/medchat/internal/timex"
)

// Role tells who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn as stored and returned over the API.
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// NewMessage stamps content with t in UTC.
func NewMessage(role Role, content string, t time.Time) Message {
	return Message{Role: role, Content: content, Timestamp: timex.UTCTimestamp(t)}
}

// Summary describes one session in a listing. LastMessage and
// LastMessageContent are nil for a session without messages.
type Summary struct {
	SessionID          string  `json:"session_id"`
	MessageCount       int     `json:"message_count"`
	LastMessage        *string `json:"last_message"`
	LastMessageContent *string `json:"last_message_content"`
}

const previewLen = 100

// Preview cuts content to its first 100 characters, marking truncation with "...".
func Preview(content string) string {
	r := []rune(content)
	if len(r) <= previewLen {
		return content
	}
	return string(r[:previewLen]) + "..."
}
