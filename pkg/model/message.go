package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionID string

type MessageID string

// NewMessageID generates a new unique MessageID
func NewMessageID() MessageID {
	return MessageID(uuid.New().String())
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn in a session's append-only conversation log.
// Seq is assigned by the repository and is strictly monotonic per session.
type Message struct {
	ID        MessageID
	SessionID SessionID
	Role      Role
	Content   string
	ToolName  string // set when the content is a tool result
	Seq       int64
	CreatedAt time.Time
}
