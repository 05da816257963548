package convlog

import (
	"time"

	"github.com/google/uuid"

	"github.com/joylabs/joy-agent/internal/session"
)

// RoleConversationHistory tags whole-session transcripts persisted at
// session end, as opposed to single message turns.
const RoleConversationHistory = "conversation_history"

// ConversationLog represents one row of the conversation_logs table.
type ConversationLog struct {
	UUID      uuid.UUID         `json:"uuid"`
	ChildID   string            `json:"child_id"`
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Embedding []float32         `json:"embedding,omitempty"`
	Messages  []session.Message `json:"messages,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Match is one similarity search hit from match_conversations.
type Match struct {
	Role       string  `json:"role"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}
