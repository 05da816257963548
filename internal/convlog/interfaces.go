package convlog

import (
	"context"

	"github.com/joylabs/joy-agent/internal/session"
)

// ConversationStore defines the persistence interface for conversation logs
type ConversationStore interface {
	InsertLog(ctx context.Context, log *ConversationLog) error
	MatchConversations(ctx context.Context, childID string, embedding []float32, threshold float64, count int) ([]Match, error)
}

// ConversationService defines the conversation memory interface
type ConversationService interface {
	// LogConversation persists a transcript for a child. Embedding
	// generation is best-effort; the row is written either way.
	LogConversation(ctx context.Context, childID, role, content string, messages []session.Message) error
	// RetrieveContext returns past conversation snippets similar to the
	// query, formatted for prompt injection. Empty string when nothing
	// matches.
	RetrieveContext(ctx context.Context, childID, query string) (string, error)
}
