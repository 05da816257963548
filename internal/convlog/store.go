package convlog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ConversationLogSchema represents the conversation_logs table schema in
// PostgreSQL. Embedding is a pgvector column; it is written as a vector
// literal and left null when no embedding was generated.
type ConversationLogSchema struct {
	bun.BaseModel `bun:"table:conversation_logs,alias:cl"`

	UUID      uuid.UUID       `bun:"uuid,pk,type:uuid,default:gen_random_uuid()" json:"uuid"`
	ChildID   string          `bun:"child_id,notnull" json:"child_id"`
	Role      string          `bun:"role,notnull" json:"role"`
	Content   string          `bun:"content,notnull" json:"content"`
	Embedding *string         `bun:"embedding,type:vector" json:"embedding,omitempty"`
	Messages  json.RawMessage `bun:"messages,type:jsonb" json:"messages,omitempty"`
	CreatedAt time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// PostgresConversationStore implements the ConversationStore interface
type PostgresConversationStore struct {
	db *bun.DB
}

// NewPostgresStore creates a new conversation store instance
func NewPostgresStore(db *bun.DB) *PostgresConversationStore {
	return &PostgresConversationStore{
		db: db,
	}
}

// InsertLog writes one conversation log row.
func (s *PostgresConversationStore) InsertLog(ctx context.Context, log *ConversationLog) error {
	if log.ChildID == "" {
		return fmt.Errorf("childID cannot be empty")
	}

	schema := &ConversationLogSchema{
		UUID:    log.UUID,
		ChildID: log.ChildID,
		Role:    log.Role,
		Content: log.Content,
	}
	if schema.UUID == uuid.Nil {
		schema.UUID = uuid.New()
	}
	if len(log.Embedding) > 0 {
		literal := vectorLiteral(log.Embedding)
		schema.Embedding = &literal
	}
	if len(log.Messages) > 0 {
		raw, err := json.Marshal(log.Messages)
		if err != nil {
			return fmt.Errorf("failed to marshal messages: %w", err)
		}
		schema.Messages = raw
	}

	_, err := s.db.NewInsert().
		Model(schema).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert conversation log: %w", err)
	}

	return nil
}

// MatchConversations calls the match_conversations SQL function, which
// runs a cosine similarity search over the embedding column.
func (s *PostgresConversationStore) MatchConversations(ctx context.Context, childID string, embedding []float32, threshold float64, count int) ([]Match, error) {
	if childID == "" {
		return nil, fmt.Errorf("childID cannot be empty")
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embedding cannot be empty")
	}

	var matches []Match
	err := s.db.NewRaw(
		"SELECT role, content, similarity FROM match_conversations(?::vector, ?, ?, ?)",
		vectorLiteral(embedding), childID, threshold, count,
	).Scan(ctx, &matches)
	if err != nil {
		return nil, fmt.Errorf("failed to match conversations: %w", err)
	}

	return matches, nil
}

func vectorLiteral(embedding []float32) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
