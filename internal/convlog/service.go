package convlog

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/joylabs/joy-agent/internal/llm"
	"github.com/joylabs/joy-agent/internal/session"
)

// ConversationServiceImpl implements the ConversationService interface
type ConversationServiceImpl struct {
	store     ConversationStore
	embedding llm.EmbeddingService
	logger    *zap.Logger

	matchThreshold float64
	matchCount     int
}

// NewService creates a new conversation service instance
func NewService(store ConversationStore, embedding llm.EmbeddingService, matchThreshold float64, matchCount int, logger *zap.Logger) *ConversationServiceImpl {
	return &ConversationServiceImpl{
		store:          store,
		embedding:      embedding,
		logger:         logger,
		matchThreshold: matchThreshold,
		matchCount:     matchCount,
	}
}

// LogConversation persists a transcript row for a child. The embedding
// is generated from the content; if generation fails the row is still
// written without a vector so the transcript survives.
func (s *ConversationServiceImpl) LogConversation(ctx context.Context, childID, role, content string, messages []session.Message) error {
	if content == "" {
		return fmt.Errorf("content cannot be empty")
	}

	log := &ConversationLog{
		ChildID:  childID,
		Role:     role,
		Content:  content,
		Messages: messages,
	}

	embedding, err := s.embedding.GenerateEmbedding(ctx, content)
	if err != nil {
		s.logger.Warn("Failed to generate embedding, storing log without vector",
			zap.String("child_id", childID),
			zap.Error(err))
	} else {
		log.Embedding = embedding
	}

	if err := s.store.InsertLog(ctx, log); err != nil {
		return fmt.Errorf("failed to log conversation: %w", err)
	}

	s.logger.Info("Logged conversation",
		zap.String("child_id", childID),
		zap.String("role", role),
		zap.Int("content_length", len(content)))
	return nil
}

// RetrieveContext embeds the query, finds similar past conversations and
// formats them as one snippet per line for prompt injection.
func (s *ConversationServiceImpl) RetrieveContext(ctx context.Context, childID, query string) (string, error) {
	embedding, err := s.embedding.GenerateEmbedding(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := s.store.MatchConversations(ctx, childID, embedding, s.matchThreshold, s.matchCount)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}

	lines := lo.Map(matches, func(m Match, _ int) string {
		return fmt.Sprintf("- %s: %s", m.Role, m.Content)
	})
	return strings.Join(lines, "\n"), nil
}
