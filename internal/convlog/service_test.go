package convlog

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joylabs/joy-agent/internal/session"
)

type fakeConversationStore struct {
	inserted []*ConversationLog
	matches  []Match
	failNext bool

	gotThreshold float64
	gotCount     int
}

func (f *fakeConversationStore) InsertLog(ctx context.Context, log *ConversationLog) error {
	if f.failNext {
		f.failNext = false
		return fmt.Errorf("insert failed")
	}
	f.inserted = append(f.inserted, log)
	return nil
}

func (f *fakeConversationStore) MatchConversations(ctx context.Context, childID string, embedding []float32, threshold float64, count int) ([]Match, error) {
	if f.failNext {
		f.failNext = false
		return nil, fmt.Errorf("match failed")
	}
	f.gotThreshold = threshold
	f.gotCount = count
	return f.matches, nil
}

type fakeEmbedder struct {
	fail bool
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, fmt.Errorf("embedding provider down")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) GetDimension() int { return 3 }

func TestLogConversation(t *testing.T) {
	ctx := context.Background()
	store := &fakeConversationStore{}
	svc := NewService(store, &fakeEmbedder{}, 0.78, 5, zap.NewNop())

	messages := []session.Message{
		{Role: session.UserRole, Content: "hi"},
		{Role: session.AssistantRole, Content: "hello there"},
	}
	err := svc.LogConversation(ctx, "child-1", RoleConversationHistory, "user: hi\nassistant: hello there", messages)
	require.NoError(t, err)

	require.Len(t, store.inserted, 1)
	log := store.inserted[0]
	assert.Equal(t, "child-1", log.ChildID)
	assert.Equal(t, RoleConversationHistory, log.Role)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, log.Embedding)
	assert.Len(t, log.Messages, 2)
}

func TestLogConversationEmbeddingFailureStillWrites(t *testing.T) {
	ctx := context.Background()
	store := &fakeConversationStore{}
	svc := NewService(store, &fakeEmbedder{fail: true}, 0.78, 5, zap.NewNop())

	err := svc.LogConversation(ctx, "child-1", RoleConversationHistory, "user: hi", nil)
	require.NoError(t, err)

	require.Len(t, store.inserted, 1)
	assert.Nil(t, store.inserted[0].Embedding)
}

func TestLogConversationEmptyContent(t *testing.T) {
	svc := NewService(&fakeConversationStore{}, &fakeEmbedder{}, 0.78, 5, zap.NewNop())
	require.Error(t, svc.LogConversation(context.Background(), "child-1", RoleConversationHistory, "", nil))
}

func TestRetrieveContext(t *testing.T) {
	ctx := context.Background()
	store := &fakeConversationStore{matches: []Match{
		{Role: "user", Content: "I like dinosaurs", Similarity: 0.91},
		{Role: "assistant", Content: "T-rex is my favorite too!", Similarity: 0.85},
	}}
	svc := NewService(store, &fakeEmbedder{}, 0.78, 5, zap.NewNop())

	got, err := svc.RetrieveContext(ctx, "child-1", "tell me about dinosaurs")
	require.NoError(t, err)
	assert.Equal(t, "- user: I like dinosaurs\n- assistant: T-rex is my favorite too!", got)
	assert.Equal(t, 0.78, store.gotThreshold)
	assert.Equal(t, 5, store.gotCount)
}

func TestRetrieveContextNoMatches(t *testing.T) {
	svc := NewService(&fakeConversationStore{}, &fakeEmbedder{}, 0.78, 5, zap.NewNop())

	got, err := svc.RetrieveContext(context.Background(), "child-1", "anything")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieveContextEmbeddingFailure(t *testing.T) {
	svc := NewService(&fakeConversationStore{}, &fakeEmbedder{fail: true}, 0.78, 5, zap.NewNop())

	_, err := svc.RetrieveContext(context.Background(), "child-1", "anything")
	require.Error(t, err)
}

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[0.5,1,-0.25]", vectorLiteral([]float32{0.5, 1, -0.25}))
}
