package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joylabs/joy-agent/internal/llm"
	"github.com/joylabs/joy-agent/internal/session"
)

type fakeConversation struct {
	loggedContent []string
	recalled      string
	failLog       bool
	failRetrieve  bool
}

func (f *fakeConversation) LogConversation(ctx context.Context, childID, role, content string, messages []session.Message) error {
	if f.failLog {
		return fmt.Errorf("log failed")
	}
	f.loggedContent = append(f.loggedContent, content)
	return nil
}

func (f *fakeConversation) RetrieveContext(ctx context.Context, childID, query string) (string, error) {
	if f.failRetrieve {
		return "", fmt.Errorf("retrieve failed")
	}
	return f.recalled, nil
}

func newTestAssistant(chat llm.ChatService, conv *fakeConversation, retrieval bool) (*AssistantAgent, *session.Data) {
	data := &session.Data{DeviceID: "device-1"}
	agent := NewAssistantAgent(data, chat, conv, "You are JOY.", 300, retrieval, zap.NewNop())
	return agent, data
}

func TestOnConversationItemIgnoresNonUser(t *testing.T) {
	chat := llm.NewScriptedChatService()
	agent, data := newTestAssistant(chat, &fakeConversation{}, false)

	reply, err := agent.OnConversationItem(context.Background(), session.Message{
		Role:    session.AssistantRole,
		Content: "talking to myself",
	})
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Empty(t, chat.Requests)
	assert.Empty(t, data.ChatHistory)
}

func TestOnConversationItemUserTurn(t *testing.T) {
	chat := llm.NewScriptedChatService(&llm.ChatResponse{Text: "Dinosaurs are awesome!"})
	agent, data := newTestAssistant(chat, &fakeConversation{}, false)

	reply, err := agent.OnConversationItem(context.Background(), session.Message{
		Role:    session.UserRole,
		Content: "tell me about dinosaurs",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dinosaurs are awesome!", reply)

	require.Len(t, chat.Requests, 1)
	assert.Equal(t, "You are JOY.", chat.Requests[0].System)

	require.Len(t, data.ChatHistory, 2)
	assert.Equal(t, session.UserRole, data.ChatHistory[0].Role)
	assert.Equal(t, session.AssistantRole, data.ChatHistory[1].Role)
}

func TestRetrievalInjectedBeforeLatestTurn(t *testing.T) {
	chat := llm.NewScriptedChatService(&llm.ChatResponse{Text: "Yes, you told me!"})
	conv := &fakeConversation{recalled: "- user: I like dinosaurs"}
	agent, _ := newTestAssistant(chat, conv, true)

	_, err := agent.OnConversationItem(context.Background(), session.Message{
		Role:    session.UserRole,
		Content: "do you remember what I like?",
	})
	require.NoError(t, err)

	messages := chat.Requests[0].Messages
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].Role)
	assert.Contains(t, messages[0].Content, "I like dinosaurs")
	assert.Equal(t, "user", messages[1].Role)
}

func TestRetrievalFailureDegradesToPlainTurn(t *testing.T) {
	chat := llm.NewScriptedChatService(&llm.ChatResponse{Text: "Okay!"})
	agent, _ := newTestAssistant(chat, &fakeConversation{failRetrieve: true}, true)

	reply, err := agent.OnConversationItem(context.Background(), session.Message{
		Role:    session.UserRole,
		Content: "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "Okay!", reply)
	require.Len(t, chat.Requests[0].Messages, 1)
}

func TestOnSessionEndFlushThreshold(t *testing.T) {
	// Transcript renders as "user: <content>", a 6 character prefix.
	t.Run("AtThresholdDiscards", func(t *testing.T) {
		conv := &fakeConversation{}
		agent, data := newTestAssistant(llm.NewScriptedChatService(), conv, false)
		data.AppendTurn(session.UserRole, strings.Repeat("a", 294))
		require.Len(t, data.Transcript(), 300)

		require.NoError(t, agent.OnSessionEnd(context.Background()))
		assert.Empty(t, conv.loggedContent)
		assert.Empty(t, data.ChatHistory)
	})

	t.Run("AboveThresholdFlushes", func(t *testing.T) {
		conv := &fakeConversation{}
		agent, data := newTestAssistant(llm.NewScriptedChatService(), conv, false)
		data.AppendTurn(session.UserRole, strings.Repeat("a", 295))
		require.Len(t, data.Transcript(), 301)

		require.NoError(t, agent.OnSessionEnd(context.Background()))
		require.Len(t, conv.loggedContent, 1)
		assert.True(t, strings.HasPrefix(conv.loggedContent[0], "user: "))
		assert.Empty(t, data.ChatHistory)
	})

	t.Run("FlushFailureStillClears", func(t *testing.T) {
		conv := &fakeConversation{failLog: true}
		agent, data := newTestAssistant(llm.NewScriptedChatService(), conv, false)
		data.AppendTurn(session.UserRole, strings.Repeat("a", 500))

		require.Error(t, agent.OnSessionEnd(context.Background()))
		assert.Empty(t, data.ChatHistory)
	})
}

func TestEmptySystemPromptFallsBack(t *testing.T) {
	data := &session.Data{DeviceID: "device-1"}
	agent := NewAssistantAgent(data, llm.NewScriptedChatService(), &fakeConversation{}, "", 300, false, zap.NewNop())
	assert.NotEmpty(t, agent.systemPrompt)
}
