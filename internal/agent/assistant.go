package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/joylabs/joy-agent/internal/convlog"
	"github.com/joylabs/joy-agent/internal/llm"
	"github.com/joylabs/joy-agent/internal/prompt"
	"github.com/joylabs/joy-agent/internal/session"
)

// AssistantAgent runs the open conversation flow. Its system prompt is
// assembled once per session from whatever profile fragments were
// available; dialogue memory accumulates in the session and is flushed to
// conversation storage at session end.
type AssistantAgent struct {
	data         *session.Data
	chat         llm.ChatService
	conversation convlog.ConversationService
	logger       *zap.Logger

	systemPrompt   string
	flushThreshold int
	retrieval      bool
}

// NewAssistantAgent creates a new assistant agent for one participant
// session. Retrieval of past conversations is optional and off by default.
func NewAssistantAgent(data *session.Data, chat llm.ChatService, conversation convlog.ConversationService, systemPrompt string, flushThreshold int, retrieval bool, logger *zap.Logger) *AssistantAgent {
	if systemPrompt == "" {
		systemPrompt = prompt.GenericPersona
	}
	return &AssistantAgent{
		data:           data,
		chat:           chat,
		conversation:   conversation,
		logger:         logger,
		systemPrompt:   systemPrompt,
		flushThreshold: flushThreshold,
		retrieval:      retrieval,
	}
}

// Greet produces the opening line of the assistant flow.
func (a *AssistantAgent) Greet(ctx context.Context) (string, error) {
	resp, err := a.chat.Complete(ctx, &llm.ChatRequest{
		System:   a.systemPrompt + "\n\n" + prompt.AssistantGreetingInstructions,
		Messages: historyMessages(a.data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate greeting: %w", err)
	}
	a.data.AppendTurn(session.AssistantRole, resp.Text)
	return resp.Text, nil
}

// OnConversationItem handles one incoming dialogue item. Only user turns
// produce a reply; anything else is ignored.
func (a *AssistantAgent) OnConversationItem(ctx context.Context, msg session.Message) (string, error) {
	if msg.Role != session.UserRole {
		return "", nil
	}
	return a.onUserTurn(ctx, msg.Content)
}

func (a *AssistantAgent) onUserTurn(ctx context.Context, text string) (string, error) {
	a.data.AppendTurn(session.UserRole, text)

	messages := historyMessages(a.data)
	if a.retrieval {
		recalled, err := a.conversation.RetrieveContext(ctx, a.data.DeviceID, text)
		if err != nil {
			a.logger.Warn("Context retrieval failed",
				zap.String("device_id", a.data.DeviceID),
				zap.Error(err))
		} else if recalled != "" {
			// Injected just before the latest user turn so the provider
			// treats it as background, not as something the child said.
			last := messages[len(messages)-1]
			messages = append(messages[:len(messages)-1], llm.ChatMessage{
				Role:    "system",
				Content: "Relevant things you remember from past conversations:\n" + recalled,
			}, last)
		}
	}

	resp, err := a.chat.Complete(ctx, &llm.ChatRequest{
		System:   a.systemPrompt,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("reasoning call failed: %w", err)
	}

	a.data.AppendTurn(session.AssistantRole, resp.Text)
	return resp.Text, nil
}

// OnSessionEnd flushes the transcript to conversation storage when it is
// substantial enough, then clears the buffered history either way.
func (a *AssistantAgent) OnSessionEnd(ctx context.Context) error {
	defer a.data.ClearHistory()

	transcript := a.data.Transcript()
	if len(transcript) <= a.flushThreshold {
		a.logger.Debug("Transcript below flush threshold, discarding",
			zap.String("device_id", a.data.DeviceID),
			zap.Int("length", len(transcript)))
		return nil
	}

	err := a.conversation.LogConversation(ctx, a.data.DeviceID, convlog.RoleConversationHistory, transcript, a.data.ChatHistory)
	if err != nil {
		return fmt.Errorf("failed to flush session transcript: %w", err)
	}
	return nil
}
