package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/joylabs/joy-agent/internal/llm"
	"github.com/joylabs/joy-agent/internal/session"
)

func historyMessages(data *session.Data) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, len(data.ChatHistory))
	for _, msg := range data.ChatHistory {
		messages = append(messages, llm.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return messages
}

// runToolLoop drives one dialogue turn: it completes against the provider,
// dispatches any requested tools, feeds the results back and repeats until
// the provider answers with plain text.
func runToolLoop(ctx context.Context, chat llm.ChatService, logger *zap.Logger, req *llm.ChatRequest, tools []ToolDefinition) (string, error) {
	for round := 0; round < maxToolRounds; round++ {
		resp, err := chat.Complete(ctx, req)
		if err != nil {
			return "", fmt.Errorf("reasoning call failed: %w", err)
		}
		if len(resp.ToolCalls) == 0 {
			return resp.Text, nil
		}

		req.Messages = append(req.Messages, llm.ChatMessage{
			Role:      "assistant",
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			result, err := dispatchTool(ctx, tools, call)
			if err != nil {
				logger.Warn("Tool dispatch failed",
					zap.String("tool", call.Name),
					zap.Error(err))
				result = fmt.Sprintf("tool %s failed: %v", call.Name, err)
			}
			req.Messages = append(req.Messages, llm.ChatMessage{
				Role:       "tool",
				Content:    result,
				ToolCallID: call.ID,
				Name:       call.Name,
			})
		}
	}
	return "", fmt.Errorf("tool loop exceeded %d rounds", maxToolRounds)
}
