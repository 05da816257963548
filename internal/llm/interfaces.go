package llm

import (
	"context"
	"encoding/json"
)

// ToolSchema describes a callable tool advertised to the reasoning provider.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolCall is a provider-decided invocation of a named tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ChatMessage is one item of provider chat history. Tool-call items carry
// ToolCalls (assistant side) or ToolCallID/Name (tool result side).
type ChatMessage struct {
	Role       string     `json:"role"` // "system", "user", "assistant" or "tool"
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ChatRequest is a single reasoning call. Tools may be empty for plain
// conversational turns.
type ChatRequest struct {
	System   string
	Messages []ChatMessage
	Tools    []ToolSchema
}

// ChatResponse carries either a text reply, tool calls, or both.
type ChatResponse struct {
	Text      string
	ToolCalls []ToolCall
}

// ChatService defines the interface for reasoning providers. Calls are
// fire-and-await: no internal retry, no timeout beyond the context.
type ChatService interface {
	Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	// Stream delivers the reply as text fragments through fn. Providers
	// that tool-call during a stream surface the calls via Complete only.
	Stream(ctx context.Context, req *ChatRequest, fn func(chunk string) error) error
}

// EmbeddingService defines the interface for embedding generation services
type EmbeddingService interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GetDimension() int
}
