package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joylabs/joy-agent/internal/llm"
)

// ToolDefinition binds a tool schema to its handler. Run receives the raw
// JSON arguments from the provider and returns the tool result text that is
// fed back into the dialogue.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
	Run         func(ctx context.Context, args json.RawMessage) (string, error)
}

func toolSchemas(tools []ToolDefinition) []llm.ToolSchema {
	schemas := make([]llm.ToolSchema, len(tools))
	for i, tool := range tools {
		schemas[i] = llm.ToolSchema{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  tool.Parameters,
		}
	}
	return schemas
}

func dispatchTool(ctx context.Context, tools []ToolDefinition, call llm.ToolCall) (string, error) {
	for _, tool := range tools {
		if tool.Name == call.Name {
			return tool.Run(ctx, call.Arguments)
		}
	}
	return "", fmt.Errorf("unknown tool: %s", call.Name)
}

func stringParam(name, description string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			name: map[string]any{
				"type":        "string",
				"description": description,
			},
		},
		"required": []string{name},
	}
}
