package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

// GeminiChatService implements ChatService using Google's Gemini API.
type GeminiChatService struct {
	client *genai.Client
	model  string
}

// NewGeminiChatService creates a new Gemini chat service
func NewGeminiChatService(apiKey, model string) (*GeminiChatService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiChatService{
		client: client,
		model:  model,
	}, nil
}

func (s *GeminiChatService) buildContents(req *ChatRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case "assistant":
			if len(msg.ToolCalls) > 0 {
				parts := make([]*genai.Part, 0, len(msg.ToolCalls))
				for _, tc := range msg.ToolCalls {
					args := map[string]any{}
					_ = json.Unmarshal(tc.Arguments, &args)
					parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
						Name: tc.Name,
						Args: args,
					}})
				}
				contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
				continue
			}
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		case "tool":
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser,
				Parts: []*genai.Part{{FunctionResponse: &genai.FunctionResponse{
					Name:     msg.Name,
					Response: map[string]any{"result": msg.Content},
				}}},
			})
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return contents
}

func (s *GeminiChatService) buildConfig(req *ChatRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, tool := range req.Tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:                 tool.Name,
				Description:          tool.Description,
				ParametersJsonSchema: tool.Parameters,
			})
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return cfg
}

// Complete performs a single generation call.
func (s *GeminiChatService) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	result, err := s.client.Models.GenerateContent(ctx, s.model, s.buildContents(req), s.buildConfig(req))
	if err != nil {
		return nil, fmt.Errorf("Gemini generate failed: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates returned")
	}

	out := &ChatResponse{}
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			out.Text += part.Text
		}
		if part.FunctionCall != nil {
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return nil, fmt.Errorf("failed to encode function call args: %w", err)
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        part.FunctionCall.ID,
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
		}
	}

	return out, nil
}

// Stream performs a streaming generation call, delivering text fragments
// through fn as they arrive.
func (s *GeminiChatService) Stream(ctx context.Context, req *ChatRequest, fn func(chunk string) error) error {
	for result, err := range s.client.Models.GenerateContentStream(ctx, s.model, s.buildContents(req), s.buildConfig(req)) {
		if err != nil {
			return fmt.Errorf("Gemini stream failed: %w", err)
		}
		if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
			continue
		}
		for _, part := range result.Candidates[0].Content.Parts {
			if part.Text == "" {
				continue
			}
			if err := fn(part.Text); err != nil {
				return err
			}
		}
	}
	return nil
}
