package llm

import (
	"context"
	"fmt"
	"strings"
)

// ServiceConfig represents configuration for reasoning and embedding
// providers.
type ServiceConfig struct {
	Provider           string `json:"provider" yaml:"provider"` // "openai", "gemini" or "mock"
	APIKey             string `json:"api_key" yaml:"api_key"`
	Model              string `json:"model" yaml:"model"`
	BaseURL            string `json:"base_url" yaml:"base_url"`
	EmbeddingModel     string `json:"embedding_model" yaml:"embedding_model"`
	EmbeddingDimension int    `json:"embedding_dimension" yaml:"embedding_dimension"`
}

// NewChatService creates a chat service based on configuration
func NewChatService(config ServiceConfig) (ChatService, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		service := NewOpenAIChatService(config.APIKey, config.Model)
		if config.BaseURL != "" {
			service.baseURL = config.BaseURL
		}
		return service, nil
	case "gemini":
		return NewGeminiChatService(config.APIKey, config.Model)
	case "mock":
		// Only use mock for testing
		return NewScriptedChatService(), nil
	default:
		return nil, fmt.Errorf("unsupported chat provider: %s", config.Provider)
	}
}

// NewEmbeddingService creates an embedding service based on configuration
func NewEmbeddingService(config ServiceConfig) (EmbeddingService, error) {
	switch strings.ToLower(config.Provider) {
	case "openai", "gemini":
		// Embeddings go through the OpenAI API regardless of the chat
		// provider; Gemini deployments set base_url to a compatible proxy.
		service := NewOpenAIEmbeddingService(config.APIKey, config.EmbeddingModel, config.EmbeddingDimension)
		if config.BaseURL != "" {
			service.baseURL = config.BaseURL
		}
		return service, nil
	case "mock":
		return NewLocalEmbeddingService(config.EmbeddingDimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", config.Provider)
	}
}

// ScriptedChatService is a ChatService for tests: it replays queued
// responses in order and falls back to a canned reply when the queue is
// empty.
type ScriptedChatService struct {
	queue    []*ChatResponse
	Requests []*ChatRequest
	Fallback string
}

// NewScriptedChatService creates a scripted chat service with a generic
// fallback reply.
func NewScriptedChatService(responses ...*ChatResponse) *ScriptedChatService {
	return &ScriptedChatService{
		queue:    responses,
		Fallback: "Okay!",
	}
}

// Enqueue appends a scripted response.
func (s *ScriptedChatService) Enqueue(resp *ChatResponse) {
	s.queue = append(s.queue, resp)
}

// Complete replays the next scripted response.
func (s *ScriptedChatService) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	s.Requests = append(s.Requests, req)
	if len(s.queue) == 0 {
		return &ChatResponse{Text: s.Fallback}, nil
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	return next, nil
}

// Stream replays the next scripted response as a single fragment.
func (s *ScriptedChatService) Stream(ctx context.Context, req *ChatRequest, fn func(chunk string) error) error {
	resp, err := s.Complete(ctx, req)
	if err != nil {
		return err
	}
	return fn(resp.Text)
}
