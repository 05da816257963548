package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// OpenAIEmbeddingService implements EmbeddingService using OpenAI's API
type OpenAIEmbeddingService struct {
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
	baseURL    string
}

type openAIEmbeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
	Dimensions     int      `json:"dimensions,omitempty"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
}

// NewOpenAIEmbeddingService creates a new OpenAI embedding service
func NewOpenAIEmbeddingService(apiKey, model string, dimension int) *OpenAIEmbeddingService {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	if dimension <= 0 {
		dimension = 1536
	}

	return &OpenAIEmbeddingService{
		apiKey:    apiKey,
		model:     model,
		dimension: dimension,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: "https://api.openai.com/v1",
	}
}

// GenerateEmbedding generates an embedding for a single text
func (s *OpenAIEmbeddingService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if s.apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}

	request := openAIEmbeddingRequest{
		Input:          []string{text},
		Model:          s.model,
		EncodingFormat: "float",
	}

	// Only the v3 models accept an explicit dimension
	if strings.HasPrefix(s.model, "text-embedding-3") {
		request.Dimensions = s.dimension
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/embeddings", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response openAIEmbeddingResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if len(response.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	if len(response.Data[0].Embedding) != s.dimension {
		return nil, fmt.Errorf("expected embedding dimension %d, got %d", s.dimension, len(response.Data[0].Embedding))
	}

	return response.Data[0].Embedding, nil
}

// GetDimension returns the dimension of embeddings produced by this service
func (s *OpenAIEmbeddingService) GetDimension() int {
	return s.dimension
}

// LocalEmbeddingService is a deterministic implementation for tests and
// development without a provider key.
type LocalEmbeddingService struct {
	dimension int
}

// NewLocalEmbeddingService creates a new local embedding service
func NewLocalEmbeddingService(dimension int) *LocalEmbeddingService {
	if dimension <= 0 {
		dimension = 384
	}
	return &LocalEmbeddingService{
		dimension: dimension,
	}
}

// GenerateEmbedding generates a deterministic pseudo-random embedding based
// on the text content.
func (s *LocalEmbeddingService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	embedding := make([]float32, s.dimension)
	hash := simpleHash(text)

	for i := 0; i < s.dimension; i++ {
		hash = (hash*1103515245 + 12345) & 0x7fffffff
		embedding[i] = float32(hash%2000-1000) / 1000.0
	}

	// Normalize the vector
	var norm float32
	for _, val := range embedding {
		norm += val * val
	}
	norm = float32(1.0 / (float64(norm) + 1e-8))

	for i := range embedding {
		embedding[i] *= norm
	}

	return embedding, nil
}

// GetDimension returns the dimension of embeddings produced by this service
func (s *LocalEmbeddingService) GetDimension() int {
	return s.dimension
}

func simpleHash(text string) uint32 {
	var hash uint32 = 5381
	for _, char := range text {
		hash = ((hash << 5) + hash) + uint32(char)
	}
	return hash
}
