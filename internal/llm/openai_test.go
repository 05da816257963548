package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChatService(serverURL string) *OpenAIChatService {
	service := NewOpenAIChatService("test-key", "gpt-4o-mini")
	service.baseURL = serverURL
	return service
}

func TestOpenAIComplete(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Hello there!"},"finish_reason":"stop"}]}`)
	}))
	defer server.Close()

	service := newTestChatService(server.URL)
	resp, err := service.Complete(context.Background(), &ChatRequest{
		System:   "Be brief.",
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", resp.Text)
	assert.Empty(t, resp.ToolCalls)

	// System prompt goes in as the first message.
	messages := gotBody["messages"].([]any)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "Be brief.", first["content"])
}

func TestOpenAICompleteToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"","tool_calls":[
			{"id":"call-1","type":"function","function":{"name":"record_name","arguments":"{\"name\":\"Mia\"}"}}
		]},"finish_reason":"tool_calls"}]}`)
	}))
	defer server.Close()

	service := newTestChatService(server.URL)
	resp, err := service.Complete(context.Background(), &ChatRequest{
		Messages: []ChatMessage{{Role: "user", Content: "I'm Mia"}},
		Tools:    []ToolSchema{{Name: "record_name", Parameters: map[string]any{"type": "object"}}},
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call-1", resp.ToolCalls[0].ID)
	assert.Equal(t, "record_name", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"name":"Mia"}`, string(resp.ToolCalls[0].Arguments))
}

func TestOpenAICompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	service := newTestChatService(server.URL)
	_, err := service.Complete(context.Background(), &ChatRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestOpenAIStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo!\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	service := newTestChatService(server.URL)
	var got string
	err := service.Stream(context.Background(), &ChatRequest{
		Messages: []ChatMessage{{Role: "user", Content: "hi"}},
	}, func(chunk string) error {
		got += chunk
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", got)
}

func TestBuildRequestToolProtocol(t *testing.T) {
	service := NewOpenAIChatService("test-key", "gpt-4o-mini")
	req := service.buildRequest(&ChatRequest{
		Messages: []ChatMessage{
			{Role: "user", Content: "I'm Mia"},
			{Role: "assistant", ToolCalls: []ToolCall{{ID: "call-1", Name: "record_name", Arguments: json.RawMessage(`{"name":"Mia"}`)}}},
			{Role: "tool", Content: "Recorded the name Mia.", ToolCallID: "call-1", Name: "record_name"},
		},
	}, false)

	require.Len(t, req.Messages, 3)
	assistant := req.Messages[1]
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "function", assistant.ToolCalls[0].Type)
	assert.Equal(t, "record_name", assistant.ToolCalls[0].Function.Name)

	result := req.Messages[2]
	assert.Equal(t, "tool", result.Role)
	assert.Equal(t, "call-1", result.ToolCallID)
}
