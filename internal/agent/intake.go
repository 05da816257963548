package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/joylabs/joy-agent/internal/backend"
	"github.com/joylabs/joy-agent/internal/llm"
	"github.com/joylabs/joy-agent/internal/prompt"
	"github.com/joylabs/joy-agent/internal/session"
)

// maxToolRounds bounds the dispatch loop so a provider that keeps asking
// for tools cannot spin the turn forever.
const maxToolRounds = 8

var dobLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"2 January 2006",
}

// IntakeAgent runs the first-contact flow for new users: it collects the
// child's name, date of birth, city and interests through tool calls, saves
// the profile to the backend and then hands off to the assistant flow.
type IntakeAgent struct {
	data    *session.Data
	chat    llm.ChatService
	backend *backend.Client
	logger  *zap.Logger

	handoff bool
}

// NewIntakeAgent creates a new intake agent for one participant session.
func NewIntakeAgent(data *session.Data, chat llm.ChatService, backendClient *backend.Client, logger *zap.Logger) *IntakeAgent {
	return &IntakeAgent{
		data:    data,
		chat:    chat,
		backend: backendClient,
		logger:  logger,
	}
}

// HandoffRequested reports whether the transfer_to_assistant tool has run.
func (a *IntakeAgent) HandoffRequested() bool {
	return a.handoff
}

// Greet produces the opening line of the intake flow.
func (a *IntakeAgent) Greet(ctx context.Context) (string, error) {
	resp, err := a.chat.Complete(ctx, &llm.ChatRequest{
		System:   prompt.IntakeInstructions + "\n\n" + prompt.IntakeGreetingInstructions,
		Messages: historyMessages(a.data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate greeting: %w", err)
	}
	a.data.AppendTurn(session.AssistantRole, resp.Text)
	return resp.Text, nil
}

// OnUserTurn records the user's words, runs the tool-dispatch loop and
// returns the reply to speak.
func (a *IntakeAgent) OnUserTurn(ctx context.Context, text string) (string, error) {
	a.data.AppendTurn(session.UserRole, text)

	reply, err := runToolLoop(ctx, a.chat, a.logger, &llm.ChatRequest{
		System:   prompt.IntakeInstructions,
		Messages: historyMessages(a.data),
		Tools:    toolSchemas(a.tools()),
	}, a.tools())
	if err != nil {
		return "", err
	}

	a.data.AppendTurn(session.AssistantRole, reply)
	return reply, nil
}

func (a *IntakeAgent) tools() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "record_name",
			Description: "Record the child's name once they share it.",
			Parameters:  stringParam("name", "The child's first name"),
			Run:         a.recordName,
		},
		{
			Name:        "calculate_and_record_age",
			Description: "Record the child's date of birth in yyyy-mm-dd format and compute their age.",
			Parameters:  stringParam("dob", "Date of birth in yyyy-mm-dd format"),
			Run:         a.calculateAndRecordAge,
		},
		{
			Name:        "record_city",
			Description: "Record the city the child lives in.",
			Parameters:  stringParam("city", "The child's city"),
			Run:         a.recordCity,
		},
		{
			Name:        "get_fun_fact",
			Description: "Look up a short, kid-friendly fun fact about a city.",
			Parameters:  stringParam("city", "The city to find a fun fact about"),
			Run:         a.getFunFact,
		},
		{
			Name:        "record_interests",
			Description: "Record the child's interests once at least three are collected.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"interests": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "The child's interests",
					},
				},
				"required": []string{"interests"},
			},
			Run: a.recordInterests,
		},
		{
			Name:        "create_user",
			Description: "Save the collected profile to the backend. Call only after all details are recorded.",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
			Run:         a.createUser,
		},
		{
			Name:        "transfer_to_assistant",
			Description: "End the intake conversation and hand the child over to their companion.",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
			Run:         a.transferToAssistant,
		},
	}
}

func (a *IntakeAgent) recordName(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("invalid record_name arguments: %w", err)
	}
	if params.Name == "" {
		return "I didn't catch the name. Please ask again.", nil
	}

	a.data.Name = params.Name
	a.logger.Info("Recorded name", zap.String("device_id", a.data.DeviceID))
	return fmt.Sprintf("Recorded the name %s.", params.Name), nil
}

func (a *IntakeAgent) calculateAndRecordAge(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		DOB string `json:"dob"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("invalid calculate_and_record_age arguments: %w", err)
	}

	birth, err := parseDOB(params.DOB)
	if err != nil {
		// Recoverable: the provider should re-ask rather than fail the turn.
		return "That date didn't look right. Please ask for the date of birth again.", nil
	}

	age := AgeOn(birth, time.Now())
	a.data.DOB = birth.Format("2006-01-02")
	a.data.Age = age
	a.logger.Info("Recorded date of birth",
		zap.String("device_id", a.data.DeviceID),
		zap.Int("age", age))
	return fmt.Sprintf("Recorded the date of birth. The child is %d years old.", age), nil
}

func (a *IntakeAgent) recordCity(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		City string `json:"city"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("invalid record_city arguments: %w", err)
	}
	if params.City == "" {
		return "I didn't catch the city. Please ask again.", nil
	}

	a.data.City = params.City
	a.logger.Info("Recorded city", zap.String("device_id", a.data.DeviceID))
	return fmt.Sprintf("Recorded the city %s.", params.City), nil
}

func (a *IntakeAgent) getFunFact(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		City string `json:"city"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("invalid get_fun_fact arguments: %w", err)
	}
	city := params.City
	if city == "" {
		city = a.data.City
	}
	if city == "" {
		return "No city recorded yet. Ask for the city first.", nil
	}

	var fact strings.Builder
	err := a.chat.Stream(ctx, &llm.ChatRequest{
		Messages: []llm.ChatMessage{{
			Role:    "user",
			Content: fmt.Sprintf("Share one short, kid-friendly fun fact about %s. One sentence only.", city),
		}},
	}, func(chunk string) error {
		fact.WriteString(chunk)
		return nil
	})
	if err != nil {
		a.logger.Warn("Fun fact lookup failed", zap.String("city", city), zap.Error(err))
		return fmt.Sprintf("Couldn't find a fun fact about %s right now. Carry on without one.", city), nil
	}
	return fact.String(), nil
}

func (a *IntakeAgent) recordInterests(ctx context.Context, args json.RawMessage) (string, error) {
	var params struct {
		Interests []string `json:"interests"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return "", fmt.Errorf("invalid record_interests arguments: %w", err)
	}
	if len(params.Interests) == 0 {
		return "No interests given. Please ask again.", nil
	}

	a.data.Interests = params.Interests
	a.logger.Info("Recorded interests",
		zap.String("device_id", a.data.DeviceID),
		zap.Int("count", len(params.Interests)))
	return fmt.Sprintf("Recorded interests: %s.", strings.Join(params.Interests, ", ")), nil
}

func (a *IntakeAgent) createUser(ctx context.Context, args json.RawMessage) (string, error) {
	payload := &backend.UserPayload{
		DeviceID:  a.data.DeviceID,
		Name:      a.data.Name,
		Age:       a.data.Age,
		City:      a.data.City,
		Birthday:  a.data.DOB,
		Interests: a.data.Interests,
	}

	if err := a.backend.SaveUserData(ctx, payload); err != nil {
		// Collected fields stay in the session so a retry can succeed.
		a.logger.Error("Failed to save user profile",
			zap.String("device_id", a.data.DeviceID),
			zap.Error(err))
		return "Saving the profile failed. Apologize and try again in a moment.", nil
	}

	return "Profile saved.", nil
}

func (a *IntakeAgent) transferToAssistant(ctx context.Context, args json.RawMessage) (string, error) {
	a.handoff = true
	a.logger.Info("Hand-off to assistant requested", zap.String("device_id", a.data.DeviceID))
	return "Say a warm goodbye and let them know their new friend is ready to chat.", nil
}

// AgeOn computes full calendar years between birth and today. The birthday
// itself counts toward the new age.
func AgeOn(birth, today time.Time) int {
	years := today.Year() - birth.Year()
	if birth.AddDate(years, 0, 0).After(today) {
		years--
	}
	return years
}

func parseDOB(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range dobLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date of birth: %q", raw)
}
