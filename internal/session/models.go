package session

import (
	"encoding/json"
	"fmt"
	"strings"
)

type RoleType string

const (
	NoRole        RoleType = "norole"
	SystemRole    RoleType = "system"
	AssistantRole RoleType = "assistant"
	UserRole      RoleType = "user"
)

var validRoleTypes = map[string]RoleType{
	string(NoRole):        NoRole,
	string(SystemRole):    SystemRole,
	string(AssistantRole): AssistantRole,
	string(UserRole):      UserRole,
}

func (rt *RoleType) UnmarshalJSON(b []byte) error {
	str := strings.Trim(string(b), "\"")

	if str == "" {
		*rt = NoRole
		return nil
	}

	value, ok := validRoleTypes[str]
	if !ok {
		return fmt.Errorf("invalid RoleType: %v", str)
	}

	*rt = value
	return nil
}

func (rt RoleType) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", rt)), nil
}

// Message is a single turn in a participant's conversation.
type Message struct {
	Role    RoleType `json:"role"`
	Content string   `json:"content"`
}

// Data holds the mutable per-connection state for one participant.
// Exactly one dialogue flow owns it at a time; ownership transfers at
// hand-off, so there is no concurrency control here.
type Data struct {
	// DeviceID is the participant identity from the realtime transport
	DeviceID string `json:"device_id"`
	// IsNewUser is set once at session start and never mutated after
	IsNewUser bool `json:"is_new_user"`

	// Profile fields collected incrementally by the intake flow
	Name      string   `json:"name,omitempty"`
	DOB       string   `json:"dob,omitempty"`
	Age       int      `json:"age,omitempty"`
	City      string   `json:"city,omitempty"`
	Interests []string `json:"interests,omitempty"`

	// ChatHistory accumulates turns from both flows and is cleared after
	// session-end persistence
	ChatHistory []Message `json:"chat_history,omitempty"`
}

// participantMetadata is the JSON payload attached to a participant by the
// client at connection time.
type participantMetadata struct {
	IsNewUser bool   `json:"isNewUser"`
	Name      string `json:"name,omitempty"`
}

// ParseMetadata builds a session record from participant connection
// metadata. Malformed JSON is a fatal per-participant error; the caller
// aborts handling for that participant.
func ParseMetadata(identity string, raw []byte) (*Data, error) {
	meta := participantMetadata{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("failed to parse metadata for participant %s: %w", identity, err)
		}
	}

	return &Data{
		DeviceID:  identity,
		IsNewUser: meta.IsNewUser,
		Name:      meta.Name,
	}, nil
}

// AppendTurn records one turn in the chat history.
func (d *Data) AppendTurn(role RoleType, content string) {
	d.ChatHistory = append(d.ChatHistory, Message{Role: role, Content: content})
}

// Transcript flattens the buffered turns into one newline-joined string of
// "role: content" lines.
func (d *Data) Transcript() string {
	lines := make([]string, len(d.ChatHistory))
	for i, msg := range d.ChatHistory {
		lines[i] = fmt.Sprintf("%s: %s", msg.Role, msg.Content)
	}
	return strings.Join(lines, "\n")
}

// ClearHistory discards all buffered turns.
func (d *Data) ClearHistory() {
	d.ChatHistory = nil
}

// LastMessage returns the most recent chat item, or nil if the history is
// empty.
func (d *Data) LastMessage() *Message {
	if len(d.ChatHistory) == 0 {
		return nil
	}
	return &d.ChatHistory[len(d.ChatHistory)-1]
}
