package profile

import (
	"time"

	"github.com/google/uuid"

	"github.com/joylabs/joy-agent/internal/prompt"
)

// ChildProfile represents a child's profile row, keyed by device id.
type ChildProfile struct {
	UUID      uuid.UUID `json:"uuid"`
	DeviceID  string    `json:"device_id"`
	Name      string    `json:"name,omitempty"`
	Age       *int      `json:"age,omitempty"`
	City      string    `json:"city,omitempty"`
	Birthday  string    `json:"birthday,omitempty"`
	Interests []string  `json:"interests,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PromptFragment converts the profile row into a prompt builder fragment.
func (p *ChildProfile) PromptFragment() *prompt.Profile {
	if p == nil {
		return nil
	}
	return &prompt.Profile{
		Name:      p.Name,
		Age:       p.Age,
		City:      p.City,
		Interests: p.Interests,
	}
}

// ToyPersonality represents the toy's personality record for a child.
// Trait values are in [0, 1].
type ToyPersonality struct {
	ChildID      string    `json:"child_id"`
	Energy       float64   `json:"energy"`
	Humor        float64   `json:"humor"`
	Curiosity    float64   `json:"curiosity"`
	Empathy      float64   `json:"empathy"`
	RoleIdentity string    `json:"role_identity"`
	LastUpdated  time.Time `json:"last_updated"`
}

// DefaultPersonality is returned when no personality record exists yet.
func DefaultPersonality() *ToyPersonality {
	return &ToyPersonality{
		Energy:       0.5,
		Humor:        0.5,
		Curiosity:    0.5,
		Empathy:      0.5,
		RoleIdentity: "Best Friend",
	}
}

// PromptFragment converts the personality record into a prompt builder
// fragment.
func (p *ToyPersonality) PromptFragment() *prompt.Personality {
	if p == nil {
		return nil
	}
	return &prompt.Personality{
		Energy:    p.Energy,
		Humor:     p.Humor,
		Curiosity: p.Curiosity,
		Empathy:   p.Empathy,
		Role:      p.RoleIdentity,
	}
}

// ParentalRules represents the parental rules row for a child.
type ParentalRules struct {
	ChildID          string   `json:"child_id"`
	Bedtime          string   `json:"bedtime,omitempty"`
	RestrictedTopics []string `json:"restricted_topics,omitempty"`
}

// PromptFragment converts the rules row into a prompt builder fragment.
func (r *ParentalRules) PromptFragment() *prompt.Rules {
	if r == nil {
		return nil
	}
	return &prompt.Rules{
		Bedtime:          r.Bedtime,
		RestrictedTopics: r.RestrictedTopics,
	}
}
