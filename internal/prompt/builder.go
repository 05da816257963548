package prompt

import (
	"fmt"
	"strings"
)

// GenericPersona is returned when no profile, personality, rules or history
// fragments are available at all.
const GenericPersona = "You are a friendly, kind, and curious AI-powered toy. Your goal is to be an engaging and supportive companion for a child. Generate concise responses."

// Profile carries the child profile fragment. Age is a pointer so that an
// absent age can be told apart from age zero.
type Profile struct {
	Name      string
	Age       *int
	City      string
	Interests []string
}

// Personality carries the toy personality fragment. Trait values are in
// [0, 1]; values above 0.5 map to the active label.
type Personality struct {
	Energy    float64
	Humor     float64
	Curiosity float64
	Empathy   float64
	Role      string
}

// Rules carries the parental rules fragment.
type Rules struct {
	Bedtime          string
	RestrictedTopics []string
}

func traitLabel(value float64, active, passive string) string {
	if value > 0.5 {
		return active
	}
	return passive
}

// BuildAssistantPrompt assembles the assistant system prompt from whichever
// fragments are available. It is total over arbitrary partial input: any
// subset of fragments may be nil/empty and the result is always non-empty.
func BuildAssistantPrompt(profile *Profile, personality *Personality, rules *Rules, history string) string {
	if profile == nil && personality == nil && rules == nil && history == "" {
		return GenericPersona
	}

	var parts []string

	// Persona block: always present, adapts when the name is missing.
	name := "a child"
	if profile != nil && profile.Name != "" {
		name = profile.Name
	}
	parts = append(parts, fmt.Sprintf(
		"You are an AI-powered toy named JOY and a special friend for %s.\n"+
			"Your goal is to be an engaging, age-appropriate, and supportive companion. Make sure you catch the emotion of the child speaking, and use appropriate emotion in response.",
		name))

	if personality != nil {
		role := personality.Role
		if role == "" {
			role = "Best Friend"
		}
		parts = append(parts, strings.Join([]string{
			"Your current personality:",
			"- Energy Level: " + traitLabel(personality.Energy, "Hyperactive", "Calm"),
			"- Humor Style: " + traitLabel(personality.Humor, "Smart-witty", "Silly"),
			"- Curiosity: " + traitLabel(personality.Curiosity, "Endlessly curious", "Passive"),
			"- Empathy: " + traitLabel(personality.Empathy, "Proactive", "Reactive"),
			"- Role: " + role,
		}, "\n"))
	}

	if rules != nil {
		bedtime := rules.Bedtime
		if bedtime == "" {
			bedtime = "N/A"
		}
		topics := rules.RestrictedTopics
		if len(topics) == 0 {
			topics = []string{"None"}
		}
		parts = append(parts, strings.Join([]string{
			"Parental Rules (Strictly Follow):",
			fmt.Sprintf("- Bedtime is at %s. Remind them if it's close.", bedtime),
			fmt.Sprintf("- Restricted Topics: %s. Avoid these.", strings.Join(topics, ", ")),
			"- Use positive language and be a good role model.",
		}, "\n"))
	}

	// Memory block: only when some profile detail or history exists.
	if profile != nil || history != "" {
		var memoryLines []string
		if history != "" {
			memoryLines = append(memoryLines, "Here's what you remember from past conversations:\n"+history)
		}
		if profile != nil && len(profile.Interests) > 0 {
			memoryLines = append(memoryLines, fmt.Sprintf(
				"Engage with the child based on their interests: %s.",
				strings.Join(profile.Interests, ", ")))
		}
		// The combined sentence needs name, age and city all at once;
		// partial data yields no sentence here.
		if profile != nil && profile.Name != "" && profile.Age != nil && profile.City != "" {
			memoryLines = append(memoryLines, fmt.Sprintf(
				"Remember to be a good friend to %s, who is %d years old and lives in %s.",
				profile.Name, *profile.Age, profile.City))
		}
		if len(memoryLines) > 0 {
			parts = append(parts, strings.Join(memoryLines, "\n"))
		}
	}

	return strings.Join(parts, "\n")
}
