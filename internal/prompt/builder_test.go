package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func fullProfile() *Profile {
	return &Profile{
		Name:      "Mia",
		Age:       intPtr(7),
		City:      "Pune",
		Interests: []string{"dinosaurs", "space", "drawing"},
	}
}

func TestBuildAssistantPromptFallback(t *testing.T) {
	got := BuildAssistantPrompt(nil, nil, nil, "")
	assert.Equal(t, GenericPersona, got)
}

// The builder must be total: every subset of fragments yields a non-empty
// prompt and never panics.
func TestBuildAssistantPromptTotality(t *testing.T) {
	profiles := []*Profile{nil, fullProfile()}
	personalities := []*Personality{nil, {Energy: 0.9, Humor: 0.2, Curiosity: 0.7, Empathy: 0.3, Role: "Coach"}}
	rules := []*Rules{nil, {Bedtime: "8pm", RestrictedTopics: []string{"scary movies"}}}
	histories := []string{"", "user: hi\nassistant: hello"}

	for _, p := range profiles {
		for _, pers := range personalities {
			for _, r := range rules {
				for _, h := range histories {
					got := BuildAssistantPrompt(p, pers, r, h)
					require.NotEmpty(t, got)
				}
			}
		}
	}
}

func TestBuildAssistantPromptPersona(t *testing.T) {
	t.Run("NamedChild", func(t *testing.T) {
		got := BuildAssistantPrompt(fullProfile(), nil, nil, "")
		assert.Contains(t, got, "a special friend for Mia")
	})

	t.Run("UnknownNamePlaceholder", func(t *testing.T) {
		got := BuildAssistantPrompt(&Profile{City: "Pune"}, nil, nil, "")
		assert.Contains(t, got, "a special friend for a child")
	})
}

func TestBuildAssistantPromptPersonality(t *testing.T) {
	t.Run("ActiveLabelsAboveThreshold", func(t *testing.T) {
		got := BuildAssistantPrompt(nil, &Personality{Energy: 0.9, Humor: 0.8, Curiosity: 0.7, Empathy: 0.6}, nil, "")
		assert.Contains(t, got, "Hyperactive")
		assert.Contains(t, got, "Smart-witty")
		assert.Contains(t, got, "Endlessly curious")
		assert.Contains(t, got, "Proactive")
		// Empty role falls back to the default.
		assert.Contains(t, got, "Role: Best Friend")
	})

	t.Run("PassiveLabelsAtThreshold", func(t *testing.T) {
		// 0.5 is not above the threshold, so every trait maps passive.
		got := BuildAssistantPrompt(nil, &Personality{Energy: 0.5, Humor: 0.5, Curiosity: 0.5, Empathy: 0.5, Role: "Sidekick"}, nil, "")
		assert.Contains(t, got, "Calm")
		assert.Contains(t, got, "Silly")
		assert.Contains(t, got, "Passive")
		assert.Contains(t, got, "Reactive")
		assert.Contains(t, got, "Role: Sidekick")
	})

	t.Run("AbsentPersonalityOmitsBlock", func(t *testing.T) {
		got := BuildAssistantPrompt(fullProfile(), nil, nil, "")
		assert.NotContains(t, got, "Your current personality")
	})
}

func TestBuildAssistantPromptRules(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		got := BuildAssistantPrompt(nil, nil, &Rules{}, "")
		assert.Contains(t, got, "Bedtime is at N/A")
		assert.Contains(t, got, "Restricted Topics: None")
	})

	t.Run("Populated", func(t *testing.T) {
		got := BuildAssistantPrompt(nil, nil, &Rules{Bedtime: "8:30pm", RestrictedTopics: []string{"violence", "politics"}}, "")
		assert.Contains(t, got, "Bedtime is at 8:30pm")
		assert.Contains(t, got, "Restricted Topics: violence, politics")
	})
}

// The "who this child is" sentence appears if and only if name, age and
// city are all present at once.
func TestBuildAssistantPromptMemoryGate(t *testing.T) {
	const sentence = "Remember to be a good friend to"

	t.Run("AllThreePresent", func(t *testing.T) {
		got := BuildAssistantPrompt(fullProfile(), nil, nil, "")
		assert.Contains(t, got, "Remember to be a good friend to Mia, who is 7 years old and lives in Pune.")
	})

	t.Run("MissingName", func(t *testing.T) {
		p := fullProfile()
		p.Name = ""
		assert.NotContains(t, BuildAssistantPrompt(p, nil, nil, ""), sentence)
	})

	t.Run("MissingAge", func(t *testing.T) {
		p := fullProfile()
		p.Age = nil
		assert.NotContains(t, BuildAssistantPrompt(p, nil, nil, ""), sentence)
	})

	t.Run("MissingCity", func(t *testing.T) {
		p := fullProfile()
		p.City = ""
		assert.NotContains(t, BuildAssistantPrompt(p, nil, nil, ""), sentence)
	})
}

func TestBuildAssistantPromptMemoryBlock(t *testing.T) {
	t.Run("HistoryIncluded", func(t *testing.T) {
		got := BuildAssistantPrompt(nil, nil, nil, "user: remember the dragon story?")
		assert.Contains(t, got, "Here's what you remember from past conversations:")
		assert.Contains(t, got, "remember the dragon story?")
	})

	t.Run("InterestsSentence", func(t *testing.T) {
		got := BuildAssistantPrompt(fullProfile(), nil, nil, "")
		assert.Contains(t, got, "their interests: dinosaurs, space, drawing.")
	})

	t.Run("EmptyInterestsOmitted", func(t *testing.T) {
		p := fullProfile()
		p.Interests = nil
		got := BuildAssistantPrompt(p, nil, nil, "")
		assert.NotContains(t, got, "their interests")
	})

	t.Run("BlocksJoinedByNewlines", func(t *testing.T) {
		got := BuildAssistantPrompt(fullProfile(), &Personality{}, &Rules{}, "user: hi")
		// Persona, personality, rules and memory blocks all present.
		assert.True(t, strings.Count(got, "\n") >= 4)
	})
}
