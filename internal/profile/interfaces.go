package profile

import (
	"context"
)

// ProfileStore defines the interface for profile storage operations
type ProfileStore interface {
	FetchChildProfile(ctx context.Context, deviceID string) (*ChildProfile, error)
	FetchToyPersonality(ctx context.Context, childID string) (*ToyPersonality, error)
	FetchParentalRules(ctx context.Context, childID string) (*ParentalRules, error)
}

// ProfileService defines the interface for profile service operations.
// Unlike the raw store, the service degrades personality and rules lookups
// to defaults so the prompt path never fails on optional data.
type ProfileService interface {
	FetchChildProfile(ctx context.Context, deviceID string) (*ChildProfile, error)
	FetchToyPersonality(ctx context.Context, childID string) *ToyPersonality
	FetchParentalRules(ctx context.Context, childID string) *ParentalRules
}
