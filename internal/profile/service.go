package profile

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ProfileServiceImpl implements the ProfileService interface
type ProfileServiceImpl struct {
	store  ProfileStore
	logger *zap.Logger
}

// NewService creates a new profile service instance
func NewService(store ProfileStore, logger *zap.Logger) *ProfileServiceImpl {
	return &ProfileServiceImpl{
		store:  store,
		logger: logger,
	}
}

// FetchChildProfile fetches the profile row for a device. A missing or
// unreachable profile is an error; the caller decides how to degrade.
func (s *ProfileServiceImpl) FetchChildProfile(ctx context.Context, deviceID string) (*ChildProfile, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("deviceID is required")
	}
	return s.store.FetchChildProfile(ctx, deviceID)
}

// FetchToyPersonality returns the latest personality record for a child,
// or the default personality when none exists or the lookup fails.
func (s *ProfileServiceImpl) FetchToyPersonality(ctx context.Context, childID string) *ToyPersonality {
	personality, err := s.store.FetchToyPersonality(ctx, childID)
	if err != nil {
		s.logger.Debug("No toy personality found, using default",
			zap.String("child_id", childID),
			zap.Error(err))
		return DefaultPersonality()
	}
	return personality
}

// FetchParentalRules returns the rules row for a child, or nil when none
// is set or the lookup fails. A nil result omits the rules prompt section.
func (s *ProfileServiceImpl) FetchParentalRules(ctx context.Context, childID string) *ParentalRules {
	rules, err := s.store.FetchParentalRules(ctx, childID)
	if err != nil {
		s.logger.Debug("No parental rules found",
			zap.String("child_id", childID),
			zap.Error(err))
		return nil
	}
	return rules
}
