package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ChildProfileSchema represents the child_profiles table schema in PostgreSQL
type ChildProfileSchema struct {
	bun.BaseModel `bun:"table:child_profiles,alias:cp"`

	UUID      uuid.UUID `bun:"uuid,pk,type:uuid,default:gen_random_uuid()" json:"uuid"`
	DeviceID  string    `bun:"device_id,notnull,unique" json:"device_id"`
	Name      *string   `bun:"name" json:"name,omitempty"`
	Age       *int      `bun:"age" json:"age,omitempty"`
	City      *string   `bun:"city" json:"city,omitempty"`
	Birthday  *string   `bun:"birthday" json:"birthday,omitempty"`
	Interests []string  `bun:"interests,array" json:"interests,omitempty"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// ToyPersonalitySchema represents the toy_personality table schema
type ToyPersonalitySchema struct {
	bun.BaseModel `bun:"table:toy_personality,alias:tp"`

	UUID         uuid.UUID `bun:"uuid,pk,type:uuid,default:gen_random_uuid()" json:"uuid"`
	ChildID      string    `bun:"child_id,notnull" json:"child_id"`
	Energy       float64   `bun:"energy" json:"energy"`
	Humor        float64   `bun:"humor" json:"humor"`
	Curiosity    float64   `bun:"curiosity" json:"curiosity"`
	Empathy      float64   `bun:"empathy" json:"empathy"`
	RoleIdentity *string   `bun:"role_identity" json:"role_identity,omitempty"`
	LastUpdated  time.Time `bun:"last_updated,nullzero,notnull,default:current_timestamp" json:"last_updated"`
}

// ParentalRulesSchema represents the parental_rules table schema
type ParentalRulesSchema struct {
	bun.BaseModel `bun:"table:parental_rules,alias:pr"`

	UUID             uuid.UUID `bun:"uuid,pk,type:uuid,default:gen_random_uuid()" json:"uuid"`
	ChildID          string    `bun:"child_id,notnull,unique" json:"child_id"`
	Bedtime          *string   `bun:"bedtime" json:"bedtime,omitempty"`
	RestrictedTopics []string  `bun:"restricted_topics,array" json:"restricted_topics,omitempty"`
}

// PostgresProfileStore implements the ProfileStore interface
type PostgresProfileStore struct {
	db *bun.DB
}

// NewPostgresStore creates a new profile store instance
func NewPostgresStore(db *bun.DB) *PostgresProfileStore {
	return &PostgresProfileStore{
		db: db,
	}
}

// FetchChildProfile fetches the child's profile using the device id.
func (s *PostgresProfileStore) FetchChildProfile(ctx context.Context, deviceID string) (*ChildProfile, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("deviceID cannot be empty")
	}

	schema := new(ChildProfileSchema)
	err := s.db.NewSelect().
		Model(schema).
		Where("device_id = ?", deviceID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("child profile not found for device %s", deviceID)
		}
		return nil, fmt.Errorf("failed to fetch child profile: %w", err)
	}

	return childProfileSchemaToModel(schema), nil
}

// FetchToyPersonality fetches the latest personality record for a child.
func (s *PostgresProfileStore) FetchToyPersonality(ctx context.Context, childID string) (*ToyPersonality, error) {
	if childID == "" {
		return nil, fmt.Errorf("childID cannot be empty")
	}

	schema := new(ToyPersonalitySchema)
	err := s.db.NewSelect().
		Model(schema).
		Where("child_id = ?", childID).
		Order("last_updated DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("toy personality not found for child %s", childID)
		}
		return nil, fmt.Errorf("failed to fetch toy personality: %w", err)
	}

	personality := &ToyPersonality{
		ChildID:     schema.ChildID,
		Energy:      schema.Energy,
		Humor:       schema.Humor,
		Curiosity:   schema.Curiosity,
		Empathy:     schema.Empathy,
		LastUpdated: schema.LastUpdated,
	}
	if schema.RoleIdentity != nil {
		personality.RoleIdentity = *schema.RoleIdentity
	}

	return personality, nil
}

// FetchParentalRules fetches the parental rules row for a child.
func (s *PostgresProfileStore) FetchParentalRules(ctx context.Context, childID string) (*ParentalRules, error) {
	if childID == "" {
		return nil, fmt.Errorf("childID cannot be empty")
	}

	schema := new(ParentalRulesSchema)
	err := s.db.NewSelect().
		Model(schema).
		Where("child_id = ?", childID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("parental rules not found for child %s", childID)
		}
		return nil, fmt.Errorf("failed to fetch parental rules: %w", err)
	}

	rules := &ParentalRules{
		ChildID:          schema.ChildID,
		RestrictedTopics: schema.RestrictedTopics,
	}
	if schema.Bedtime != nil {
		rules.Bedtime = *schema.Bedtime
	}

	return rules, nil
}

func childProfileSchemaToModel(schema *ChildProfileSchema) *ChildProfile {
	model := &ChildProfile{
		UUID:      schema.UUID,
		DeviceID:  schema.DeviceID,
		Age:       schema.Age,
		Interests: schema.Interests,
		CreatedAt: schema.CreatedAt,
		UpdatedAt: schema.UpdatedAt,
	}
	if schema.Name != nil {
		model.Name = *schema.Name
	}
	if schema.City != nil {
		model.City = *schema.City
	}
	if schema.Birthday != nil {
		model.Birthday = *schema.Birthday
	}
	return model
}
