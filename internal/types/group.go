package types

import (
	"time"

	"github.com/google/uuid"
)

// Group is a meetup group identified by a short join code.
type Group struct {
	ID        uuid.UUID          `json:"id"`
	Code      string             `json:"code"`
	CreatedAt time.Time          `json:"created_at"`
	Members   []MemberPreference `json:"members,omitempty"`
}

// MemberPreference holds one member's inputs for recommendation generation.
// Exactly one row exists per (group, member); re-submission overwrites.
type MemberPreference struct {
	GroupID      uuid.UUID `json:"group_id"`
	MemberID     uuid.UUID `json:"member_id"`
	DisplayName  string    `json:"display_name"`
	HomeLocation string    `json:"home_location"`
	// Lat/Lng are cached geocoding results for HomeLocation; nil when the
	// address has not (or could not) be resolved.
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	Budget    float64   `json:"budget"`
	MoodTags  []string  `json:"mood_tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GroupPreferenceProfile is the merged view of all member preferences for a
// group. It is derived on demand and never persisted.
type GroupPreferenceProfile struct {
	Centroid          GeoPoint       `json:"centroid"`
	ResolvedLocations []GeoPoint     `json:"resolved_locations"`
	MemberLocations   []string       `json:"member_locations"`
	MemberCount       int            `json:"member_count"`
	BudgetMean        float64        `json:"budget_mean"`
	BudgetTier        int            `json:"budget_tier"` // 1-4
	MoodTagCounts     map[string]int `json:"mood_tag_counts"`
	// MoodTags is ordered by frequency descending, then alphabetically, so
	// downstream prompt building and scoring are deterministic.
	MoodTags []string `json:"mood_tags"`
}
