package types

import (
	"time"

	"github.com/google/uuid"
)

// Vote is one member's current choice of itinerary. At most one live vote
// exists per (group, member); casting again replaces the previous vote.
type Vote struct {
	GroupID      uuid.UUID `json:"group_id"`
	MemberID     uuid.UUID `json:"member_id"`
	ItineraryIdx int       `json:"itinerary_idx"`
	CastAt       time.Time `json:"cast_at"`
}

// TallyResult is derived from the live votes of a group, recomputed on every
// cast. FinalizedIdx is nil when no votes exist, and advisory otherwise:
// members may keep voting after a provisional finalization.
type TallyResult struct {
	VoteCounts   map[int]int `json:"vote_counts"`
	FinalizedIdx *int        `json:"finalized_idx"`
}
