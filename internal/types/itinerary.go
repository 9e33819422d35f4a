package types

import "github.com/google/uuid"

type HubKind string

const (
	HubKindCentroid HubKind = "centroid"
	HubKindCluster  HubKind = "cluster"
	HubKindPOI      HubKind = "poi"
)

// Hub is a candidate meeting area derived from aggregated member locations.
// Each hub seeds an independent round of candidate generation.
type Hub struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Kind  HubKind `json:"kind"`
	Score float64 `json:"score"`
}

func (h Hub) Point() GeoPoint { return GeoPoint{Lat: h.Lat, Lng: h.Lng} }

// Candidate is a raw place/activity returned by the candidate source. It is
// ephemeral: it only exists between generation and item selection.
type Candidate struct {
	PlaceID       string   `json:"place_id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Address       string   `json:"address,omitempty"`
	Lat           float64  `json:"lat"`
	Lng           float64  `json:"lng"`
	Categories    []string `json:"categories"`
	Rating        *float64 `json:"rating,omitempty"`
	RatingCount   *int     `json:"rating_count,omitempty"`
	PriceLevel    *int     `json:"price_level,omitempty"`
	Photos        []string `json:"photos,omitempty"`
	EstimatedCost float64  `json:"estimated_cost"`
}

type Archetype string

const (
	ArchetypeFoodie    Archetype = "foodie"
	ArchetypeAdventure Archetype = "adventure"
	ArchetypeRelaxed   Archetype = "relaxed"
	ArchetypeBalanced  Archetype = "balanced"
	ArchetypeBudget    Archetype = "budget"
	ArchetypePremium   Archetype = "premium"
)

// Archetypes lists every itinerary style in generation order.
var Archetypes = []Archetype{
	ArchetypeFoodie,
	ArchetypeAdventure,
	ArchetypeRelaxed,
	ArchetypeBalanced,
	ArchetypeBudget,
	ArchetypePremium,
}

type EnrichmentState string

const (
	EnrichmentPending  EnrichmentState = "pending"
	EnrichmentDone     EnrichmentState = "enriched"
	EnrichmentFailed   EnrichmentState = "failed"
	EnrichmentFallback EnrichmentState = "fallback"
)

// ItineraryItem is a candidate promoted into a plan slot.
type ItineraryItem struct {
	ItemID          string          `json:"item_id"`
	PlaceID         string          `json:"place_id"`
	Name            string          `json:"name"`
	Address         string          `json:"address"`
	Lat             float64         `json:"lat"`
	Lng             float64         `json:"lng"`
	Categories      []string        `json:"categories"`
	Rating          *float64        `json:"rating,omitempty"`
	PriceLevel      *int            `json:"price_level,omitempty"`
	Photos          []string        `json:"photos"`
	DurationMinutes int             `json:"duration_minutes"`
	Reason          string          `json:"reason"`
	Enrichment      EnrichmentState `json:"enrichment"`
}

// GeneratedItinerary is one ordered plan for a (hub, archetype) pair. It is
// immutable after generation except for enrichment of its items.
type GeneratedItinerary struct {
	ID                 uuid.UUID       `json:"id"`
	HubID              string          `json:"hub_id"`
	HubName            string          `json:"hub_name"`
	Archetype          Archetype       `json:"archetype"`
	Name               string          `json:"name"`
	Items              []ItineraryItem `json:"items"`
	TotalCostEstimate  float64         `json:"total_cost_estimate"`
	TotalTravelMinutes int             `json:"total_travel_minutes"`
	DiversityScore     float64         `json:"diversity_score"`
}
