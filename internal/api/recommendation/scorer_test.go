package recommendation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetsy/meetsy/config"
	"github.com/meetsy/meetsy/internal/types"
)

func testRecommendationConfig() config.RecommendationConfig {
	return config.RecommendationConfig{
		Weights: config.ScoringWeights{
			Distance: 0.35,
			TagMatch: 0.30,
			Rating:   0.20,
			Budget:   0.15,
		},
		MaxTravelTimeMinutes: 90,
		TargetItemCount:      4,
		MaxItineraries:       6,
	}
}

func testHub() types.Hub {
	return types.Hub{
		ID:   "centroid",
		Name: "Group midpoint",
		Lat:  38.71,
		Lng:  -9.14,
		Kind: types.HubKindCentroid,
	}
}

func rated(r float64) *float64 { return &r }

func candidate(id string, lat, lng float64, categories ...string) types.Candidate {
	return types.Candidate{
		PlaceID:       id,
		Name:          id,
		Lat:           lat,
		Lng:           lng,
		Categories:    categories,
		EstimatedCost: 20,
	}
}

func TestScorer_Rank(t *testing.T) {
	scorer := NewScorer(testRecommendationConfig())
	hub := testHub()
	profile := &types.GroupPreferenceProfile{BudgetTier: 2, MoodTags: []string{"foodie"}}

	t.Run("closer candidate outranks a distant one", func(t *testing.T) {
		near := candidate("near", 38.711, -9.141, "restaurant")
		far := candidate("far", 38.80, -9.30, "restaurant")

		ranked := scorer.Rank(hub, profile, []types.Candidate{far, near})
		require.Len(t, ranked, 2)
		assert.Equal(t, "near", ranked[0].PlaceID)
	})

	t.Run("missing rating scores neutrally", func(t *testing.T) {
		unrated := candidate("unrated", 38.711, -9.141, "restaurant")
		poor := candidate("poor", 38.711, -9.141, "restaurant")
		poor.Rating = rated(1.5)
		great := candidate("great", 38.711, -9.141, "restaurant")
		great.Rating = rated(4.8)

		ranked := scorer.Rank(hub, profile, []types.Candidate{poor, unrated, great})
		require.Len(t, ranked, 3)
		assert.Equal(t, "great", ranked[0].PlaceID)
		assert.Equal(t, "unrated", ranked[1].PlaceID)
		assert.Equal(t, "poor", ranked[2].PlaceID)
	})

	t.Run("equal scores break ties by place id", func(t *testing.T) {
		a := candidate("b-place", 38.711, -9.141, "restaurant")
		b := candidate("a-place", 38.711, -9.141, "restaurant")

		ranked := scorer.Rank(hub, profile, []types.Candidate{a, b})
		assert.Equal(t, "a-place", ranked[0].PlaceID)
		assert.Equal(t, "b-place", ranked[1].PlaceID)
	})

	t.Run("tag match rewards mood fit", func(t *testing.T) {
		restaurant := candidate("restaurant-x", 38.711, -9.141, "restaurant")
		gym := candidate("gym-x", 38.711, -9.141, "gym")

		ranked := scorer.Rank(hub, profile, []types.Candidate{gym, restaurant})
		assert.Equal(t, "restaurant-x", ranked[0].PlaceID)
	})
}

func TestCandidatePriceTier(t *testing.T) {
	level := 3
	withLevel := types.Candidate{PriceLevel: &level, EstimatedCost: 5}
	assert.Equal(t, 3, candidatePriceTier(withLevel))

	assert.Equal(t, 1, candidatePriceTier(types.Candidate{EstimatedCost: 10}))
	assert.Equal(t, 2, candidatePriceTier(types.Candidate{EstimatedCost: 25}))
	assert.Equal(t, 3, candidatePriceTier(types.Candidate{EstimatedCost: 60}))
	assert.Equal(t, 4, candidatePriceTier(types.Candidate{EstimatedCost: 150}))
}

func TestScorer_Assemble(t *testing.T) {
	scorer := NewScorer(testRecommendationConfig())
	hub := testHub()
	profile := &types.GroupPreferenceProfile{BudgetTier: 2, MoodTags: []string{"foodie"}}

	t.Run("takes best candidates up to the target count", func(t *testing.T) {
		var pool []types.Candidate
		for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
			pool = append(pool, candidate(id, 38.711, -9.141, "restaurant"))
		}
		ranked := scorer.Rank(hub, profile, pool)

		itinerary := scorer.Assemble(hub, types.ArchetypeBalanced, ranked)
		require.NotNil(t, itinerary)
		assert.Len(t, itinerary.Items, 4)
		for _, item := range itinerary.Items {
			assert.Equal(t, types.EnrichmentPending, item.Enrichment)
		}
	})

	t.Run("never repeats a place", func(t *testing.T) {
		dup := candidate("same", 38.711, -9.141, "restaurant")
		ranked := scorer.Rank(hub, profile, []types.Candidate{dup, dup, dup})

		itinerary := scorer.Assemble(hub, types.ArchetypeBalanced, ranked)
		require.NotNil(t, itinerary)
		assert.Len(t, itinerary.Items, 1)
	})

	t.Run("produces a shorter itinerary when the pool runs out", func(t *testing.T) {
		ranked := scorer.Rank(hub, profile, []types.Candidate{
			candidate("only", 38.711, -9.141, "restaurant"),
			candidate("second", 38.712, -9.142, "cafe"),
		})

		itinerary := scorer.Assemble(hub, types.ArchetypeBalanced, ranked)
		require.NotNil(t, itinerary)
		assert.Len(t, itinerary.Items, 2)
	})

	t.Run("nil for an empty pool", func(t *testing.T) {
		itinerary := scorer.Assemble(hub, types.ArchetypeBalanced, nil)
		assert.Nil(t, itinerary)
	})

	t.Run("travel budget excludes distant candidates", func(t *testing.T) {
		// 90 minutes of walking covers 7.5 km; a candidate 20 km out can
		// never fit.
		ranked := scorer.Rank(hub, profile, []types.Candidate{
			candidate("near", 38.711, -9.141, "restaurant"),
			candidate("remote", 38.89, -9.14, "restaurant"),
		})

		itinerary := scorer.Assemble(hub, types.ArchetypeBalanced, ranked)
		require.NotNil(t, itinerary)
		require.Len(t, itinerary.Items, 1)
		assert.Equal(t, "near", itinerary.Items[0].PlaceID)
	})

	t.Run("budget archetype filters expensive places", func(t *testing.T) {
		cheap := candidate("cheap", 38.711, -9.141, "restaurant")
		cheap.EstimatedCost = 10
		pricey := candidate("pricey", 38.711, -9.141, "restaurant")
		pricey.EstimatedCost = 200
		ranked := scorer.Rank(hub, profile, []types.Candidate{cheap, pricey})

		itinerary := scorer.Assemble(hub, types.ArchetypeBudget, ranked)
		require.NotNil(t, itinerary)
		require.Len(t, itinerary.Items, 1)
		assert.Equal(t, "cheap", itinerary.Items[0].PlaceID)
	})

	t.Run("premium archetype filters cheap places", func(t *testing.T) {
		cheap := candidate("cheap", 38.711, -9.141, "restaurant")
		cheap.EstimatedCost = 10
		pricey := candidate("pricey", 38.711, -9.141, "restaurant")
		pricey.EstimatedCost = 200
		ranked := scorer.Rank(hub, profile, []types.Candidate{cheap, pricey})

		itinerary := scorer.Assemble(hub, types.ArchetypePremium, ranked)
		require.NotNil(t, itinerary)
		require.Len(t, itinerary.Items, 1)
		assert.Equal(t, "pricey", itinerary.Items[0].PlaceID)
	})

	t.Run("diversity reflects distinct categories", func(t *testing.T) {
		ranked := scorer.Rank(hub, profile, []types.Candidate{
			candidate("r1", 38.711, -9.141, "restaurant"),
			candidate("c1", 38.712, -9.142, "cafe"),
			candidate("p1", 38.713, -9.143, "park"),
			candidate("r2", 38.714, -9.144, "restaurant"),
		})

		itinerary := scorer.Assemble(hub, types.ArchetypeBalanced, ranked)
		require.NotNil(t, itinerary)
		require.Len(t, itinerary.Items, 4)
		assert.InDelta(t, 0.75, itinerary.DiversityScore, 0.001)
	})

	t.Run("totals accumulate cost and travel", func(t *testing.T) {
		ranked := scorer.Rank(hub, profile, []types.Candidate{
			candidate("a", 38.715, -9.141, "restaurant"),
			candidate("b", 38.72, -9.15, "cafe"),
		})

		itinerary := scorer.Assemble(hub, types.ArchetypeBalanced, ranked)
		require.NotNil(t, itinerary)
		assert.Equal(t, 40.0, itinerary.TotalCostEstimate)
		assert.Greater(t, itinerary.TotalTravelMinutes, 0)
	})
}

func TestItineraryName(t *testing.T) {
	t.Run("lowercases the hub name after the title", func(t *testing.T) {
		got := itineraryName(types.ArchetypeFoodie, types.Hub{Name: "Group midpoint"})
		assert.Equal(t, "Food crawl near group midpoint", got)
	})

	t.Run("hub names starting with a multi-byte rune stay intact", func(t *testing.T) {
		got := itineraryName(types.ArchetypeBalanced, types.Hub{Name: "Águas Livres"})
		assert.Equal(t, "A bit of everything near águas Livres", got)
	})

	t.Run("unknown archetype falls back to a generic title", func(t *testing.T) {
		got := itineraryName(types.Archetype("mystery"), types.Hub{Name: "Rossio"})
		assert.Equal(t, "Group plan near rossio", got)
	})
}
