package preference

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/meetsy/meetsy/internal/api/places"
	"github.com/meetsy/meetsy/internal/types"
)

var _ Aggregator = (*AggregatorImpl)(nil)

// Aggregator merges all member preferences of a group into one profile.
type Aggregator interface {
	Aggregate(ctx context.Context, members []types.MemberPreference) (*types.GroupPreferenceProfile, error)
}

type AggregatorImpl struct {
	logger *slog.Logger
	places places.Service
}

func NewAggregator(placesSvc places.Service, logger *slog.Logger) *AggregatorImpl {
	return &AggregatorImpl{
		logger: logger,
		places: placesSvc,
	}
}

// Budget tiers 1-4, aligned with the provider's price_level scale.
var budgetTierThresholds = []float64{15, 40, 90}

func budgetTier(mean float64) int {
	tier := 1
	for _, threshold := range budgetTierThresholds {
		if mean > threshold {
			tier++
		}
	}
	return tier
}

// Aggregate geocodes each member's home location (reusing coordinates cached
// at join time), skipping members whose location cannot be resolved. It
// returns types.ErrNoResolvableLocations when no member resolves, so callers
// can surface an explicit "cannot generate recommendations" condition.
func (a *AggregatorImpl) Aggregate(ctx context.Context, members []types.MemberPreference) (*types.GroupPreferenceProfile, error) {
	ctx, span := otel.Tracer("PreferenceAggregator").Start(ctx, "Aggregate", trace.WithAttributes(
		attribute.Int("members.count", len(members)),
	))
	defer span.End()

	if len(members) == 0 {
		return nil, fmt.Errorf("group has no members: %w", types.ErrValidation)
	}

	profile := &types.GroupPreferenceProfile{
		MemberCount:   len(members),
		MoodTagCounts: make(map[string]int),
	}

	var budgetSum float64
	var budgetCount int
	for _, member := range members {
		point, ok := a.resolveLocation(ctx, member)
		if !ok {
			a.logger.WarnContext(ctx, "Skipping member with unresolvable location",
				slog.String("member_id", member.MemberID.String()),
				slog.String("location", member.HomeLocation))
		} else {
			profile.ResolvedLocations = append(profile.ResolvedLocations, point)
			profile.MemberLocations = append(profile.MemberLocations, member.HomeLocation)
		}

		if member.Budget > 0 {
			budgetSum += member.Budget
			budgetCount++
		}
		for _, tag := range member.MoodTags {
			profile.MoodTagCounts[tag]++
		}
	}

	if len(profile.ResolvedLocations) == 0 {
		span.SetStatus(codes.Error, "No resolvable member locations")
		return nil, types.ErrNoResolvableLocations
	}

	profile.Centroid = types.Centroid(profile.ResolvedLocations)
	if budgetCount > 0 {
		profile.BudgetMean = budgetSum / float64(budgetCount)
	}
	profile.BudgetTier = budgetTier(profile.BudgetMean)
	profile.MoodTags = orderedTags(profile.MoodTagCounts)

	span.SetAttributes(
		attribute.Int("locations.resolved", len(profile.ResolvedLocations)),
		attribute.Int("budget.tier", profile.BudgetTier),
		attribute.Int("mood_tags.count", len(profile.MoodTags)),
	)
	span.SetStatus(codes.Ok, "Profile aggregated")
	return profile, nil
}

func (a *AggregatorImpl) resolveLocation(ctx context.Context, member types.MemberPreference) (types.GeoPoint, bool) {
	if member.Lat != nil && member.Lng != nil {
		return types.GeoPoint{Lat: *member.Lat, Lng: *member.Lng}, true
	}
	if member.HomeLocation == "" {
		return types.GeoPoint{}, false
	}
	point, err := a.places.Geocode(ctx, member.HomeLocation)
	if err != nil {
		return types.GeoPoint{}, false
	}
	return point, true
}

// orderedTags sorts tags by frequency descending, then alphabetically, so
// everything downstream of the profile is deterministic.
func orderedTags(counts map[string]int) []string {
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	return tags
}
