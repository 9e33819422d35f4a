package recommendation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/meetsy/meetsy/config"
	"github.com/meetsy/meetsy/internal/types"
)

// archetypeProfile shapes how one itinerary style re-weights ranked
// candidates during assembly.
type archetypeProfile struct {
	// favoredCategories get a flat score bonus so the style surfaces even
	// when the base ranking is dominated by proximity.
	favoredCategories []string
	// minPrice/maxPrice bound the acceptable price tier; 0 means unbounded.
	minPrice int
	maxPrice int
}

var archetypeProfiles = map[types.Archetype]archetypeProfile{
	types.ArchetypeFoodie: {
		favoredCategories: []string{"restaurant", "cafe", "bakery", "bar", "market"},
	},
	types.ArchetypeAdventure: {
		favoredCategories: []string{"park", "amusement_park", "tourist_attraction", "zoo", "stadium"},
	},
	types.ArchetypeRelaxed: {
		favoredCategories: []string{"cafe", "park", "spa", "art_gallery", "museum"},
	},
	types.ArchetypeBalanced: {},
	types.ArchetypeBudget:   {maxPrice: 2},
	types.ArchetypePremium:  {minPrice: 3},
}

const archetypeCategoryBonus = 0.15

// Scorer ranks candidates against a group profile and assembles them into
// itineraries. All scoring dimensions are normalized to [0,1] before applying
// the configured weights.
type Scorer struct {
	weights         config.ScoringWeights
	maxTravelKm     float64
	maxTravelMin    int
	targetItemCount int
}

func NewScorer(cfg config.RecommendationConfig) *Scorer {
	total := cfg.Weights.Distance + cfg.Weights.TagMatch + cfg.Weights.Rating + cfg.Weights.Budget
	w := cfg.Weights
	if total > 0 {
		w.Distance /= total
		w.TagMatch /= total
		w.Rating /= total
		w.Budget /= total
	}
	return &Scorer{
		weights:         w,
		maxTravelKm:     float64(cfg.MaxTravelTimeMinutes) / 12.0,
		maxTravelMin:    cfg.MaxTravelTimeMinutes,
		targetItemCount: cfg.TargetItemCount,
	}
}

type scoredCandidate struct {
	types.Candidate
	score    float64
	distance float64
	tagMatch float64
}

// Rank scores every candidate and returns them ordered best-first. Ties are
// broken by place ID so generation is reproducible.
func (s *Scorer) Rank(hub types.Hub, profile *types.GroupPreferenceProfile, candidates []types.Candidate) []scoredCandidate {
	scored := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		sc := s.scoreCandidate(hub, profile, c)
		scored = append(scored, sc)
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].PlaceID < scored[j].PlaceID
	})
	return scored
}

func (s *Scorer) scoreCandidate(hub types.Hub, profile *types.GroupPreferenceProfile, c types.Candidate) scoredCandidate {
	distKm := types.HaversineKm(hub.Point(), types.GeoPoint{Lat: c.Lat, Lng: c.Lng})
	distScore := 1 - math.Min(distKm/s.maxTravelKm, 1)

	tagScore := tagMatchScore(profile.MoodTags, c)

	// A place with no rating scores neutrally rather than sinking to the
	// bottom: the provider simply has no data for it.
	ratingScore := 0.5
	if c.Rating != nil {
		ratingScore = clamp01((*c.Rating - 1) / 4)
	}

	tierDiff := math.Abs(float64(candidatePriceTier(c) - profile.BudgetTier))
	budgetScore := 1 - math.Min(tierDiff, 3)/3

	score := s.weights.Distance*distScore +
		s.weights.TagMatch*tagScore +
		s.weights.Rating*ratingScore +
		s.weights.Budget*budgetScore

	return scoredCandidate{
		Candidate: c,
		score:     score,
		distance:  distKm,
		tagMatch:  tagScore,
	}
}

// tagMatchScore is the fraction of the group's mood tags the candidate
// satisfies. A group with no tags gets a neutral score for everyone.
func tagMatchScore(tags []string, c types.Candidate) float64 {
	if len(tags) == 0 {
		return 0.5
	}
	matched := 0
	for _, tag := range tags {
		if tagSatisfied(tag, c.Categories, c.Name+" "+c.Description) {
			matched++
		}
	}
	return float64(matched) / float64(len(tags))
}

// candidatePriceTier maps a candidate's price signal to the 1-4 budget
// scale. The provider's price level wins when present; otherwise the AI's
// cost estimate is bucketed with the same thresholds used for member budgets.
func candidatePriceTier(c types.Candidate) int {
	if c.PriceLevel != nil {
		switch {
		case *c.PriceLevel <= 1:
			return 1
		case *c.PriceLevel >= 4:
			return 4
		default:
			return *c.PriceLevel
		}
	}
	switch {
	case c.EstimatedCost < 15:
		return 1
	case c.EstimatedCost < 40:
		return 2
	case c.EstimatedCost < 90:
		return 3
	default:
		return 4
	}
}

// Assemble builds one itinerary of a given style from ranked candidates.
// Items are taken best-first under the travel-time budget; a shorter
// itinerary is produced when the pool runs out, and nil when nothing fits.
func (s *Scorer) Assemble(hub types.Hub, archetype types.Archetype, ranked []scoredCandidate) *types.GeneratedItinerary {
	style := archetypeProfiles[archetype]

	pool := make([]scoredCandidate, 0, len(ranked))
	for _, sc := range ranked {
		tier := candidatePriceTier(sc.Candidate)
		if style.maxPrice > 0 && tier > style.maxPrice {
			continue
		}
		if style.minPrice > 0 && tier < style.minPrice {
			continue
		}
		sc.score += styleBonus(style, sc.Categories)
		pool = append(pool, sc)
	}
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].score != pool[j].score {
			return pool[i].score > pool[j].score
		}
		return pool[i].PlaceID < pool[j].PlaceID
	})

	var (
		items       []types.ItineraryItem
		seen        = map[string]bool{}
		totalCost   float64
		totalTravel int
		prev        = hub.Point()
	)
	for _, sc := range pool {
		if len(items) >= s.targetItemCount {
			break
		}
		if seen[sc.PlaceID] {
			continue
		}
		point := types.GeoPoint{Lat: sc.Lat, Lng: sc.Lng}
		leg := types.TravelMinutes(prev, point)
		if totalTravel+leg > s.maxTravelMin {
			continue
		}
		seen[sc.PlaceID] = true
		totalTravel += leg
		totalCost += sc.EstimatedCost
		prev = point

		items = append(items, types.ItineraryItem{
			ItemID:          fmt.Sprintf("%s-%s-%d", hub.ID, archetype, len(items)),
			PlaceID:         sc.PlaceID,
			Name:            sc.Name,
			Address:         sc.Address,
			Lat:             sc.Lat,
			Lng:             sc.Lng,
			Categories:      sc.Categories,
			Rating:          sc.Rating,
			PriceLevel:      sc.PriceLevel,
			Photos:          sc.Photos,
			DurationMinutes: durationForCategories(sc.Categories),
			Reason:          itemReason(sc),
			Enrichment:      types.EnrichmentPending,
		})
	}
	if len(items) == 0 {
		return nil
	}

	return &types.GeneratedItinerary{
		HubID:              hub.ID,
		HubName:            hub.Name,
		Archetype:          archetype,
		Name:               itineraryName(archetype, hub),
		Items:              items,
		TotalCostEstimate:  totalCost,
		TotalTravelMinutes: totalTravel,
		DiversityScore:     diversityScore(items),
	}
}

func styleBonus(style archetypeProfile, categories []string) float64 {
	for _, category := range categories {
		category = strings.ToLower(category)
		for _, favored := range style.favoredCategories {
			if category == favored {
				return archetypeCategoryBonus
			}
		}
	}
	return 0
}

// diversityScore is the share of distinct categories across items, so a plan
// of four restaurants scores lower than a cafe-park-museum-bar mix.
func diversityScore(items []types.ItineraryItem) float64 {
	distinct := map[string]bool{}
	for _, item := range items {
		if len(item.Categories) > 0 {
			distinct[strings.ToLower(item.Categories[0])] = true
		}
	}
	if len(items) == 0 {
		return 0
	}
	return float64(len(distinct)) / float64(len(items))
}

func durationForCategories(categories []string) int {
	for _, category := range categories {
		switch strings.ToLower(category) {
		case "restaurant":
			return 90
		case "museum", "art_gallery":
			return 75
		case "park", "zoo", "aquarium":
			return 60
		case "cafe", "bakery":
			return 45
		}
	}
	return 60
}

func itemReason(sc scoredCandidate) string {
	var parts []string
	if sc.distance < 1.0 {
		parts = append(parts, "a short walk from the meeting area")
	} else {
		parts = append(parts, fmt.Sprintf("%.1f km from the meeting area", sc.distance))
	}
	if sc.tagMatch >= 0.75 {
		parts = append(parts, "matches the group's moods")
	}
	if sc.Rating != nil && *sc.Rating >= 4.3 {
		parts = append(parts, fmt.Sprintf("rated %.1f", *sc.Rating))
	}
	return strings.Join(parts, ", ")
}

func itineraryName(archetype types.Archetype, hub types.Hub) string {
	titles := map[types.Archetype]string{
		types.ArchetypeFoodie:    "Food crawl",
		types.ArchetypeAdventure: "Adventure day",
		types.ArchetypeRelaxed:   "Easy afternoon",
		types.ArchetypeBalanced:  "A bit of everything",
		types.ArchetypeBudget:    "Cheap and cheerful",
		types.ArchetypePremium:   "Treat yourselves",
	}
	title, ok := titles[archetype]
	if !ok {
		title = "Group plan"
	}
	return fmt.Sprintf("%s near %s", title, lowerFirst(hub.Name))
}

// lowerFirst lowercases the leading rune only; hub names may start with a
// multi-byte character.
func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
