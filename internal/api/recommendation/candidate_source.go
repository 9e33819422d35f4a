package recommendation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/meetsy/meetsy/app/observability/metrics"
	"github.com/meetsy/meetsy/config"
	generativeAI "github.com/meetsy/meetsy/internal/api/generative_ai"
	"github.com/meetsy/meetsy/internal/api/places"
	"github.com/meetsy/meetsy/internal/types"
)

var _ Source = (*AISource)(nil)

// Source produces raw candidates around a hub. A Source must never fail the
// generation round for content problems; it returns an empty slice instead.
type Source interface {
	FetchCandidates(ctx context.Context, hub types.Hub, profile *types.GroupPreferenceProfile) ([]types.Candidate, error)
}

// aiGenerator is the slice of the AI client the source needs.
type aiGenerator interface {
	GenerateResponse(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// AISource asks the generative model for places near a hub, then resolves
// each suggestion against the places provider for coordinates and ratings.
// Suggestions the provider cannot find keep the hub's coordinates and score
// neutrally on rating.
type AISource struct {
	logger      *slog.Logger
	ai          aiGenerator
	places      places.Service
	temperature float64
	timeout     time.Duration
}

func NewAISource(ai *generativeAI.AIClient, placesClient places.Service, cfg config.GeminiConfig, logger *slog.Logger) *AISource {
	return &AISource{
		logger:      logger,
		ai:          ai,
		places:      placesClient,
		temperature: cfg.Temperature,
		timeout:     time.Duration(cfg.TimeoutSec) * time.Second,
	}
}

func (s *AISource) FetchCandidates(ctx context.Context, hub types.Hub, profile *types.GroupPreferenceProfile) ([]types.Candidate, error) {
	ctx, span := otel.Tracer("AISource").Start(ctx, "FetchCandidates", trace.WithAttributes(
		attribute.String("hub.id", hub.ID),
		attribute.String("hub.name", hub.Name),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "FetchCandidates"), slog.String("hub_id", hub.ID))

	prompt := getCandidatePrompt(hub, profile)
	temperature := float32(s.temperature)
	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	resp, err := s.ai.GenerateResponse(genCtx, prompt, &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "AI generation failed")
		return nil, fmt.Errorf("candidate generation for hub %s: %w", hub.ID, err)
	}

	txt := generativeAI.ResponseText(resp)
	if txt == "" {
		l.WarnContext(ctx, "AI returned an empty candidate response")
		s.recordParseError(ctx)
		return nil, nil
	}

	locations, err := parseCandidateLocations(cleanJSONResponse(txt))
	if err != nil {
		l.WarnContext(ctx, "Failed to parse AI candidate response", slog.Any("error", err))
		span.RecordError(err)
		s.recordParseError(ctx)
		return nil, nil
	}

	candidates := make([]types.Candidate, 0, len(locations))
	for _, loc := range locations {
		candidates = append(candidates, s.resolveCandidate(ctx, hub, profile, loc))
	}
	span.SetAttributes(attribute.Int("candidates.count", len(candidates)))
	span.SetStatus(codes.Ok, "Candidates fetched")
	return candidates, nil
}

// resolveCandidate looks the suggestion up with the places provider to attach
// real coordinates, ratings and photos. Lookup failures degrade to a
// synthetic candidate anchored at the hub.
func (s *AISource) resolveCandidate(ctx context.Context, hub types.Hub, profile *types.GroupPreferenceProfile, loc candidateLocation) types.Candidate {
	candidate := types.Candidate{
		PlaceID:       "ai-" + slugify(loc.Name),
		Name:          loc.Name,
		Description:   loc.Description,
		Lat:           hub.Lat,
		Lng:           hub.Lng,
		Categories:    inferCategories(loc.Name, loc.Description, profile.MoodTags),
		EstimatedCost: loc.EstimatedCost,
	}

	details, err := s.places.Lookup(ctx, loc.Name+", "+hub.Name)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			s.logger.DebugContext(ctx, "Candidate place lookup failed",
				slog.String("name", loc.Name), slog.Any("error", err))
		}
		return candidate
	}

	candidate.PlaceID = details.PlaceID
	candidate.Address = details.FormattedAddress
	candidate.Lat = details.Lat
	candidate.Lng = details.Lng
	candidate.Rating = details.Rating
	candidate.RatingCount = details.UserRatingsTotal
	candidate.PriceLevel = details.PriceLevel
	if len(details.Types) > 0 {
		candidate.Categories = details.Types
	}
	candidate.Photos = details.PhotoReferences
	return candidate
}

func (s *AISource) recordParseError(ctx context.Context) {
	if m := metrics.Get(); m != nil {
		m.CandidateParseErrorsTotal.Add(ctx, 1)
	}
}

func slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
