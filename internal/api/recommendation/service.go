package recommendation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/meetsy/meetsy/app/observability/metrics"
	"github.com/meetsy/meetsy/config"
	"github.com/meetsy/meetsy/internal/api/enrichment"
	"github.com/meetsy/meetsy/internal/api/group"
	"github.com/meetsy/meetsy/internal/api/preference"
	"github.com/meetsy/meetsy/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service generates, fetches and resets a group's itinerary set.
type Service interface {
	Generate(ctx context.Context, groupID uuid.UUID) ([]types.GeneratedItinerary, error)
	Get(ctx context.Context, groupID uuid.UUID) ([]types.GeneratedItinerary, error)
	Reset(ctx context.Context, groupID uuid.UUID) error
}

type ServiceImpl struct {
	logger     *slog.Logger
	cfg        config.RecommendationConfig
	groupRepo  group.Repository
	aggregator preference.Aggregator
	hubs       *HubSelector
	source     Source
	scorer     *Scorer
	enricher   enrichment.Pipeline
}

func NewServiceImpl(
	groupRepo group.Repository,
	aggregator preference.Aggregator,
	source Source,
	enricher enrichment.Pipeline,
	cfg config.RecommendationConfig,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		cfg:        cfg,
		groupRepo:  groupRepo,
		aggregator: aggregator,
		hubs:       NewHubSelector(cfg.ClusterSplitKm, logger),
		source:     source,
		scorer:     NewScorer(cfg),
		enricher:   enricher,
	}
}

// Generate runs the full pipeline for a group: aggregate preferences, select
// hubs, fetch candidates per hub concurrently, assemble one itinerary per
// (hub, archetype) pair, enrich, and persist the result replacing any
// previous set.
func (s *ServiceImpl) Generate(ctx context.Context, groupID uuid.UUID) ([]types.GeneratedItinerary, error) {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "Generate", trace.WithAttributes(
		attribute.String("group.id", groupID.String()),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.GenerationTimeoutSec)*time.Second)
	defer cancel()

	l := s.logger.With(slog.String("method", "Generate"), slog.String("group_id", groupID.String()))
	start := time.Now()

	members, err := s.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("listing members: %w", err)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: group has no members", types.ErrValidation)
	}

	profile, err := s.aggregator.Aggregate(ctx, members)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Preference aggregation failed")
		return nil, err
	}

	hubs := s.hubs.SelectHubs(profile)
	span.SetAttributes(attribute.Int("hubs.count", len(hubs)))

	candidatesByHub := s.fetchCandidates(ctx, hubs, profile)

	itineraries := s.assembleItineraries(hubs, profile, candidatesByHub)
	if len(itineraries) == 0 {
		l.WarnContext(ctx, "No itineraries could be assembled")
	}

	hubIndex := make(map[string]types.Hub, len(hubs))
	for _, hub := range hubs {
		hubIndex[hub.ID] = hub
	}
	itineraries = s.enricher.Enrich(ctx, hubIndex, itineraries)

	if err := s.groupRepo.SaveItinerarySet(ctx, groupID, itineraries); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to persist itinerary set")
		return nil, fmt.Errorf("saving itinerary set: %w", err)
	}

	if m := metrics.Get(); m != nil {
		m.GenerationRequestsTotal.Add(ctx, 1)
		m.GenerationDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}
	l.InfoContext(ctx, "Generated itinerary set",
		slog.Int("itineraries", len(itineraries)),
		slog.Duration("took", time.Since(start)))
	span.SetStatus(codes.Ok, "Generation complete")
	return itineraries, nil
}

// fetchCandidates queries the source for every hub in parallel. A failing hub
// contributes an empty list instead of failing the round; other hubs may
// still produce usable plans.
func (s *ServiceImpl) fetchCandidates(ctx context.Context, hubs []types.Hub, profile *types.GroupPreferenceProfile) map[string][]types.Candidate {
	results := make([][]types.Candidate, len(hubs))
	g, gctx := errgroup.WithContext(ctx)
	for i, hub := range hubs {
		g.Go(func() error {
			candidates, err := s.source.FetchCandidates(gctx, hub, profile)
			if err != nil {
				s.logger.WarnContext(gctx, "Candidate fetch failed for hub",
					slog.String("hub_id", hub.ID), slog.Any("error", err))
				return nil
			}
			results[i] = candidates
			return nil
		})
	}
	_ = g.Wait()

	byHub := make(map[string][]types.Candidate, len(hubs))
	for i, hub := range hubs {
		byHub[hub.ID] = results[i]
	}
	return byHub
}

// assembleItineraries walks hubs in selection order and archetypes in their
// declared order, so the same inputs always produce the same set. The count
// is capped by configuration.
func (s *ServiceImpl) assembleItineraries(hubs []types.Hub, profile *types.GroupPreferenceProfile, candidatesByHub map[string][]types.Candidate) []types.GeneratedItinerary {
	var out []types.GeneratedItinerary
	for _, hub := range hubs {
		candidates := candidatesByHub[hub.ID]
		if len(candidates) == 0 {
			continue
		}
		ranked := s.scorer.Rank(hub, profile, candidates)
		for _, archetype := range types.Archetypes {
			if len(out) >= s.cfg.MaxItineraries {
				return out
			}
			itinerary := s.scorer.Assemble(hub, archetype, ranked)
			if itinerary == nil {
				continue
			}
			itinerary.ID = uuid.New()
			out = append(out, *itinerary)
		}
	}
	return out
}

func (s *ServiceImpl) Get(ctx context.Context, groupID uuid.UUID) ([]types.GeneratedItinerary, error) {
	return s.groupRepo.GetItinerarySet(ctx, groupID)
}

func (s *ServiceImpl) Reset(ctx context.Context, groupID uuid.UUID) error {
	ctx, span := otel.Tracer("RecommendationService").Start(ctx, "Reset")
	defer span.End()
	if err := s.groupRepo.ClearItinerarySet(ctx, groupID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("clearing itinerary set: %w", err)
	}
	return nil
}
