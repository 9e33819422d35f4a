package vote

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/meetsy/meetsy/app/observability/metrics"
	"github.com/meetsy/meetsy/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service casts votes and tallies them. A member's vote is last-write-wins;
// the tally finalizes the strictly most-voted itinerary, with ties resolved
// toward the lowest index.
type Service interface {
	CastVote(ctx context.Context, groupID, memberID uuid.UUID, itineraryIdx int) (*types.TallyResult, error)
	Tally(ctx context.Context, groupID uuid.UUID) (*types.TallyResult, error)
}

type ServiceImpl struct {
	logger   *slog.Logger
	voteRepo Repository
	// locks serializes casts per (group, member) so two concurrent casts by
	// the same member cannot interleave their delete/insert pairs.
	locks sync.Map
}

func NewService(voteRepo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:   logger,
		voteRepo: voteRepo,
	}
}

func (s *ServiceImpl) lockFor(groupID, memberID uuid.UUID) *sync.Mutex {
	key := groupID.String() + ":" + memberID.String()
	mu, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *ServiceImpl) CastVote(ctx context.Context, groupID, memberID uuid.UUID, itineraryIdx int) (*types.TallyResult, error) {
	ctx, span := otel.Tracer("VoteService").Start(ctx, "CastVote", trace.WithAttributes(
		attribute.String("group.id", groupID.String()),
		attribute.Int("itinerary.idx", itineraryIdx),
	))
	defer span.End()

	count, err := s.voteRepo.CountItineraries(ctx, groupID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("counting itineraries: %w", err)
	}
	if itineraryIdx < 0 || itineraryIdx >= count {
		return nil, fmt.Errorf("%w: itinerary index %d out of range [0,%d)", types.ErrValidation, itineraryIdx, count)
	}

	mu := s.lockFor(groupID, memberID)
	mu.Lock()
	err = s.voteRepo.UpsertVote(ctx, types.Vote{
		GroupID:      groupID,
		MemberID:     memberID,
		ItineraryIdx: itineraryIdx,
		CastAt:       time.Now().UTC(),
	})
	mu.Unlock()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to persist vote")
		return nil, fmt.Errorf("casting vote: %w", err)
	}

	if m := metrics.Get(); m != nil {
		m.VotesCastTotal.Add(ctx, 1)
	}
	s.logger.InfoContext(ctx, "Vote cast",
		slog.String("group_id", groupID.String()),
		slog.Int("itinerary_idx", itineraryIdx))

	return s.tally(ctx, groupID, count)
}

func (s *ServiceImpl) Tally(ctx context.Context, groupID uuid.UUID) (*types.TallyResult, error) {
	count, err := s.voteRepo.CountItineraries(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("counting itineraries: %w", err)
	}
	return s.tally(ctx, groupID, count)
}

func (s *ServiceImpl) tally(ctx context.Context, groupID uuid.UUID, itineraryCount int) (*types.TallyResult, error) {
	votes, err := s.voteRepo.ListVotes(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("listing votes: %w", err)
	}

	// Votes cast against an earlier, larger set may still be visible to a
	// tally racing a regeneration. An index outside the current set never
	// counts and never finalizes.
	counts := make(map[int]int, len(votes))
	for _, v := range votes {
		if v.ItineraryIdx < 0 || v.ItineraryIdx >= itineraryCount {
			continue
		}
		counts[v.ItineraryIdx]++
	}

	result := &types.TallyResult{VoteCounts: counts}
	if len(counts) == 0 {
		return result, nil
	}

	// Highest count wins; a tie resolves to the lowest itinerary index so
	// repeated tallies of the same votes agree.
	bestIdx, bestCount := -1, 0
	for idx, c := range counts {
		if c > bestCount || (c == bestCount && idx < bestIdx) {
			bestIdx, bestCount = idx, c
		}
	}
	result.FinalizedIdx = &bestIdx
	return result, nil
}
