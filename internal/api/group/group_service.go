package group

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/meetsy/meetsy/internal/api/places"
	"github.com/meetsy/meetsy/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// JoinParams is one member's submission when joining (or re-joining) a group.
type JoinParams struct {
	MemberID     *uuid.UUID `json:"member_id,omitempty"`
	DisplayName  string     `json:"display_name"`
	HomeLocation string     `json:"home_location"`
	Budget       float64    `json:"budget"`
	MoodTags     []string   `json:"mood_tags"`
}

type Service interface {
	Create(ctx context.Context) (*types.Group, error)
	GetByCode(ctx context.Context, code string) (*types.Group, error)
	Join(ctx context.Context, code string, params JoinParams) (*types.MemberPreference, error)
}

type ServiceImpl struct {
	logger    *slog.Logger
	groupRepo Repository
	places    places.Service
}

func NewService(groupRepo Repository, placesSvc places.Service, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		groupRepo: groupRepo,
		places:    placesSvc,
	}
}

func (s *ServiceImpl) Create(ctx context.Context) (*types.Group, error) {
	group, err := s.groupRepo.CreateGroup(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create group", slog.Any("error", err))
		return nil, err
	}
	return group, nil
}

func (s *ServiceImpl) GetByCode(ctx context.Context, code string) (*types.Group, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, fmt.Errorf("group code is required: %w", types.ErrValidation)
	}
	group, err := s.groupRepo.GetGroupByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			s.logger.ErrorContext(ctx, "Failed to get group", slog.Any("error", err))
		}
		return nil, err
	}
	return group, nil
}

func (s *ServiceImpl) Join(ctx context.Context, code string, params JoinParams) (*types.MemberPreference, error) {
	ctx, span := otel.Tracer("GroupService").Start(ctx, "Join", trace.WithAttributes(
		attribute.String("group.code", code),
	))
	defer span.End()

	if strings.TrimSpace(params.DisplayName) == "" {
		return nil, fmt.Errorf("display name is required: %w", types.ErrValidation)
	}
	if strings.TrimSpace(params.HomeLocation) == "" {
		return nil, fmt.Errorf("home location is required: %w", types.ErrValidation)
	}

	group, err := s.GetByCode(ctx, code)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	memberID := uuid.New()
	if params.MemberID != nil {
		// Re-submission: overwrite the existing preference row.
		memberID = *params.MemberID
	}

	pref := types.MemberPreference{
		GroupID:      group.ID,
		MemberID:     memberID,
		DisplayName:  strings.TrimSpace(params.DisplayName),
		HomeLocation: strings.TrimSpace(params.HomeLocation),
		Budget:       params.Budget,
		MoodTags:     normalizeTags(params.MoodTags),
	}

	// Best-effort geocode at join time; the aggregator retries unresolved
	// locations at generation time, so failure here is not fatal.
	if point, err := s.places.Geocode(ctx, pref.HomeLocation); err != nil {
		s.logger.WarnContext(ctx, "Could not geocode member location at join",
			slog.String("location", pref.HomeLocation),
			slog.Any("error", err))
	} else {
		pref.Lat = &point.Lat
		pref.Lng = &point.Lng
	}

	if err := s.groupRepo.UpsertMember(ctx, pref); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save member preference", slog.Any("error", err))
		span.RecordError(err)
		return nil, err
	}

	span.SetStatus(codes.Ok, "Member joined")
	return &pref, nil
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
