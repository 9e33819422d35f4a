package group

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	database "github.com/meetsy/meetsy/app/db"
	"github.com/meetsy/meetsy/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

// DB is the subset of pgxpool.Pool the repository needs; it is also
// satisfied by pgxmock pools in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository interface {
	CreateGroup(ctx context.Context) (*types.Group, error)
	GetGroupByCode(ctx context.Context, code string) (*types.Group, error)
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]types.MemberPreference, error)
	UpsertMember(ctx context.Context, pref types.MemberPreference) error
	SaveItinerarySet(ctx context.Context, groupID uuid.UUID, itineraries []types.GeneratedItinerary) error
	ClearItinerarySet(ctx context.Context, groupID uuid.UUID) error
	GetItinerarySet(ctx context.Context, groupID uuid.UUID) ([]types.GeneratedItinerary, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool DB
}

func NewRepository(pgpool DB, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

// Join codes avoid 0/O/1/I to stay readable when shared verbally.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
const codeLength = 6

func newJoinCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate join code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

func (r *RepositoryImpl) CreateGroup(ctx context.Context) (*types.Group, error) {
	// A code collision is vanishingly rare but cheap to retry.
	for attempt := 0; attempt < 5; attempt++ {
		code, err := newJoinCode()
		if err != nil {
			return nil, err
		}

		group := &types.Group{}
		query := `
        INSERT INTO groups (code)
        VALUES ($1)
        RETURNING id, code, created_at
    `
		err = r.pgpool.QueryRow(ctx, query, code).Scan(&group.ID, &group.Code, &group.CreatedAt)
		if err == nil {
			r.logger.InfoContext(ctx, "Group created", slog.String("group_id", group.ID.String()), slog.String("code", group.Code))
			return group, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, fmt.Errorf("failed to insert group: %w", err)
	}
	return nil, fmt.Errorf("failed to allocate a unique join code")
}

func (r *RepositoryImpl) GetGroupByCode(ctx context.Context, code string) (*types.Group, error) {
	group := &types.Group{}
	query := `
        SELECT id, code, created_at
        FROM groups
        WHERE code = $1
    `
	err := r.pgpool.QueryRow(ctx, query, code).Scan(&group.ID, &group.Code, &group.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("group %q: %w", code, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find group: %w", err)
	}

	members, err := r.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, err
	}
	group.Members = members
	return group, nil
}

func (r *RepositoryImpl) ListMembers(ctx context.Context, groupID uuid.UUID) ([]types.MemberPreference, error) {
	query := `
        SELECT group_id, member_id, display_name, home_location, lat, lng, budget, mood_tags, updated_at
        FROM group_members
        WHERE group_id = $1
        ORDER BY updated_at, member_id
    `
	rows, err := r.pgpool.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []types.MemberPreference
	for rows.Next() {
		var m types.MemberPreference
		if err := rows.Scan(&m.GroupID, &m.MemberID, &m.DisplayName, &m.HomeLocation,
			&m.Lat, &m.Lng, &m.Budget, &m.MoodTags, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading members: %w", err)
	}
	return members, nil
}

func (r *RepositoryImpl) UpsertMember(ctx context.Context, pref types.MemberPreference) error {
	query := `
        INSERT INTO group_members (group_id, member_id, display_name, home_location, lat, lng, budget, mood_tags, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (group_id, member_id) DO UPDATE SET
            display_name = EXCLUDED.display_name,
            home_location = EXCLUDED.home_location,
            lat = EXCLUDED.lat,
            lng = EXCLUDED.lng,
            budget = EXCLUDED.budget,
            mood_tags = EXCLUDED.mood_tags,
            updated_at = EXCLUDED.updated_at
    `
	return database.WithRetry(ctx, r.logger, "UpsertMember", func(ctx context.Context) error {
		_, err := r.pgpool.Exec(ctx, query,
			pref.GroupID, pref.MemberID, pref.DisplayName, pref.HomeLocation,
			pref.Lat, pref.Lng, pref.Budget, pref.MoodTags, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to upsert member: %w", err)
		}
		return nil
	})
}

// SaveItinerarySet replaces the group's persisted set wholesale
// (clear-then-save) inside one transaction. Votes reference itineraries by
// index, so they are deleted in the same transaction; a vote must never
// outlive the set it was cast against.
func (r *RepositoryImpl) SaveItinerarySet(ctx context.Context, groupID uuid.UUID, itineraries []types.GeneratedItinerary) error {
	return database.WithRetry(ctx, r.logger, "SaveItinerarySet", func(ctx context.Context) error {
		tx, err := r.pgpool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}
		defer tx.Rollback(ctx)

		if _, err := tx.Exec(ctx, `DELETE FROM group_votes WHERE group_id = $1`, groupID); err != nil {
			return fmt.Errorf("failed to clear votes: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM group_itineraries WHERE group_id = $1`, groupID); err != nil {
			return fmt.Errorf("failed to clear itinerary set: %w", err)
		}

		for idx, itinerary := range itineraries {
			payload, err := json.Marshal(itinerary)
			if err != nil {
				return fmt.Errorf("failed to marshal itinerary %d: %w", idx, err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO group_itineraries (group_id, idx, payload) VALUES ($1, $2, $3)`,
				groupID, idx, payload); err != nil {
				return fmt.Errorf("failed to insert itinerary %d: %w", idx, err)
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		r.logger.InfoContext(ctx, "Itinerary set saved",
			slog.String("group_id", groupID.String()),
			slog.Int("count", len(itineraries)))
		return nil
	})
}

func (r *RepositoryImpl) ClearItinerarySet(ctx context.Context, groupID uuid.UUID) error {
	return database.WithRetry(ctx, r.logger, "ClearItinerarySet", func(ctx context.Context) error {
		tx, err := r.pgpool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}
		defer tx.Rollback(ctx)

		if _, err := tx.Exec(ctx, `DELETE FROM group_votes WHERE group_id = $1`, groupID); err != nil {
			return fmt.Errorf("failed to clear votes: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM group_itineraries WHERE group_id = $1`, groupID); err != nil {
			return fmt.Errorf("failed to clear itinerary set: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	})
}

func (r *RepositoryImpl) GetItinerarySet(ctx context.Context, groupID uuid.UUID) ([]types.GeneratedItinerary, error) {
	query := `
        SELECT payload
        FROM group_itineraries
        WHERE group_id = $1
        ORDER BY idx
    `
	rows, err := r.pgpool.Query(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load itinerary set: %w", err)
	}
	defer rows.Close()

	var itineraries []types.GeneratedItinerary
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan itinerary payload: %w", err)
		}
		var itinerary types.GeneratedItinerary
		if err := json.Unmarshal(payload, &itinerary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal itinerary payload: %w", err)
		}
		itineraries = append(itineraries, itinerary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading itinerary set: %w", err)
	}
	return itineraries, nil
}
