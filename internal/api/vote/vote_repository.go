package vote

import (
	"context"
	"fmt"
	"log/slog"

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
	UpsertVote(ctx context.Context, vote types.Vote) error
	ListVotes(ctx context.Context, groupID uuid.UUID) ([]types.Vote, error)
	CountItineraries(ctx context.Context, groupID uuid.UUID) (int, error)
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

// UpsertVote replaces the member's previous vote inside one transaction, so
// a reader never observes two live votes for the same member.
func (r *RepositoryImpl) UpsertVote(ctx context.Context, vote types.Vote) error {
	return database.WithRetry(ctx, r.logger, "UpsertVote", func(ctx context.Context) error {
		tx, err := r.pgpool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback(ctx)

		if _, err = tx.Exec(ctx,
			`DELETE FROM group_votes WHERE group_id = $1 AND member_id = $2`,
			vote.GroupID, vote.MemberID); err != nil {
			return fmt.Errorf("failed to delete previous vote: %w", err)
		}
		if _, err = tx.Exec(ctx,
			`INSERT INTO group_votes (group_id, member_id, itinerary_idx, cast_at)
             VALUES ($1, $2, $3, $4)`,
			vote.GroupID, vote.MemberID, vote.ItineraryIdx, vote.CastAt); err != nil {
			return fmt.Errorf("failed to insert vote: %w", err)
		}
		return tx.Commit(ctx)
	})
}

func (r *RepositoryImpl) ListVotes(ctx context.Context, groupID uuid.UUID) ([]types.Vote, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT group_id, member_id, itinerary_idx, cast_at
         FROM group_votes WHERE group_id = $1
         ORDER BY cast_at, member_id`,
		groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	var votes []types.Vote
	for rows.Next() {
		var v types.Vote
		if err := rows.Scan(&v.GroupID, &v.MemberID, &v.ItineraryIdx, &v.CastAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func (r *RepositoryImpl) CountItineraries(ctx context.Context, groupID uuid.UUID) (int, error) {
	var count int
	err := r.pgpool.QueryRow(ctx,
		`SELECT COUNT(*) FROM group_itineraries WHERE group_id = $1`,
		groupID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count itineraries: %w", err)
	}
	return count, nil
}
