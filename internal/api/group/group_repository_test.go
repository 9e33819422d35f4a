package group

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetsy/meetsy/internal/types"
)

func setupRepositoryTest(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	repo := NewRepository(mockPool, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return repo, mockPool
}

// anyMemberArgs matches the nine arguments UpsertMember passes without
// constraining their values; pgxmock requires the argument count to match.
func anyMemberArgs() []interface{} {
	args := make([]interface{}, 9)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestRepositoryImpl_CreateGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		groupID := uuid.New()
		mockPool.ExpectQuery("INSERT INTO groups").
			WithArgs(pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id", "code", "created_at"}).
				AddRow(groupID, "ABC234", time.Now()))

		group, err := repo.CreateGroup(ctx)
		require.NoError(t, err)
		assert.Equal(t, groupID, group.ID)
		assert.Len(t, group.Code, codeLength)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("retries a join code collision", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		groupID := uuid.New()
		mockPool.ExpectQuery("INSERT INTO groups").
			WithArgs(pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505"})
		mockPool.ExpectQuery("INSERT INTO groups").
			WithArgs(pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id", "code", "created_at"}).
				AddRow(groupID, "XYZ789", time.Now()))

		group, err := repo.CreateGroup(ctx)
		require.NoError(t, err)
		assert.Equal(t, groupID, group.ID)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepositoryImpl_GetGroupByCode(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown code", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectQuery("SELECT id, code, created_at").
			WithArgs("NOSUCH").
			WillReturnRows(pgxmock.NewRows([]string{"id", "code", "created_at"}))

		_, err := repo.GetGroupByCode(ctx, "NOSUCH")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("loads members with the group", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		groupID := uuid.New()
		memberID := uuid.New()
		mockPool.ExpectQuery("SELECT id, code, created_at").
			WithArgs("ABC234").
			WillReturnRows(pgxmock.NewRows([]string{"id", "code", "created_at"}).
				AddRow(groupID, "ABC234", time.Now()))
		mockPool.ExpectQuery("SELECT group_id, member_id").
			WithArgs(groupID).
			WillReturnRows(pgxmock.NewRows([]string{
				"group_id", "member_id", "display_name", "home_location",
				"lat", "lng", "budget", "mood_tags", "updated_at",
			}).AddRow(groupID, memberID, "Ana", "Alfama, Lisbon",
				nil, nil, 25.0, []string{"foodie"}, time.Now()))

		group, err := repo.GetGroupByCode(ctx, "ABC234")
		require.NoError(t, err)
		require.Len(t, group.Members, 1)
		assert.Equal(t, "Ana", group.Members[0].DisplayName)
		assert.Equal(t, []string{"foodie"}, group.Members[0].MoodTags)
	})
}

func TestRepositoryImpl_UpsertMember(t *testing.T) {
	ctx := context.Background()
	pref := types.MemberPreference{
		GroupID:      uuid.New(),
		MemberID:     uuid.New(),
		DisplayName:  "Ana",
		HomeLocation: "Alfama, Lisbon",
		Budget:       25,
		MoodTags:     []string{"foodie"},
	}

	t.Run("transient conflicts are retried", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectExec("INSERT INTO group_members").
			WithArgs(anyMemberArgs()...).
			WillReturnError(&pgconn.PgError{Code: "40001"})
		mockPool.ExpectExec("INSERT INTO group_members").
			WithArgs(anyMemberArgs()...).
			WillReturnError(&pgconn.PgError{Code: "40P01"})
		mockPool.ExpectExec("INSERT INTO group_members").
			WithArgs(anyMemberArgs()...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.UpsertMember(ctx, pref)
		require.NoError(t, err)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("exhausted retries surface a store conflict", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		for i := 0; i < 3; i++ {
			mockPool.ExpectExec("INSERT INTO group_members").
				WithArgs(anyMemberArgs()...).
				WillReturnError(&pgconn.PgError{Code: "40001"})
		}

		err := repo.UpsertMember(ctx, pref)
		assert.ErrorIs(t, err, types.ErrStoreConflict)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("non-retryable errors fail immediately", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectExec("INSERT INTO group_members").
			WithArgs(anyMemberArgs()...).
			WillReturnError(&pgconn.PgError{Code: "23503"})

		err := repo.UpsertMember(ctx, pref)
		require.Error(t, err)
		assert.NotErrorIs(t, err, types.ErrStoreConflict)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestRepositoryImpl_ItinerarySet(t *testing.T) {
	ctx := context.Background()
	groupID := uuid.New()

	itinerary := types.GeneratedItinerary{
		ID:        uuid.New(),
		HubID:     "centroid",
		HubName:   "Group midpoint",
		Archetype: types.ArchetypeFoodie,
		Name:      "Food crawl near group midpoint",
		Items: []types.ItineraryItem{{
			ItemID:  "centroid-foodie-0",
			PlaceID: "p-1",
			Name:    "Time Out Market",
		}},
	}

	t.Run("save replaces the set and drops its votes in one transaction", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec("DELETE FROM group_votes").
			WithArgs(groupID).
			WillReturnResult(pgxmock.NewResult("DELETE", 2))
		mockPool.ExpectExec("DELETE FROM group_itineraries").
			WithArgs(groupID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mockPool.ExpectExec("INSERT INTO group_itineraries").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()
		mockPool.ExpectRollback()

		err := repo.SaveItinerarySet(ctx, groupID, []types.GeneratedItinerary{itinerary})
		require.NoError(t, err)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("clear drops itineraries and votes together", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec("DELETE FROM group_votes").
			WithArgs(groupID).
			WillReturnResult(pgxmock.NewResult("DELETE", 3))
		mockPool.ExpectExec("DELETE FROM group_itineraries").
			WithArgs(groupID).
			WillReturnResult(pgxmock.NewResult("DELETE", 4))
		mockPool.ExpectCommit()
		mockPool.ExpectRollback()

		err := repo.ClearItinerarySet(ctx, groupID)
		require.NoError(t, err)
		require.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("get unmarshals payloads in index order", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		payload, err := json.Marshal(itinerary)
		require.NoError(t, err)
		mockPool.ExpectQuery("SELECT payload").
			WithArgs(groupID).
			WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(payload))

		itineraries, err := repo.GetItinerarySet(ctx, groupID)
		require.NoError(t, err)
		require.Len(t, itineraries, 1)
		assert.Equal(t, itinerary.ID, itineraries[0].ID)
		assert.Equal(t, itinerary.Items[0].Name, itineraries[0].Items[0].Name)
	})

	t.Run("empty set", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectQuery("SELECT payload").
			WithArgs(groupID).
			WillReturnRows(pgxmock.NewRows([]string{"payload"}))

		itineraries, err := repo.GetItinerarySet(ctx, groupID)
		require.NoError(t, err)
		assert.Empty(t, itineraries)
	})
}
