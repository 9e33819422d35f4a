package preference

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meetsy/meetsy/internal/types"
)

// MockPlacesService is a mock implementation of places.Service
type MockPlacesService struct {
	mock.Mock
}

func (m *MockPlacesService) Geocode(ctx context.Context, address string) (types.GeoPoint, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(types.GeoPoint), args.Error(1)
}

func (m *MockPlacesService) Lookup(ctx context.Context, query string) (*types.PlaceDetails, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PlaceDetails), args.Error(1)
}

func setupAggregatorTest() (*AggregatorImpl, *MockPlacesService) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockPlaces := new(MockPlacesService)
	return NewAggregator(mockPlaces, logger), mockPlaces
}

func member(location string, budget float64, tags ...string) types.MemberPreference {
	return types.MemberPreference{
		GroupID:      uuid.New(),
		MemberID:     uuid.New(),
		DisplayName:  "member",
		HomeLocation: location,
		Budget:       budget,
		MoodTags:     tags,
	}
}

func TestAggregatorImpl_Aggregate(t *testing.T) {
	ctx := context.Background()

	t.Run("centroid of resolved locations", func(t *testing.T) {
		aggregator, mockPlaces := setupAggregatorTest()
		mockPlaces.On("Geocode", mock.Anything, "Alfama, Lisbon").
			Return(types.GeoPoint{Lat: 38.71, Lng: -9.13}, nil).Once()
		mockPlaces.On("Geocode", mock.Anything, "Belem, Lisbon").
			Return(types.GeoPoint{Lat: 38.69, Lng: -9.21}, nil).Once()

		profile, err := aggregator.Aggregate(ctx, []types.MemberPreference{
			member("Alfama, Lisbon", 20, "foodie"),
			member("Belem, Lisbon", 40, "foodie", "cultural"),
		})
		require.NoError(t, err)
		assert.Equal(t, 2, profile.MemberCount)
		assert.Len(t, profile.ResolvedLocations, 2)
		assert.InDelta(t, 38.70, profile.Centroid.Lat, 0.001)
		assert.InDelta(t, -9.17, profile.Centroid.Lng, 0.001)
		mockPlaces.AssertExpectations(t)
	})

	t.Run("stored coordinates skip geocoding", func(t *testing.T) {
		aggregator, mockPlaces := setupAggregatorTest()
		lat, lng := 38.71, -9.13
		m := member("Alfama, Lisbon", 20)
		m.Lat, m.Lng = &lat, &lng

		profile, err := aggregator.Aggregate(ctx, []types.MemberPreference{m})
		require.NoError(t, err)
		assert.Equal(t, types.GeoPoint{Lat: lat, Lng: lng}, profile.Centroid)
		mockPlaces.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)
	})

	t.Run("unresolvable member is skipped", func(t *testing.T) {
		aggregator, mockPlaces := setupAggregatorTest()
		mockPlaces.On("Geocode", mock.Anything, "nowhere").
			Return(types.GeoPoint{}, errors.New("no results")).Once()
		mockPlaces.On("Geocode", mock.Anything, "Alfama, Lisbon").
			Return(types.GeoPoint{Lat: 38.71, Lng: -9.13}, nil).Once()

		profile, err := aggregator.Aggregate(ctx, []types.MemberPreference{
			member("nowhere", 10, "party"),
			member("Alfama, Lisbon", 30, "foodie"),
		})
		require.NoError(t, err)
		assert.Len(t, profile.ResolvedLocations, 1)
		// The skipped member still contributes budget and tags.
		assert.Equal(t, 20.0, profile.BudgetMean)
		assert.Equal(t, 1, profile.MoodTagCounts["party"])
	})

	t.Run("no resolvable locations", func(t *testing.T) {
		aggregator, mockPlaces := setupAggregatorTest()
		mockPlaces.On("Geocode", mock.Anything, mock.Anything).
			Return(types.GeoPoint{}, errors.New("no results"))

		_, err := aggregator.Aggregate(ctx, []types.MemberPreference{
			member("nowhere", 10),
			member("also nowhere", 10),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrNoResolvableLocations)
	})

	t.Run("empty member list", func(t *testing.T) {
		aggregator, _ := setupAggregatorTest()
		_, err := aggregator.Aggregate(ctx, nil)
		assert.ErrorIs(t, err, types.ErrValidation)
	})

	t.Run("mood tags ordered by frequency then name", func(t *testing.T) {
		aggregator, mockPlaces := setupAggregatorTest()
		mockPlaces.On("Geocode", mock.Anything, mock.Anything).
			Return(types.GeoPoint{Lat: 1, Lng: 1}, nil)

		profile, err := aggregator.Aggregate(ctx, []types.MemberPreference{
			member("a", 10, "relaxed", "foodie"),
			member("b", 10, "foodie", "cultural"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"foodie", "cultural", "relaxed"}, profile.MoodTags)
	})

	t.Run("budget mean ignores zero budgets", func(t *testing.T) {
		aggregator, mockPlaces := setupAggregatorTest()
		mockPlaces.On("Geocode", mock.Anything, mock.Anything).
			Return(types.GeoPoint{Lat: 1, Lng: 1}, nil)

		profile, err := aggregator.Aggregate(ctx, []types.MemberPreference{
			member("a", 0),
			member("b", 50),
		})
		require.NoError(t, err)
		assert.Equal(t, 50.0, profile.BudgetMean)
		assert.Equal(t, 3, profile.BudgetTier)
	})
}

func TestBudgetTier(t *testing.T) {
	assert.Equal(t, 1, budgetTier(0))
	assert.Equal(t, 1, budgetTier(15))
	assert.Equal(t, 2, budgetTier(16))
	assert.Equal(t, 2, budgetTier(40))
	assert.Equal(t, 3, budgetTier(41))
	assert.Equal(t, 3, budgetTier(90))
	assert.Equal(t, 4, budgetTier(91))
}
