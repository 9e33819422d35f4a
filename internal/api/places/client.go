package places

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	cache "github.com/patrickmn/go-cache"

	"github.com/meetsy/meetsy/config"
	"github.com/meetsy/meetsy/internal/types"
)

var _ Service = (*ClientImpl)(nil)

// Service is the boundary to the external geocoding / places provider.
// Lookup returns types.ErrNotFound on an empty result set; any other error
// is a transport or provider failure.
type Service interface {
	Geocode(ctx context.Context, address string) (types.GeoPoint, error)
	Lookup(ctx context.Context, query string) (*types.PlaceDetails, error)
}

type ClientImpl struct {
	logger *slog.Logger
	rest   *resty.Client
	cache  *cache.Cache
	apiKey string
}

// NewClient builds a places client with per-call timeouts and a result cache.
// Completed lookups are reused across generations, which also keeps the
// enrichment pipeline idempotent for a stable provider.
func NewClient(cfg config.PlacesConfig, logger *slog.Logger) *ClientImpl {
	rest := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.TimeoutSec) * time.Second).
		SetRetryCount(0)

	return &ClientImpl{
		logger: logger,
		rest:   rest,
		cache:  cache.New(cfg.CacheTTL, time.Hour),
		apiKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type textSearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID          string   `json:"place_id"`
		Name             string   `json:"name"`
		FormattedAddress string   `json:"formatted_address"`
		Rating           *float64 `json:"rating"`
		UserRatingsTotal *int     `json:"user_ratings_total"`
		PriceLevel       *int     `json:"price_level"`
		Types            []string `json:"types"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Photos []struct {
			PhotoReference string `json:"photo_reference"`
		} `json:"photos"`
	} `json:"results"`
}

func (c *ClientImpl) Geocode(ctx context.Context, address string) (types.GeoPoint, error) {
	cacheKey := "geocode:" + address
	if cached, found := c.cache.Get(cacheKey); found {
		return cached.(types.GeoPoint), nil
	}

	var body geocodeResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"address": address,
			"key":     c.apiKey,
		}).
		SetResult(&body).
		Get("/geocode/json")
	if err != nil {
		return types.GeoPoint{}, fmt.Errorf("geocode request failed: %w", err)
	}
	if resp.IsError() {
		return types.GeoPoint{}, fmt.Errorf("geocode request failed with status %d", resp.StatusCode())
	}
	if len(body.Results) == 0 {
		return types.GeoPoint{}, fmt.Errorf("geocode %q: %w", address, types.ErrNotFound)
	}

	point := types.GeoPoint{
		Lat: body.Results[0].Geometry.Location.Lat,
		Lng: body.Results[0].Geometry.Location.Lng,
	}
	c.cache.Set(cacheKey, point, cache.DefaultExpiration)
	return point, nil
}

func (c *ClientImpl) Lookup(ctx context.Context, query string) (*types.PlaceDetails, error) {
	cacheKey := "place:" + query
	if cached, found := c.cache.Get(cacheKey); found {
		details := cached.(types.PlaceDetails)
		return &details, nil
	}

	var body textSearchResponse
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query": query,
			"key":   c.apiKey,
		}).
		SetResult(&body).
		Get("/place/textsearch/json")
	if err != nil {
		return nil, fmt.Errorf("place lookup request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("place lookup failed with status %d", resp.StatusCode())
	}
	if len(body.Results) == 0 {
		c.logger.DebugContext(ctx, "Place lookup returned no results", slog.String("query", query))
		return nil, fmt.Errorf("place lookup %q: %w", query, types.ErrNotFound)
	}

	first := body.Results[0]
	details := types.PlaceDetails{
		PlaceID:          first.PlaceID,
		Name:             first.Name,
		FormattedAddress: first.FormattedAddress,
		Lat:              first.Geometry.Location.Lat,
		Lng:              first.Geometry.Location.Lng,
		Rating:           first.Rating,
		UserRatingsTotal: first.UserRatingsTotal,
		PriceLevel:       first.PriceLevel,
		Types:            first.Types,
	}
	for _, photo := range first.Photos {
		details.PhotoReferences = append(details.PhotoReferences, photo.PhotoReference)
	}

	c.cache.Set(cacheKey, details, cache.DefaultExpiration)
	return &details, nil
}
