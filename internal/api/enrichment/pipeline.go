package enrichment

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/meetsy/meetsy/app/observability/metrics"
	"github.com/meetsy/meetsy/internal/api/places"
	"github.com/meetsy/meetsy/internal/types"
)

var _ Pipeline = (*PipelineImpl)(nil)

// Pipeline fills itinerary items with live place details. Enrichment is
// best-effort: provider failures mark the item, never the whole plan.
type Pipeline interface {
	Enrich(ctx context.Context, hubs map[string]types.Hub, itineraries []types.GeneratedItinerary) []types.GeneratedItinerary
}

type PipelineImpl struct {
	logger *slog.Logger
	places places.Service
}

func NewPipeline(placesClient places.Service, logger *slog.Logger) *PipelineImpl {
	return &PipelineImpl{
		logger: logger,
		places: placesClient,
	}
}

const maxItemPhotos = 2

// Enrich resolves every item of every itinerary concurrently. Each item has
// its own slot, so the fan-in is deterministic regardless of goroutine
// scheduling. Items the provider cannot resolve are marked failed; when an
// entire itinerary fails, a fallback item pointing at the hub itself is
// appended so the plan still renders.
func (p *PipelineImpl) Enrich(ctx context.Context, hubs map[string]types.Hub, itineraries []types.GeneratedItinerary) []types.GeneratedItinerary {
	ctx, span := otel.Tracer("EnrichmentPipeline").Start(ctx, "Enrich")
	defer span.End()

	var wg sync.WaitGroup
	for i := range itineraries {
		hub := hubs[itineraries[i].HubID]
		for j := range itineraries[i].Items {
			wg.Add(1)
			go func(item *types.ItineraryItem) {
				defer wg.Done()
				p.enrichItem(ctx, hub, item)
			}(&itineraries[i].Items[j])
		}
	}
	wg.Wait()

	enriched := 0
	for i := range itineraries {
		allFailed := len(itineraries[i].Items) > 0
		for _, item := range itineraries[i].Items {
			if item.Enrichment == types.EnrichmentDone {
				allFailed = false
				enriched++
			}
		}
		if allFailed {
			hub := hubs[itineraries[i].HubID]
			itineraries[i].Items = append(itineraries[i].Items, fallbackItem(hub))
			p.logger.WarnContext(ctx, "All items failed enrichment, appended hub fallback",
				slog.String("itinerary", itineraries[i].Name))
		}
	}
	span.SetAttributes(attribute.Int("items.enriched", enriched))
	return itineraries
}

func (p *PipelineImpl) enrichItem(ctx context.Context, hub types.Hub, item *types.ItineraryItem) {
	details, err := p.places.Lookup(ctx, item.Name+", "+hub.Name)
	if err != nil {
		p.logger.DebugContext(ctx, "Item enrichment failed",
			slog.String("item", item.Name), slog.Any("error", err))
		if m := metrics.Get(); m != nil {
			m.EnrichmentFailuresTotal.Add(ctx, 1)
		}
		item.Address = ""
		item.Rating = nil
		item.PriceLevel = nil
		item.Photos = []string{}
		item.Enrichment = types.EnrichmentFailed
		return
	}

	item.Address = details.FormattedAddress
	item.Lat = details.Lat
	item.Lng = details.Lng
	item.Rating = details.Rating
	item.PriceLevel = details.PriceLevel
	photos := details.PhotoReferences
	if len(photos) > maxItemPhotos {
		photos = photos[:maxItemPhotos]
	}
	if photos == nil {
		photos = []string{}
	}
	item.Photos = photos
	item.Enrichment = types.EnrichmentDone
}

// fallbackItem anchors an otherwise empty plan at the meeting area itself.
func fallbackItem(hub types.Hub) types.ItineraryItem {
	return types.ItineraryItem{
		ItemID:          hub.ID + "-fallback",
		PlaceID:         hub.ID,
		Name:            hub.Name,
		Address:         hub.Name,
		Lat:             hub.Lat,
		Lng:             hub.Lng,
		Categories:      []string{"meeting_point"},
		Photos:          []string{},
		DurationMinutes: 60,
		Reason:          "meet at the group midpoint and decide together",
		Enrichment:      types.EnrichmentFallback,
	}
}
