package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	GenerationRequestsTotal   metric.Int64Counter
	GenerationDurationSeconds metric.Float64Histogram
	CandidateParseErrorsTotal metric.Int64Counter
	EnrichmentFailuresTotal   metric.Int64Counter
	VotesCastTotal            metric.Int64Counter
	DbQueryErrorsTotal        metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("MeetsyAPI")
		var err error
		m := &AppMetrics{}

		m.GenerationRequestsTotal, err = meter.Int64Counter(
			"generation_requests_total",
			metric.WithDescription("Total number of itinerary generation requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create generation_requests_total: %v", err)
		}

		m.GenerationDurationSeconds, err = meter.Float64Histogram(
			"generation_duration_seconds",
			metric.WithDescription("Duration of itinerary generation in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create generation_duration_seconds: %v", err)
		}

		m.CandidateParseErrorsTotal, err = meter.Int64Counter(
			"candidate_parse_errors_total",
			metric.WithDescription("Total number of AI candidate responses that failed to parse"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create candidate_parse_errors_total: %v", err)
		}

		m.EnrichmentFailuresTotal, err = meter.Int64Counter(
			"enrichment_failures_total",
			metric.WithDescription("Total number of itinerary items that failed place enrichment"),
			metric.WithUnit("{item}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create enrichment_failures_total: %v", err)
		}

		m.VotesCastTotal, err = meter.Int64Counter(
			"votes_cast_total",
			metric.WithDescription("Total number of votes cast"),
			metric.WithUnit("{vote}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create votes_cast_total: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the initialized metrics instance; nil until InitAppMetrics
// has run.
func Get() *AppMetrics {
	return appMetrics
}
