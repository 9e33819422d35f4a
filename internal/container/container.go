package container

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/meetsy/meetsy/app/db"
	"github.com/meetsy/meetsy/config"
	"github.com/meetsy/meetsy/internal/api/enrichment"
	generativeAI "github.com/meetsy/meetsy/internal/api/generative_ai"
	"github.com/meetsy/meetsy/internal/api/group"
	"github.com/meetsy/meetsy/internal/api/places"
	"github.com/meetsy/meetsy/internal/api/preference"
	"github.com/meetsy/meetsy/internal/api/recommendation"
	"github.com/meetsy/meetsy/internal/api/vote"
)

// Container holds all application dependencies.
type Container struct {
	Config                *config.Config
	Logger                *slog.Logger
	Pool                  *pgxpool.Pool
	GroupHandler          *group.HandlerImpl
	RecommendationHandler *recommendation.HandlerImpl
	VoteHandler           *vote.HandlerImpl
}

// NewContainer initializes and returns a new dependency container.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	placesClient := places.NewClient(cfg.Places, logger)

	aiClient, err := generativeAI.NewAIClient(ctx, cfg.Gemini)
	if err != nil {
		logger.Error("Failed to initialize AI client", slog.Any("error", err))
		pool.Close()
		return nil, err
	}

	groupRepo := group.NewRepository(pool, logger)
	groupService := group.NewService(groupRepo, placesClient, logger)
	groupHandler := group.NewHandlerImpl(groupService, logger)

	aggregator := preference.NewAggregator(placesClient, logger)
	source := recommendation.NewAISource(aiClient, placesClient, cfg.Gemini, logger)
	enricher := enrichment.NewPipeline(placesClient, logger)
	recommendationService := recommendation.NewServiceImpl(groupRepo, aggregator, source, enricher, cfg.Recommendation, logger)
	recommendationHandler := recommendation.NewHandlerImpl(recommendationService, groupService, logger)

	voteRepo := vote.NewRepository(pool, logger)
	voteService := vote.NewService(voteRepo, logger)
	voteHandler := vote.NewHandlerImpl(voteService, groupService, logger)

	return &Container{
		Config:                cfg,
		Logger:                logger,
		Pool:                  pool,
		GroupHandler:          groupHandler,
		RecommendationHandler: recommendationHandler,
		VoteHandler:           voteHandler,
	}, nil
}

// Close releases all resources held by the container.
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}
