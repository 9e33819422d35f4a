package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/meetsy/meetsy/internal/api/group"
	"github.com/meetsy/meetsy/internal/api/recommendation"
	"github.com/meetsy/meetsy/internal/api/vote"
)

// Config contains the handlers the router mounts.
type Config struct {
	GroupHandler          group.Handler
	RecommendationHandler recommendation.Handler
	VoteHandler           vote.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are applied before
// mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/groups", cfg.GroupHandler.CreateGroup)

		r.Route("/groups/{code}", func(r chi.Router) {
			r.Get("/", cfg.GroupHandler.GetGroup)
			r.Post("/members", cfg.GroupHandler.JoinGroup)

			r.Post("/recommendations", cfg.RecommendationHandler.GenerateRecommendations)
			r.Get("/recommendations", cfg.RecommendationHandler.GetRecommendations)
			r.Delete("/recommendations", cfg.RecommendationHandler.ResetRecommendations)

			r.Post("/votes", cfg.VoteHandler.CastVote)
			r.Get("/votes", cfg.VoteHandler.GetTally)
		})
	})

	return r
}
