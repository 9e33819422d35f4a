package recommendation

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meetsy/meetsy/internal/api"
	"github.com/meetsy/meetsy/internal/api/group"
	"github.com/meetsy/meetsy/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GenerateRecommendations(w http.ResponseWriter, r *http.Request)
	GetRecommendations(w http.ResponseWriter, r *http.Request)
	ResetRecommendations(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	recommendationService Service
	groupService          group.Service
	logger                *slog.Logger
}

func NewHandlerImpl(recommendationService Service, groupService group.Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		recommendationService: recommendationService,
		groupService:          groupService,
		logger:                logger,
	}
}

func (h *HandlerImpl) GenerateRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GenerateRecommendations"))

	g, err := h.groupService.GetByCode(ctx, chi.URLParam(r, "code"))
	if err != nil {
		respondGroupError(w, r, l, err)
		return
	}

	itineraries, err := h.recommendationService.Generate(ctx, g.ID)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrNoResolvableLocations):
			api.ErrorResponse(w, r, http.StatusUnprocessableEntity, "No member location could be resolved")
		default:
			l.ErrorContext(ctx, "Failed to generate recommendations", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to generate recommendations")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, itineraries)
}

func (h *HandlerImpl) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetRecommendations"))

	g, err := h.groupService.GetByCode(ctx, chi.URLParam(r, "code"))
	if err != nil {
		respondGroupError(w, r, l, err)
		return
	}

	itineraries, err := h.recommendationService.Get(ctx, g.ID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch recommendations", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to fetch recommendations")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, itineraries)
}

func (h *HandlerImpl) ResetRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "ResetRecommendations"))

	g, err := h.groupService.GetByCode(ctx, chi.URLParam(r, "code"))
	if err != nil {
		respondGroupError(w, r, l, err)
		return
	}

	if err := h.recommendationService.Reset(ctx, g.ID); err != nil {
		l.ErrorContext(ctx, "Failed to reset recommendations", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to reset recommendations")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func respondGroupError(w http.ResponseWriter, r *http.Request, l *slog.Logger, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		api.ErrorResponse(w, r, http.StatusNotFound, "Group not found")
	case errors.Is(err, types.ErrValidation):
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
	default:
		l.ErrorContext(r.Context(), "Failed to resolve group", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to resolve group")
	}
}
