package vote

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meetsy/meetsy/internal/api"
	"github.com/meetsy/meetsy/internal/api/group"
	"github.com/meetsy/meetsy/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	CastVote(w http.ResponseWriter, r *http.Request)
	GetTally(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	voteService  Service
	groupService group.Service
	logger       *slog.Logger
}

func NewHandlerImpl(voteService Service, groupService group.Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		voteService:  voteService,
		groupService: groupService,
		logger:       logger,
	}
}

type castVoteRequest struct {
	MemberID     uuid.UUID `json:"member_id"`
	ItineraryIdx int       `json:"itinerary_idx"`
}

func (h *HandlerImpl) CastVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "CastVote"))

	g, err := h.groupService.GetByCode(ctx, chi.URLParam(r, "code"))
	if err != nil {
		h.respondGroupError(w, r, l, err)
		return
	}

	var req castVoteRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.MemberID == uuid.Nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "member_id is required")
		return
	}

	tally, err := h.voteService.CastVote(ctx, g.ID, req.MemberID, req.ItineraryIdx)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrStoreConflict):
			api.ErrorResponse(w, r, http.StatusConflict, "Vote could not be recorded, please retry")
		default:
			l.ErrorContext(ctx, "Failed to cast vote", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to cast vote")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, tally)
}

func (h *HandlerImpl) GetTally(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetTally"))

	g, err := h.groupService.GetByCode(ctx, chi.URLParam(r, "code"))
	if err != nil {
		h.respondGroupError(w, r, l, err)
		return
	}

	tally, err := h.voteService.Tally(ctx, g.ID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to tally votes", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to tally votes")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, tally)
}

func (h *HandlerImpl) respondGroupError(w http.ResponseWriter, r *http.Request, l *slog.Logger, err error) {
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
