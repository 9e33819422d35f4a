package group

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meetsy/meetsy/internal/api"
	"github.com/meetsy/meetsy/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	CreateGroup(w http.ResponseWriter, r *http.Request)
	GetGroup(w http.ResponseWriter, r *http.Request)
	JoinGroup(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	groupService Service
	logger       *slog.Logger
}

func NewHandlerImpl(groupService Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		groupService: groupService,
		logger:       logger,
	}
}

func (h *HandlerImpl) CreateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "CreateGroup"))

	group, err := h.groupService.Create(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to create group", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create group")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, group)
}

func (h *HandlerImpl) GetGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetGroup"))

	code := chi.URLParam(r, "code")
	group, err := h.groupService.GetByCode(ctx, code)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Group not found")
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		default:
			l.ErrorContext(ctx, "Failed to get group", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve group")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, group)
}

func (h *HandlerImpl) JoinGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "JoinGroup"))

	code := chi.URLParam(r, "code")

	var params JoinParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	member, err := h.groupService.Join(ctx, code, params)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Group not found")
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		default:
			l.ErrorContext(ctx, "Failed to join group", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to join group")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, member)
}
