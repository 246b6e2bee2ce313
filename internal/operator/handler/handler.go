// Package handler exposes the operator's own profile endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"opsconsole/internal/identity"
	operatorModel "opsconsole/internal/operator/models"
	"opsconsole/internal/transport/http/shared"
	dErrors "opsconsole/pkg/domainerrors"
	"opsconsole/pkg/requestcontext"
)

// Service defines the profile operations the handler needs.
type Service interface {
	Get(ctx context.Context, id identity.ID) (*operatorModel.Profile, error)
	Update(ctx context.Context, id identity.ID, req operatorModel.UpdateRequest) (*operatorModel.Profile, error)
}

type Handler struct {
	operators Service
	logger    *slog.Logger
}

func New(operators Service, logger *slog.Logger) *Handler {
	return &Handler{operators: operators, logger: logger}
}

// Register mounts the profile routes. The caller applies the auth
// middleware, so the actor in context is always the operator.
func (h *Handler) Register(r chi.Router) {
	r.Get("/profile", h.handleGet)
	r.Put("/profile", h.handleUpdate)
}

func (h *Handler) actorID(ctx context.Context) (identity.ID, error) {
	return identity.ParseID(requestcontext.ActorID(ctx))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := h.actorID(r.Context())
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}
	profile, err := h.operators.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := h.actorID(ctx)
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return
	}

	var req operatorModel.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	profile, err := h.operators.Update(ctx, id, req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, profile)
}
