// Package handler exposes the administrator endpoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	adminModel "opsconsole/internal/admin/models"
	"opsconsole/internal/identity"
	"opsconsole/internal/provision"
	"opsconsole/internal/transport/http/shared"
	dErrors "opsconsole/pkg/domainerrors"
	"opsconsole/pkg/requestcontext"
)

// Service defines the profile operations the handler needs.
type Service interface {
	Get(ctx context.Context, id identity.ID) (*adminModel.Admin, error)
	List(ctx context.Context, parentCompany string) ([]*adminModel.Admin, error)
	Update(ctx context.Context, id identity.ID, req adminModel.UpdateRequest) (*adminModel.Admin, error)
	Delete(ctx context.Context, id identity.ID) error
}

// Provisioner runs the account creation workflow.
type Provisioner interface {
	Provision(ctx context.Context, req provision.Request) (*provision.Result, error)
}

type Handler struct {
	admins      Service
	provisioner Provisioner
	logger      *slog.Logger
}

func New(admins Service, provisioner Provisioner, logger *slog.Logger) *Handler {
	return &Handler{admins: admins, provisioner: provisioner, logger: logger}
}

// Register mounts the admin routes. The caller applies the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admins", h.handleProvision)
	r.Get("/admins", h.handleList)
	r.Get("/admins/{id}", h.handleGet)
	r.Patch("/admins/{id}", h.handleUpdate)
	r.Delete("/admins/{id}", h.handleDelete)
}

type provisionResponse struct {
	Admin *adminModel.Admin `json:"admin"`
	Token string            `json:"token"`
}

type provisionErrorResponse struct {
	Error       string `json:"error"`
	Message     string `json:"message"`
	Step        string `json:"step,omitempty"`
	Rollback    string `json:"rollback,omitempty"`
	SessionLost bool   `json:"sessionLost,omitempty"`
}

func (h *Handler) handleProvision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req provision.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid provision request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.provisioner.Provision(ctx, req)
	if err != nil {
		h.writeProvisionError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, provisionResponse{
		Admin: result.Admin,
		// The operator's old token died with the session churn; the client
		// must switch to this one.
		Token: result.Session.Token,
	})
}

// writeProvisionError keeps the structured failure report: which step
// failed, what happened to the half-created identity, and whether the
// operator session was lost.
func (h *Handler) writeProvisionError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := provisionErrorResponse{
		Error:   string(code),
		Message: "provisioning failed",
	}

	var werr *provision.Error
	if errors.As(err, &werr) {
		body.Step = string(werr.Step)
		body.Rollback = string(werr.Rollback)
		body.SessionLost = werr.Critical
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		body.Message = de.Message
	}

	shared.WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	admins, err := h.admins.List(r.Context(), r.URL.Query().Get("parentCompany"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"admins": admins})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := identity.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	admin, err := h.admins.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, admin)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := identity.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req adminModel.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	admin, err := h.admins.Update(ctx, id, req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, admin)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := identity.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.admins.Delete(r.Context(), id); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
