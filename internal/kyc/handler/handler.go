// Package handler exposes the KYC review endpoints.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	kycModel "opsconsole/internal/kyc/models"
	"opsconsole/internal/transport/http/shared"
	dErrors "opsconsole/pkg/domainerrors"
	"opsconsole/pkg/requestcontext"
)

// Service defines the KYC operations the handler needs.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*kycModel.Submission, error)
	List(ctx context.Context, status, search string) ([]*kycModel.Submission, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, remarks string) (*kycModel.Submission, error)
	Export(ctx context.Context, w io.Writer, status, search string) error
}

type Handler struct {
	kyc    Service
	logger *slog.Logger
}

func New(kyc Service, logger *slog.Logger) *Handler {
	return &Handler{kyc: kyc, logger: logger}
}

// Register mounts the KYC routes. The caller applies the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/kyc", h.handleList)
	r.Get("/kyc/export", h.handleExport)
	r.Get("/kyc/{id}", h.handleGet)
	r.Post("/kyc/{id}/status", h.handleUpdateStatus)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	subs, err := h.kyc.List(r.Context(), q.Get("status"), q.Get("search"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid submission ID"))
		return
	}
	sub, err := h.kyc.Get(r.Context(), id)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sub)
}

type updateStatusRequest struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid submission ID"))
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid status update request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	sub, err := h.kyc.UpdateStatus(ctx, id, req.Status, req.Remarks)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// Build the file before touching the response so a failure can still
	// produce a clean JSON error.
	var buf bytes.Buffer
	if err := h.kyc.Export(r.Context(), &buf, q.Get("status"), q.Get("search")); err != nil {
		shared.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="kyc_export.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "kyc export interrupted",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
	}
}
