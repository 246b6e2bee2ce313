// Package handler exposes the sign-in endpoints and the session probe.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"opsconsole/internal/session"
	"opsconsole/internal/transport/http/shared"
	dErrors "opsconsole/pkg/domainerrors"
	"opsconsole/pkg/requestcontext"
	"opsconsole/pkg/timestamp"
)

type Handler struct {
	sessions *session.Manager
	logger   *slog.Logger
}

func New(sessions *session.Manager, logger *slog.Logger) *Handler {
	return &Handler{sessions: sessions, logger: logger}
}

// RegisterPublic mounts the routes reachable without a token.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/signin", h.handleSignIn)
}

// RegisterProtected mounts the routes behind the operator gate.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/auth/signout", h.handleSignOut)
	r.Get("/auth/session", h.handleSession)
}

type signInRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type signInResponse struct {
	Token    string              `json:"token"`
	Email    string              `json:"email"`
	IssuedAt timestamp.Timestamp `json:"issuedAt"`
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Email == "" || req.Secret == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "email and secret are required"))
		return
	}

	sess, err := h.sessions.SignIn(ctx, req.Email, req.Secret)
	if err != nil {
		h.logger.WarnContext(ctx, "sign-in rejected",
			"request_id", requestcontext.RequestID(ctx),
			"device", requestcontext.Device(ctx),
			"client_ip", requestcontext.ClientIP(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, signInResponse{
		Token:    sess.Token,
		Email:    sess.Identity.Email,
		IssuedAt: timestamp.New(sess.IssuedAt),
	})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(r.Context()); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

type sessionResponse struct {
	Active   bool   `json:"active"`
	Operator bool   `json:"operator"`
	Email    string `json:"email,omitempty"`
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	snap := h.sessions.Snapshot()
	resp := sessionResponse{Active: snap.Active, Operator: snap.Operator}
	if snap.Active {
		resp.Email = snap.Identity.Email
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}
