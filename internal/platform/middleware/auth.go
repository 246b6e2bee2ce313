package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"opsconsole/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the identity it was
// issued to.
type TokenValidator interface {
	Validate(tokenString string) (identityID, email string, err error)
}

// SessionChecker reports whether the given identity holds the active
// operator session. The provider keeps at most one session, so a token
// minted before a session change must stop working even if it has not
// expired yet.
type SessionChecker interface {
	IsOperatorSession(identityID string) bool
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + code + `","message":"` + message + `"}`))
}

// RequireOperator guards the console routes. It accepts only a valid bearer
// token whose identity currently holds the operator session.
func RequireOperator(validator TokenValidator, sessions SessionChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid Authorization header")
				return
			}

			identityID, email, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			if !sessions.IsOperatorSession(identityID) {
				logger.WarnContext(ctx, "unauthorized access - stale session token",
					"identity_id", identityID,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "session is no longer active")
				return
			}

			ctx = requestcontext.WithActorID(ctx, identityID)
			ctx = requestcontext.WithActorEmail(ctx, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
