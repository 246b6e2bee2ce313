package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsconsole/pkg/requestcontext"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admins", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDHonorsInboundHeader(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/admins", nil)
	req.Header.Set("X-Request-ID", "upstream-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "upstream-42", seen)
}

func TestRecoveryConvertsPanicTo500(t *testing.T) {
	handler := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestClientMetadataParsesDevice(t *testing.T) {
	var device, ip string
	handler := ClientMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		device = requestcontext.Device(r.Context())
		ip = requestcontext.ClientIP(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, device, "Chrome 120")
	assert.Contains(t, device, "Linux")
	assert.Equal(t, "203.0.113.7", ip)
}

type stubValidator struct {
	identityID string
	email      string
	err        error
}

func (v stubValidator) Validate(string) (string, string, error) {
	return v.identityID, v.email, v.err
}

type stubSessions struct{ active string }

func (s stubSessions) IsOperatorSession(identityID string) bool {
	return identityID == s.active
}

func TestRequireOperator(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("missing header", func(t *testing.T) {
		handler := RequireOperator(stubValidator{}, stubSessions{}, discardLogger())(next)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admins", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		handler := RequireOperator(stubValidator{err: errors.New("expired")}, stubSessions{}, discardLogger())(next)
		req := httptest.NewRequest(http.MethodGet, "/admins", nil)
		req.Header.Set("Authorization", "Bearer bad")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token for an identity without the active session", func(t *testing.T) {
		handler := RequireOperator(stubValidator{identityID: "id-1"}, stubSessions{active: "id-2"}, discardLogger())(next)
		req := httptest.NewRequest(http.MethodGet, "/admins", nil)
		req.Header.Set("Authorization", "Bearer stale")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("active operator passes and actor lands in context", func(t *testing.T) {
		var actor, email string
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor = requestcontext.ActorID(r.Context())
			email = requestcontext.ActorEmail(r.Context())
			w.WriteHeader(http.StatusNoContent)
		})
		handler := RequireOperator(stubValidator{identityID: "id-1", email: "ops@example.com"}, stubSessions{active: "id-1"}, discardLogger())(inner)
		req := httptest.NewRequest(http.MethodGet, "/admins", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "id-1", actor)
		assert.Equal(t, "ops@example.com", email)
	})
}
