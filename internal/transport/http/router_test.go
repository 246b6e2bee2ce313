package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adminhandler "opsconsole/internal/admin/handler"
	adminservice "opsconsole/internal/admin/service"
	adminstore "opsconsole/internal/admin/store"
	"opsconsole/internal/identity"
	kychandler "opsconsole/internal/kyc/handler"
	kycservice "opsconsole/internal/kyc/service"
	kycstore "opsconsole/internal/kyc/store"
	operatorhandler "opsconsole/internal/operator/handler"
	operatorservice "opsconsole/internal/operator/service"
	operatorstore "opsconsole/internal/operator/store"
	"opsconsole/internal/provision"
	"opsconsole/internal/session"
	sessionhandler "opsconsole/internal/session/handler"
	"opsconsole/pkg/testutil"
)

const (
	operatorEmail  = "ops@example.com"
	operatorSecret = "operator-secret"
)

// newTestRouter assembles the full router against in-memory stores, the way
// cmd/server does without postgres or redis configured.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	issuer := identity.NewTokenIssuer("router-test-key", time.Hour)
	provider := identity.NewInMemoryProvider(issuer)
	_, err := provider.Seed(operatorEmail, operatorSecret)
	require.NoError(t, err)

	operators := operatorservice.New(operatorstore.NewMemory())
	sessions := session.NewManager(provider, operatorEmail, operators)
	t.Cleanup(sessions.Close)

	adminStore := adminstore.NewMemory()
	admins := adminservice.New(adminStore)
	workflow := provision.New(provider, adminStore, sessions)
	kyc := kycservice.New(kycstore.NewMemory())

	return NewRouter(Deps{
		Logger:   log,
		Issuer:   issuer,
		Sessions: sessions,
		Auth:     sessionhandler.New(sessions, log),
		Admins:   adminhandler.New(admins, workflow, log),
		Kyc:      kychandler.New(kyc, log),
		Operator: operatorhandler.New(operators, log),
	})
}

func TestRouter(t *testing.T) {
	router := newTestRouter(t)

	testutil.Given(t, "the assembled console router", func(t *testing.T) {
		testutil.When(t, "probing the health endpoint", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			testutil.Then(t, "it reports ok", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, rec.Code)
			})
		})

		testutil.When(t, "hitting a console route without a token", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admins", nil))

			testutil.Then(t, "the gate rejects the request", func(t *testing.T) {
				assert.Equal(t, http.StatusUnauthorized, rec.Code)
			})
		})

		var token string
		testutil.When(t, "signing in as the operator", func(t *testing.T) {
			body, _ := json.Marshal(map[string]string{
				"email":  operatorEmail,
				"secret": operatorSecret,
			})
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signin", bytes.NewReader(body)))

			testutil.Then(t, "a session token is issued", func(t *testing.T) {
				require.Equal(t, http.StatusOK, rec.Code)
				var resp struct {
					Token string `json:"token"`
					Email string `json:"email"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				require.NotEmpty(t, resp.Token)
				assert.Equal(t, operatorEmail, resp.Email)
				token = resp.Token
			})
		})

		testutil.When(t, "probing the session with the token", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			testutil.Then(t, "the session is active and belongs to the operator", func(t *testing.T) {
				require.Equal(t, http.StatusOK, rec.Code)
				var resp struct {
					Active   bool `json:"active"`
					Operator bool `json:"operator"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.True(t, resp.Active)
				assert.True(t, resp.Operator)
			})
		})

		testutil.When(t, "listing administrators with the token", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admins", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			testutil.Then(t, "the console route is reachable", func(t *testing.T) {
				assert.Equal(t, http.StatusOK, rec.Code)
			})
		})

		testutil.When(t, "signing out", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/signout", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)

			testutil.Then(t, "the old token no longer passes the gate", func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, "/admins", nil)
				req.Header.Set("Authorization", "Bearer "+token)
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, req)
				assert.Equal(t, http.StatusUnauthorized, rec.Code)
			})
		})
	})
}
