// Package session enforces the operator gate on top of the identity
// provider's single session. Whatever identity ends up holding the session,
// only the configured operator account may keep it: any other identity is
// signed out as soon as it is observed.
package session

import (
	"context"
	"log/slog"
	"sync"

	"opsconsole/internal/audit"
	"opsconsole/internal/identity"
	operatorsvc "opsconsole/internal/operator/service"
	"opsconsole/internal/platform/metrics"
	dErrors "opsconsole/pkg/domainerrors"
)

// Snapshot is the gate's view of the provider session at one instant.
type Snapshot struct {
	Active   bool
	Operator bool
	Identity identity.Identity
}

// Manager watches provider session changes and enforces the operator gate.
// Provisioning churns the session on purpose; it wraps the churn in
// Suppress so the gate does not fight the workflow, and the gate re-checks
// the session once the workflow releases it.
type Manager struct {
	provider      identity.Provider
	operatorEmail string
	operators     *operatorsvc.Service
	publisher     *audit.Publisher
	metrics       *metrics.Metrics
	logger        *slog.Logger

	mu            sync.Mutex
	suppressDepth int

	unsubscribe func()
}

type Option func(*Manager)

func WithAuditPublisher(publisher *audit.Publisher) Option {
	return func(m *Manager) { m.publisher = publisher }
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager wires the gate to the provider and starts watching session
// changes immediately.
func NewManager(provider identity.Provider, operatorEmail string, operators *operatorsvc.Service, opts ...Option) *Manager {
	m := &Manager{
		provider:      provider,
		operatorEmail: identity.NormalizeEmail(operatorEmail),
		operators:     operators,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.unsubscribe = provider.OnSessionChange(m.onSessionChange)
	return m
}

// Close stops watching session changes.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// IsOperator reports whether the given email belongs to the operator
// account. The comparison is case-insensitive.
func (m *Manager) IsOperator(email string) bool {
	return identity.NormalizeEmail(email) == m.operatorEmail
}

// IsOperatorSession reports whether the given identity currently holds the
// session and is the operator. Tokens for replaced sessions fail here even
// before they expire.
func (m *Manager) IsOperatorSession(identityID string) bool {
	current := m.provider.Current()
	return current != nil &&
		current.ID.String() == identityID &&
		m.IsOperator(current.Email)
}

// Snapshot returns the current session state.
func (m *Manager) Snapshot() Snapshot {
	current := m.provider.Current()
	if current == nil {
		return Snapshot{}
	}
	return Snapshot{
		Active:   true,
		Operator: m.IsOperator(current.Email),
		Identity: *current,
	}
}

// Suppress pauses gate enforcement and returns a release func. Releases
// nest; when the last one runs, the gate re-evaluates whatever session the
// provider holds at that point.
func (m *Manager) Suppress() (release func()) {
	m.mu.Lock()
	m.suppressDepth++
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			m.suppressDepth--
			last := m.suppressDepth == 0
			m.mu.Unlock()
			if last {
				m.enforce(m.provider.Current())
			}
		})
	}
}

// SignIn authenticates against the provider and then applies the gate: a
// successful credential check for any identity other than the operator is
// still a denial, and that identity's session is ended immediately.
func (m *Manager) SignIn(ctx context.Context, email, secret string) (identity.Session, error) {
	session, err := m.provider.SignIn(ctx, email, secret)
	if err != nil {
		m.emit(ctx, audit.Event{
			Action:  audit.ActionAuthFailed,
			Subject: identity.NormalizeEmail(email),
			Detail:  err.Error(),
		})
		return identity.Session{}, err
	}

	if !m.IsOperator(session.Identity.Email) {
		// The gate listener has already ended this session; SignOut here is
		// an idempotent belt for providers that notify asynchronously.
		_ = m.provider.SignOut(ctx)
		return identity.Session{}, dErrors.New(dErrors.CodeForbidden, "this console is restricted to the operator account")
	}

	m.emit(ctx, audit.Event{
		Action:  audit.ActionOperatorSignedIn,
		ActorID: session.Identity.ID.String(),
		Subject: session.Identity.Email,
	})
	return session, nil
}

// SignOut ends the operator's session.
func (m *Manager) SignOut(ctx context.Context) error {
	current := m.provider.Current()
	if err := m.provider.SignOut(ctx); err != nil {
		return err
	}
	if current != nil {
		m.emit(ctx, audit.Event{
			Action:  audit.ActionOperatorSignedOut,
			ActorID: current.ID.String(),
			Subject: current.Email,
		})
	}
	return nil
}

func (m *Manager) onSessionChange(current *identity.Identity) {
	m.mu.Lock()
	suppressed := m.suppressDepth > 0
	m.mu.Unlock()
	if suppressed {
		return
	}
	m.enforce(current)
}

// enforce applies the gate to an observed session. Runs outside the manager
// lock because forcing a sign-out re-enters the listener.
func (m *Manager) enforce(current *identity.Identity) {
	if current == nil {
		return
	}
	ctx := context.Background()

	if m.IsOperator(current.Email) {
		if m.operators != nil {
			if _, err := m.operators.Ensure(ctx, *current); err != nil && m.logger != nil {
				m.logger.Warn("failed to ensure operator profile", "error", err)
			}
		}
		return
	}

	if m.logger != nil {
		m.logger.Warn("non-operator session detected, forcing sign-out",
			"identity_id", current.ID.String(),
			"email", current.Email,
		)
	}
	m.metrics.IncForcedSignOut()
	m.emit(ctx, audit.Event{
		Action:  audit.ActionForcedSignOut,
		Subject: current.Email,
		Detail:  "session held by a non-operator identity",
	})
	if err := m.provider.SignOut(ctx); err != nil && m.logger != nil {
		m.logger.Error("forced sign-out failed", "error", err)
	}
}

func (m *Manager) emit(ctx context.Context, event audit.Event) {
	if m.publisher != nil {
		_ = m.publisher.Emit(ctx, event)
	}
}
