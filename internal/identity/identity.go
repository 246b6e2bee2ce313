// Package identity models the external authentication provider behind an
// explicit interface. The provider exposes exactly one current session per
// process; creating an identity replaces that session with the new identity,
// which is the constraint the provisioning workflow exists to work around.
package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "opsconsole/pkg/domainerrors"
)

// ID is the provider's durable identifier for an identity. Profiles in the
// record store are keyed by it.
type ID uuid.UUID

func NewID() ID { return ID(uuid.New()) }

func (id ID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id ID) String() string { return uuid.UUID(id).String() }

// ParseID validates a string form of an identity ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return ID{}, dErrors.New(dErrors.CodeBadRequest, "invalid identity ID")
	}
	return ID(u), nil
}

// Identity is a credentialed account held by the provider.
type Identity struct {
	ID           ID
	Email        string
	CreatedAt    time.Time
	LastSignInAt time.Time
}

// Session is the provider's view of the one active session, plus the bearer
// token handed to the console front end.
type Session struct {
	Identity Identity
	Token    string
	IssuedAt time.Time
}

// ChangeListener receives the identity of the new current session, or nil
// when the session ends. Listeners are invoked synchronously after each
// session change, in subscription order.
type ChangeListener func(current *Identity)

// Provider is the authentication service contract. Implementations must keep
// the one-current-session semantics: CreateIdentity and SignIn both replace
// the active session.
type Provider interface {
	// CreateIdentity registers a new credentialed identity. On success the
	// current session becomes the new identity.
	CreateIdentity(ctx context.Context, email, secret string) (Identity, error)

	// SignIn replaces the current session with the identity matching the
	// credentials.
	SignIn(ctx context.Context, email, secret string) (Session, error)

	// SignOut ends the current session. Signing out with no session is a
	// no-op.
	SignOut(ctx context.Context) error

	// Reauthenticate verifies the secret of the given identity, which must be
	// the current session, and returns a refreshed session.
	Reauthenticate(ctx context.Context, id ID, secret string) (Session, error)

	// DeleteIdentity removes an identity. The provider only permits deleting
	// the identity that holds the current session; afterwards no session is
	// active.
	DeleteIdentity(ctx context.Context, id ID) error

	// Current returns a snapshot of the current session's identity, or nil.
	Current() *Identity

	// OnSessionChange registers a listener; the returned func unsubscribes.
	OnSessionChange(fn ChangeListener) (unsubscribe func())
}

// Provider error sentinels. Callers branch on these with errors.Is; the
// attached codes drive HTTP translation.
var (
	ErrEmailInUse         = dErrors.New(dErrors.CodeConflict, "email already in use")
	ErrWeakSecret         = dErrors.New(dErrors.CodeValidation, "secret too weak")
	ErrInvalidCredential  = dErrors.New(dErrors.CodeUnauthorized, "invalid credential")
	ErrTooManyAttempts    = dErrors.New(dErrors.CodeTooMany, "too many sign-in attempts")
	ErrNotCurrentIdentity = dErrors.New(dErrors.CodeConflict, "identity does not hold the current session")
)

// NormalizeEmail lowercases and trims an email for comparison and lookup.
// The operator gate and the provider's email index are both case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
