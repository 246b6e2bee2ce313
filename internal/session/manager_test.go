package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsconsole/internal/audit"
	"opsconsole/internal/identity"
	operatorsvc "opsconsole/internal/operator/service"
	operatorstore "opsconsole/internal/operator/store"
	dErrors "opsconsole/pkg/domainerrors"
)

const (
	operatorEmail  = "ops@example.com"
	operatorSecret = "operator-secret"
)

type fixture struct {
	provider  *identity.InMemoryProvider
	manager   *Manager
	publisher *audit.Publisher
	profiles  *operatorstore.InMemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	issuer := identity.NewTokenIssuer("test-signing-key", time.Hour)
	provider := identity.NewInMemoryProvider(issuer)
	_, err := provider.Seed(operatorEmail, operatorSecret)
	require.NoError(t, err)

	profiles := operatorstore.NewMemory()
	publisher := audit.NewPublisher(16)
	manager := NewManager(provider, operatorEmail, operatorsvc.New(profiles),
		WithAuditPublisher(publisher))
	t.Cleanup(manager.Close)

	return &fixture{provider: provider, manager: manager, publisher: publisher, profiles: profiles}
}

func (f *fixture) drainActions() []audit.Action {
	var actions []audit.Action
	for {
		select {
		case event := <-f.publisher.Inbox():
			actions = append(actions, event.Action)
		default:
			return actions
		}
	}
}

func TestSignInOperator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.manager.SignIn(ctx, "OPS@Example.COM", operatorSecret)
	require.NoError(t, err, "the operator email match is case-insensitive")
	assert.NotEmpty(t, session.Token)

	snap := f.manager.Snapshot()
	assert.True(t, snap.Active)
	assert.True(t, snap.Operator)
	assert.Equal(t, operatorEmail, snap.Identity.Email)

	// First authorized sign-in lazily creates the operator profile.
	profile, err := f.profiles.FindByID(ctx, session.Identity.ID)
	require.NoError(t, err)
	assert.Equal(t, operatorEmail, profile.Email)

	assert.Contains(t, f.drainActions(), audit.ActionOperatorSignedIn)
}

func TestSignInNonOperatorIsDeniedAndSignedOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.provider.Seed("intruder@example.com", "intruder-secret")
	require.NoError(t, err)

	_, err = f.manager.SignIn(ctx, "intruder@example.com", "intruder-secret")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

	assert.Nil(t, f.provider.Current(), "the foreign session must not survive the gate")
	assert.Contains(t, f.drainActions(), audit.ActionForcedSignOut)
}

func TestSignInBadCredentialEmitsAuthFailure(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.SignIn(context.Background(), operatorEmail, "wrong")
	require.ErrorIs(t, err, identity.ErrInvalidCredential)
	assert.Contains(t, f.drainActions(), audit.ActionAuthFailed)
}

func TestGateForcesOutSessionsCreatedBehindItsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Creating an identity replaces the session with the new identity. The
	// gate must observe that and end it.
	_, err := f.provider.CreateIdentity(ctx, "new-admin@example.com", "admin-secret")
	require.NoError(t, err)

	assert.Nil(t, f.provider.Current())
	assert.Contains(t, f.drainActions(), audit.ActionForcedSignOut)
}

func TestSuppressHoldsTheGateUntilRelease(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	release := f.manager.Suppress()

	_, err := f.provider.CreateIdentity(ctx, "new-admin@example.com", "admin-secret")
	require.NoError(t, err)
	require.NotNil(t, f.provider.Current(), "while suppressed the gate must not interfere")
	assert.Empty(t, f.drainActions())

	release()
	assert.Nil(t, f.provider.Current(), "release re-evaluates the session and applies the gate")
	assert.Contains(t, f.drainActions(), audit.ActionForcedSignOut)
}

func TestSuppressReleaseKeepsOperatorSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	release := f.manager.Suppress()
	_, err := f.provider.SignIn(ctx, operatorEmail, operatorSecret)
	require.NoError(t, err)
	release()

	snap := f.manager.Snapshot()
	assert.True(t, snap.Active)
	assert.True(t, snap.Operator)
}

func TestIsOperatorSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.manager.SignIn(ctx, operatorEmail, operatorSecret)
	require.NoError(t, err)

	assert.True(t, f.manager.IsOperatorSession(session.Identity.ID.String()))
	assert.False(t, f.manager.IsOperatorSession(identity.NewID().String()))

	require.NoError(t, f.manager.SignOut(ctx))
	assert.False(t, f.manager.IsOperatorSession(session.Identity.ID.String()),
		"tokens stop working the moment the session ends")
}

func TestSignOutIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.manager.SignOut(ctx))
	require.NoError(t, f.manager.SignOut(ctx))
	assert.False(t, f.manager.Snapshot().Active)
}
