package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opsconsole/internal/identity/lockout"
)

func newProvider(t *testing.T, opts ...ProviderOption) *InMemoryProvider {
	t.Helper()
	issuer := NewTokenIssuer("test-signing-key", time.Hour)
	return NewInMemoryProvider(issuer, opts...)
}

func TestCreateIdentityReplacesCurrentSession(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)

	operator, err := p.Seed("operator@example.com", "op-secret")
	require.NoError(t, err)

	_, err = p.SignIn(ctx, "operator@example.com", "op-secret")
	require.NoError(t, err)
	require.Equal(t, operator.ID, p.Current().ID)

	created, err := p.CreateIdentity(ctx, "new-admin@example.com", "admin-secret")
	require.NoError(t, err)

	// The crux of the provisioning problem: the operator session is gone.
	current := p.Current()
	require.NotNil(t, current)
	assert.Equal(t, created.ID, current.ID)
	assert.NotEqual(t, operator.ID, current.ID)
}

func TestCreateIdentityRejectsDuplicateEmailCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)

	_, err := p.CreateIdentity(ctx, "Admin@Example.com", "secret-1")
	require.NoError(t, err)

	_, err = p.CreateIdentity(ctx, "admin@example.COM", "secret-2")
	assert.ErrorIs(t, err, ErrEmailInUse)
}

func TestCreateIdentityRejectsWeakSecret(t *testing.T) {
	p := newProvider(t)
	_, err := p.CreateIdentity(context.Background(), "a@example.com", "short")
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a token and sets the current session", func(t *testing.T) {
		p := newProvider(t)
		ident, err := p.Seed("operator@example.com", "op-secret")
		require.NoError(t, err)

		sess, err := p.SignIn(ctx, "Operator@Example.COM", "op-secret")
		require.NoError(t, err)
		assert.Equal(t, ident.ID, sess.Identity.ID)
		assert.NotEmpty(t, sess.Token)
		assert.Equal(t, ident.ID, p.Current().ID)
	})

	t.Run("rejects a wrong secret", func(t *testing.T) {
		p := newProvider(t)
		_, err := p.Seed("operator@example.com", "op-secret")
		require.NoError(t, err)

		_, err = p.SignIn(ctx, "operator@example.com", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredential)
		assert.Nil(t, p.Current())
	})

	t.Run("rejects an unknown email with the same error", func(t *testing.T) {
		p := newProvider(t)
		_, err := p.SignIn(ctx, "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("locks out after repeated failures", func(t *testing.T) {
		p := newProvider(t, WithLockoutStore(lockout.NewInMemory(15*time.Minute)))
		_, err := p.Seed("operator@example.com", "op-secret")
		require.NoError(t, err)

		for i := 0; i < lockout.MaxFailures-1; i++ {
			_, err = p.SignIn(ctx, "operator@example.com", "wrong")
			require.ErrorIs(t, err, ErrInvalidCredential)
		}
		_, err = p.SignIn(ctx, "operator@example.com", "wrong")
		require.ErrorIs(t, err, ErrTooManyAttempts)

		// Even the right secret is refused while locked.
		_, err = p.SignIn(ctx, "operator@example.com", "op-secret")
		assert.ErrorIs(t, err, ErrTooManyAttempts)
	})
}

func TestSessionChangeNotifications(t *testing.T) {
	ctx := context.Background()
	p := newProvider(t)
	_, err := p.Seed("operator@example.com", "op-secret")
	require.NoError(t, err)

	var seen []string
	unsubscribe := p.OnSessionChange(func(current *Identity) {
		if current == nil {
			seen = append(seen, "<none>")
			return
		}
		seen = append(seen, current.Email)
	})

	_, err = p.SignIn(ctx, "operator@example.com", "op-secret")
	require.NoError(t, err)
	_, err = p.CreateIdentity(ctx, "new-admin@example.com", "admin-secret")
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx))
	_, err = p.SignIn(ctx, "operator@example.com", "op-secret")
	require.NoError(t, err)

	// The exact churn the session gate must tolerate during provisioning.
	assert.Equal(t, []string{
		"operator@example.com",
		"new-admin@example.com",
		"<none>",
		"operator@example.com",
	}, seen)

	unsubscribe()
	require.NoError(t, p.SignOut(ctx))
	assert.Len(t, seen, 4, "unsubscribed listener must not fire")
}

func TestSignOutWithoutSessionIsNoop(t *testing.T) {
	p := newProvider(t)
	fired := false
	p.OnSessionChange(func(*Identity) { fired = true })

	require.NoError(t, p.SignOut(context.Background()))
	assert.False(t, fired)
}

func TestReauthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("refreshes the session without a change notification", func(t *testing.T) {
		p := newProvider(t)
		ident, err := p.Seed("operator@example.com", "op-secret")
		require.NoError(t, err)
		_, err = p.SignIn(ctx, "operator@example.com", "op-secret")
		require.NoError(t, err)

		notifications := 0
		p.OnSessionChange(func(*Identity) { notifications++ })

		sess, err := p.Reauthenticate(ctx, ident.ID, "op-secret")
		require.NoError(t, err)
		assert.Equal(t, ident.ID, sess.Identity.ID)
		assert.NotEmpty(t, sess.Token)
		assert.Zero(t, notifications)
	})

	t.Run("rejects a wrong secret", func(t *testing.T) {
		p := newProvider(t)
		ident, err := p.Seed("operator@example.com", "op-secret")
		require.NoError(t, err)
		_, err = p.SignIn(ctx, "operator@example.com", "op-secret")
		require.NoError(t, err)

		_, err = p.Reauthenticate(ctx, ident.ID, "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("requires the identity to hold the session", func(t *testing.T) {
		p := newProvider(t)
		ident, err := p.Seed("operator@example.com", "op-secret")
		require.NoError(t, err)

		_, err = p.Reauthenticate(ctx, ident.ID, "op-secret")
		assert.ErrorIs(t, err, ErrNotCurrentIdentity)
	})
}

func TestDeleteIdentity(t *testing.T) {
	ctx := context.Background()

	t.Run("only the current session may be deleted", func(t *testing.T) {
		p := newProvider(t)
		ident, err := p.Seed("admin@example.com", "admin-secret")
		require.NoError(t, err)

		err = p.DeleteIdentity(ctx, ident.ID)
		assert.ErrorIs(t, err, ErrNotCurrentIdentity)
	})

	t.Run("removes the credential and ends the session", func(t *testing.T) {
		p := newProvider(t)
		ident, err := p.CreateIdentity(ctx, "admin@example.com", "admin-secret")
		require.NoError(t, err)

		require.NoError(t, p.DeleteIdentity(ctx, ident.ID))
		assert.Nil(t, p.Current())

		_, err = p.SignIn(ctx, "admin@example.com", "admin-secret")
		assert.ErrorIs(t, err, ErrInvalidCredential)
	})
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-signing-key", time.Hour)
	ident := Identity{ID: NewID(), Email: "operator@example.com"}

	token, err := issuer.Issue(ident, time.Now())
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, ident.ID, claims.IdentityID)
	assert.Equal(t, ident.Email, claims.Email)
}

func TestTokenIssuerRejectsExpiredAndForeignTokens(t *testing.T) {
	issuer := NewTokenIssuer("test-signing-key", time.Hour)
	ident := Identity{ID: NewID(), Email: "operator@example.com"}

	expired, err := issuer.Issue(ident, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = issuer.Verify(expired)
	assert.Error(t, err)

	other := NewTokenIssuer("different-key", time.Hour)
	foreign, err := other.Issue(ident, time.Now())
	require.NoError(t, err)
	_, err = issuer.Verify(foreign)
	assert.Error(t, err)
}
