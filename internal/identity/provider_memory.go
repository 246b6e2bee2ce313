package identity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"opsconsole/internal/identity/lockout"
	dErrors "opsconsole/pkg/domainerrors"
)

const minSecretLength = 6

// InMemoryProvider implements Provider in process memory. It reproduces the
// hosted provider's semantics exactly where the workflow depends on them:
// one current session, create-replaces-session, and delete-requires-current.
type InMemoryProvider struct {
	mu        sync.Mutex
	byEmail   map[string]*credential
	current   *Identity
	listeners map[int]ChangeListener
	nextSub   int

	issuer   *TokenIssuer
	lockouts lockout.Store
	logger   *slog.Logger
	now      func() time.Time
}

type credential struct {
	identity Identity
	hash     []byte
}

// ProviderOption configures the in-memory provider.
type ProviderOption func(*InMemoryProvider)

// WithLockoutStore enables sign-in throttling.
func WithLockoutStore(store lockout.Store) ProviderOption {
	return func(p *InMemoryProvider) { p.lockouts = store }
}

// WithProviderLogger sets a logger for session churn visibility.
func WithProviderLogger(logger *slog.Logger) ProviderOption {
	return func(p *InMemoryProvider) { p.logger = logger }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) ProviderOption {
	return func(p *InMemoryProvider) { p.now = now }
}

func NewInMemoryProvider(issuer *TokenIssuer, opts ...ProviderOption) *InMemoryProvider {
	p := &InMemoryProvider{
		byEmail:   make(map[string]*credential),
		listeners: make(map[int]ChangeListener),
		issuer:    issuer,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Seed registers an identity without touching the current session. Used at
// startup to provision the operator account.
func (p *InMemoryProvider) Seed(email, secret string) (Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash secret")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	norm := NormalizeEmail(email)
	if _, exists := p.byEmail[norm]; exists {
		return Identity{}, ErrEmailInUse
	}
	ident := Identity{ID: NewID(), Email: email, CreatedAt: p.now()}
	p.byEmail[norm] = &credential{identity: ident, hash: hash}
	return ident, nil
}

func (p *InMemoryProvider) CreateIdentity(ctx context.Context, email, secret string) (Identity, error) {
	if len(secret) < minSecretLength {
		return Identity{}, ErrWeakSecret
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash secret")
	}

	p.mu.Lock()
	norm := NormalizeEmail(email)
	if _, exists := p.byEmail[norm]; exists {
		p.mu.Unlock()
		return Identity{}, ErrEmailInUse
	}
	ident := Identity{ID: NewID(), Email: email, CreatedAt: p.now(), LastSignInAt: p.now()}
	p.byEmail[norm] = &credential{identity: ident, hash: hash}
	// The provider's defining quirk: the creator's session is replaced by the
	// identity that was just created.
	p.current = &ident
	p.mu.Unlock()

	p.notify(&ident)
	return ident, nil
}

func (p *InMemoryProvider) SignIn(ctx context.Context, email, secret string) (Session, error) {
	norm := NormalizeEmail(email)

	if p.lockouts != nil {
		locked, err := p.lockouts.IsLocked(ctx, norm)
		if err != nil {
			p.warn(ctx, "lockout check failed", "error", err)
		} else if locked {
			return Session{}, ErrTooManyAttempts
		}
	}

	p.mu.Lock()
	cred, ok := p.byEmail[norm]
	p.mu.Unlock()
	if !ok {
		return Session{}, p.recordFailure(ctx, norm)
	}
	if err := bcrypt.CompareHashAndPassword(cred.hash, []byte(secret)); err != nil {
		return Session{}, p.recordFailure(ctx, norm)
	}
	if p.lockouts != nil {
		if err := p.lockouts.Clear(ctx, norm); err != nil {
			p.warn(ctx, "lockout clear failed", "error", err)
		}
	}

	now := p.now()
	p.mu.Lock()
	cred.identity.LastSignInAt = now
	ident := cred.identity
	p.current = &ident
	p.mu.Unlock()

	p.notify(&ident)

	session := Session{Identity: ident, IssuedAt: now}
	if p.issuer != nil {
		token, err := p.issuer.Issue(ident, now)
		if err != nil {
			return Session{}, err
		}
		session.Token = token
	}
	return session, nil
}

func (p *InMemoryProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	wasActive := p.current != nil
	p.current = nil
	p.mu.Unlock()

	if wasActive {
		p.notify(nil)
	}
	return nil
}

func (p *InMemoryProvider) Reauthenticate(ctx context.Context, id ID, secret string) (Session, error) {
	p.mu.Lock()
	if p.current == nil || p.current.ID != id {
		p.mu.Unlock()
		return Session{}, ErrNotCurrentIdentity
	}
	norm := NormalizeEmail(p.current.Email)
	cred := p.byEmail[norm]
	p.mu.Unlock()

	if p.lockouts != nil {
		locked, err := p.lockouts.IsLocked(ctx, norm)
		if err != nil {
			p.warn(ctx, "lockout check failed", "error", err)
		} else if locked {
			return Session{}, ErrTooManyAttempts
		}
	}

	if err := bcrypt.CompareHashAndPassword(cred.hash, []byte(secret)); err != nil {
		return Session{}, p.recordFailure(ctx, norm)
	}
	if p.lockouts != nil {
		if err := p.lockouts.Clear(ctx, norm); err != nil {
			p.warn(ctx, "lockout clear failed", "error", err)
		}
	}

	// Reauthentication refreshes the session token without a session change,
	// so listeners are not notified.
	now := p.now()
	session := Session{Identity: cred.identity, IssuedAt: now}
	if p.issuer != nil {
		token, err := p.issuer.Issue(cred.identity, now)
		if err != nil {
			return Session{}, err
		}
		session.Token = token
	}
	return session, nil
}

func (p *InMemoryProvider) DeleteIdentity(_ context.Context, id ID) error {
	p.mu.Lock()
	if p.current == nil || p.current.ID != id {
		p.mu.Unlock()
		return ErrNotCurrentIdentity
	}
	delete(p.byEmail, NormalizeEmail(p.current.Email))
	p.current = nil
	p.mu.Unlock()

	p.notify(nil)
	return nil
}

func (p *InMemoryProvider) Current() *Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	ident := *p.current
	return &ident
}

func (p *InMemoryProvider) OnSessionChange(fn ChangeListener) func() {
	p.mu.Lock()
	sub := p.nextSub
	p.nextSub++
	p.listeners[sub] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, sub)
		p.mu.Unlock()
	}
}

// notify invokes listeners outside the provider lock so they may call back
// into the provider (the session gate signs out unauthorized identities from
// its listener).
func (p *InMemoryProvider) notify(current *Identity) {
	p.mu.Lock()
	fns := make([]ChangeListener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		var snapshot *Identity
		if current != nil {
			c := *current
			snapshot = &c
		}
		fn(snapshot)
	}
}

func (p *InMemoryProvider) recordFailure(ctx context.Context, email string) error {
	if p.lockouts == nil {
		return ErrInvalidCredential
	}
	count, err := p.lockouts.RecordFailure(ctx, email)
	if err != nil {
		p.warn(ctx, "lockout record failed", "error", err)
		return ErrInvalidCredential
	}
	if count >= lockout.MaxFailures {
		return ErrTooManyAttempts
	}
	return ErrInvalidCredential
}

func (p *InMemoryProvider) warn(ctx context.Context, msg string, args ...any) {
	if p.logger != nil {
		p.logger.WarnContext(ctx, msg, args...)
	}
}
