// Package provision implements the administrator provisioning workflow.
//
// The identity provider keeps exactly one session per process, and creating
// an identity silently replaces that session with the new identity. The
// workflow threads a new admin through that constraint: it proves the
// operator's secret first, creates the identity, discards the hijacked
// session, signs the operator back in, and only then persists the profile
// row. Every failure path funnels through a session restoration attempt so
// the console is never left signed in as someone else.
package provision

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	adminmodels "opsconsole/internal/admin/models"
	adminstore "opsconsole/internal/admin/store"
	"opsconsole/internal/audit"
	"opsconsole/internal/identity"
	"opsconsole/internal/platform/metrics"
	"opsconsole/internal/session"
	dErrors "opsconsole/pkg/domainerrors"
	"opsconsole/pkg/timestamp"
)

// Step names the workflow stage an error occurred in.
type Step string

const (
	StepPreconditions  Step = "preconditions"
	StepReauthenticate Step = "reauthenticate"
	StepCreateIdentity Step = "create_identity"
	StepReleaseSession Step = "release_new_session"
	StepRestoreSession Step = "restore_session"
	StepPersistProfile Step = "persist_profile"
)

// RollbackOutcome reports what happened to the newly created identity after
// a late-stage failure.
type RollbackOutcome string

const (
	RollbackNotAttempted RollbackOutcome = "not_attempted"
	RollbackSucceeded    RollbackOutcome = "succeeded"
	RollbackFailed       RollbackOutcome = "failed"
)

// Error is the single structured result of a failed provisioning run.
type Error struct {
	Step     Step
	Rollback RollbackOutcome
	// Critical means the operator session could not be restored and the
	// console requires a fresh sign-in.
	Critical bool
	err      error
}

func (e *Error) Error() string {
	msg := "provisioning failed at " + string(e.Step)
	if e.Rollback != RollbackNotAttempted {
		msg += " (rollback " + string(e.Rollback) + ")"
	}
	if e.Critical {
		msg += " (session lost)"
	}
	return msg + ": " + e.err.Error()
}

func (e *Error) Unwrap() error { return e.err }

// Request carries everything needed to provision one administrator. The
// operator's secret is required up front: it is proved by reauthentication
// before any side effect, and reused to restore the session afterwards.
type Request struct {
	OperatorSecret string `json:"operatorSecret"`

	Email  string `json:"email"`
	Secret string `json:"secret"`

	Name          string `json:"name"`
	Mobile        string `json:"mobile"`
	Address       string `json:"address"`
	Company       string `json:"company"`
	ParentCompany string `json:"parentCompany"`
	Department    string `json:"department"`
	Designation   string `json:"designation"`
	Availability  string `json:"availability"`
}

func (r *Request) Normalize() {
	r.Email = identity.NormalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	r.Mobile = strings.TrimSpace(r.Mobile)
	r.Address = strings.TrimSpace(r.Address)
	r.Company = strings.TrimSpace(r.Company)
	r.ParentCompany = strings.TrimSpace(r.ParentCompany)
	r.Department = strings.TrimSpace(r.Department)
	r.Designation = strings.TrimSpace(r.Designation)
	r.Availability = strings.TrimSpace(r.Availability)
}

func (r Request) Validate() error {
	if r.OperatorSecret == "" {
		return dErrors.New(dErrors.CodeValidation, "operator secret is required")
	}
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "a valid admin email is required")
	}
	if r.Secret == "" {
		return dErrors.New(dErrors.CodeValidation, "admin secret is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "admin name is required")
	}
	if r.ParentCompany != "" {
		if _, err := adminmodels.ParseParentCompany(r.ParentCompany); err != nil {
			return err
		}
	}
	return nil
}

// Result is a successful run: the stored profile and the operator's
// refreshed session.
type Result struct {
	Admin   *adminmodels.Admin
	Session identity.Session
}

// Workflow runs provisioning. At most one run is in flight at a time; a
// second request while one is running is rejected rather than queued,
// because interleaved session churn cannot be made safe.
type Workflow struct {
	provider  identity.Provider
	admins    adminstore.Store
	sessions  *session.Manager
	publisher *audit.Publisher
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	logger    *slog.Logger
	now       func() timestamp.Timestamp

	busy atomic.Bool
}

type Option func(*Workflow)

func WithAuditPublisher(publisher *audit.Publisher) Option {
	return func(w *Workflow) { w.publisher = publisher }
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(w *Workflow) { w.metrics = metrics }
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) { w.logger = logger }
}

func WithClock(now func() timestamp.Timestamp) Option {
	return func(w *Workflow) { w.now = now }
}

func New(provider identity.Provider, admins adminstore.Store, sessions *session.Manager, opts ...Option) *Workflow {
	w := &Workflow{
		provider: provider,
		admins:   admins,
		sessions: sessions,
		tracer:   otel.Tracer("opsconsole/internal/provision"),
		now:      timestamp.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Provision creates the identity and profile for one new administrator.
func (w *Workflow) Provision(ctx context.Context, req Request) (*Result, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if !w.busy.CompareAndSwap(false, true) {
		return nil, dErrors.New(dErrors.CodeConflict, "another provisioning run is in progress")
	}
	defer w.busy.Store(false)

	// The session gate would fight the deliberate churn below; hold it off
	// until the session has settled one way or the other.
	release := w.sessions.Suppress()
	defer release()

	ctx, span := w.tracer.Start(ctx, "provision.admin",
		trace.WithAttributes(attribute.String("admin.email", req.Email)))
	defer span.End()

	result, err := w.run(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		var werr *Error
		if wf, ok := err.(*Error); ok {
			werr = wf
			span.SetAttributes(
				attribute.String("provision.failed_step", string(wf.Step)),
				attribute.String("provision.rollback", string(wf.Rollback)),
				attribute.Bool("provision.session_lost", wf.Critical),
			)
		}
		w.reportFailure(ctx, req, werr, err)
		return nil, err
	}

	w.metrics.IncAdminsProvisioned()
	w.emit(ctx, audit.Event{
		Action:  audit.ActionAdminProvisioned,
		ActorID: result.Session.Identity.ID.String(),
		Subject: req.Email,
	})
	if w.logger != nil {
		w.logger.InfoContext(ctx, "administrator provisioned",
			"admin_id", result.Admin.ID.String(),
			"admin_email", req.Email,
		)
	}
	return result, nil
}

func (w *Workflow) run(ctx context.Context, req Request) (*Result, error) {
	// Preconditions: the provider session must belong to the operator.
	// Checked against the provider directly, not a cached snapshot, so a
	// session that changed underneath the console fails here with no side
	// effects.
	operator := w.provider.Current()
	if operator == nil || !w.sessions.IsOperator(operator.Email) {
		return nil, &Error{
			Step:     StepPreconditions,
			Rollback: RollbackNotAttempted,
			err:      dErrors.New(dErrors.CodeConflict, "active session is not the operator"),
		}
	}
	operatorID := operator.ID
	operatorEmail := operator.Email

	// Step 1: prove the operator secret before any side effect. The same
	// secret restores the session later, so a typo must fail here and not
	// at step 4.
	if err := w.step(ctx, "reauthenticate", func(ctx context.Context) error {
		_, err := w.provider.Reauthenticate(ctx, operatorID, req.OperatorSecret)
		return err
	}); err != nil {
		return nil, &Error{Step: StepReauthenticate, Rollback: RollbackNotAttempted,
			err: dErrors.Wrap(err, dErrors.CodeUnauthorized, "operator secret rejected")}
	}

	// Step 2: create the identity. On success the provider session now
	// belongs to the new admin.
	var newIdent identity.Identity
	if err := w.step(ctx, "create_identity", func(ctx context.Context) error {
		var err error
		newIdent, err = w.provider.CreateIdentity(ctx, req.Email, req.Secret)
		return err
	}); err != nil {
		// The provider leaves the session untouched when creation fails.
		return nil, &Error{Step: StepCreateIdentity, Rollback: RollbackNotAttempted, err: err}
	}

	// Step 3: discard the new admin's session. A failure here is not
	// terminal as long as the restore below succeeds.
	releaseErr := w.step(ctx, "release_new_session", func(ctx context.Context) error {
		return w.provider.SignOut(ctx)
	})

	// Step 4: sign the operator back in and verify it really is the same
	// identity. Failure is terminal: the console must not keep serving.
	restored, err := w.restoreOperator(ctx, operatorID, operatorEmail, req.OperatorSecret)
	if err != nil {
		return nil, &Error{Step: StepRestoreSession, Rollback: RollbackNotAttempted, Critical: true, err: err}
	}
	if releaseErr != nil {
		return nil, &Error{Step: StepReleaseSession, Rollback: RollbackNotAttempted, err: releaseErr}
	}

	// Step 5: persist the profile, now that the operator session is back.
	admin := &adminmodels.Admin{
		ID:            newIdent.ID,
		Name:          req.Name,
		Email:         req.Email,
		Mobile:        req.Mobile,
		Address:       req.Address,
		Company:       req.Company,
		ParentCompany: adminmodels.ParentCompany(req.ParentCompany),
		Department:    req.Department,
		Designation:   req.Designation,
		Availability:  req.Availability,
		CreatedAt:     w.now(),
	}
	if err := w.step(ctx, "persist_profile", func(ctx context.Context) error {
		return w.admins.Create(ctx, admin)
	}); err != nil {
		outcome, critical := w.rollbackIdentity(ctx, req, operatorID, operatorEmail)
		return nil, &Error{
			Step:     StepPersistProfile,
			Rollback: outcome,
			Critical: critical,
			err:      dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist admin profile"),
		}
	}

	return &Result{Admin: admin, Session: restored}, nil
}

// restoreOperator signs the operator back in and confirms the identity ID
// matches the one captured at the start of the run.
func (w *Workflow) restoreOperator(ctx context.Context, operatorID identity.ID, operatorEmail, operatorSecret string) (identity.Session, error) {
	var restored identity.Session
	err := w.step(ctx, "restore_session", func(ctx context.Context) error {
		sess, err := w.provider.SignIn(ctx, operatorEmail, operatorSecret)
		if err != nil {
			return err
		}
		if sess.Identity.ID != operatorID {
			return dErrors.New(dErrors.CodeInternal, "restored session belongs to a different identity")
		}
		restored = sess
		return nil
	})
	if err != nil {
		w.metrics.IncSessionRestoreFailure()
		w.emit(ctx, audit.Event{
			Action:  audit.ActionSessionRestoreFailed,
			ActorID: operatorID.String(),
			Detail:  err.Error(),
		})
		return identity.Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to restore operator session")
	}
	return restored, nil
}

// rollbackIdentity makes a best-effort attempt to delete the identity whose
// profile could not be stored. The provider only deletes the identity that
// holds the current session, so the rollback has to swap sessions: sign in
// as the new admin, delete it, then put the operator back.
func (w *Workflow) rollbackIdentity(ctx context.Context, req Request, operatorID identity.ID, operatorEmail string) (RollbackOutcome, bool) {
	outcome := RollbackSucceeded
	err := w.step(ctx, "rollback_identity", func(ctx context.Context) error {
		sess, err := w.provider.SignIn(ctx, req.Email, req.Secret)
		if err != nil {
			return err
		}
		return w.provider.DeleteIdentity(ctx, sess.Identity.ID)
	})
	if err != nil {
		outcome = RollbackFailed
		if w.logger != nil {
			w.logger.ErrorContext(ctx, "identity rollback failed, orphaned identity remains",
				"admin_email", req.Email,
				"error", err,
			)
		}
	}

	w.metrics.IncRollback(string(outcome))
	action := audit.ActionRollbackSucceeded
	if outcome == RollbackFailed {
		action = audit.ActionRollbackFailed
	}
	w.emit(ctx, audit.Event{Action: action, ActorID: operatorID.String(), Subject: req.Email})

	// Whatever happened above, the operator session must come back.
	if _, err := w.restoreOperator(ctx, operatorID, operatorEmail, req.OperatorSecret); err != nil {
		return outcome, true
	}
	return outcome, false
}

func (w *Workflow) step(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := w.tracer.Start(ctx, "provision."+name)
	defer span.End()
	if err := fn(ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (w *Workflow) reportFailure(ctx context.Context, req Request, werr *Error, err error) {
	step := "validate"
	detail := err.Error()
	if werr != nil {
		step = string(werr.Step)
	}
	w.metrics.IncProvisioningFailure(step)
	w.emit(ctx, audit.Event{
		Action:  audit.ActionProvisioningFailed,
		Subject: req.Email,
		Detail:  detail,
	})
	if w.logger != nil {
		w.logger.ErrorContext(ctx, "provisioning failed",
			"admin_email", req.Email,
			"step", step,
			"error", err,
		)
	}
}

func (w *Workflow) emit(ctx context.Context, event audit.Event) {
	if w.publisher != nil {
		_ = w.publisher.Emit(ctx, event)
	}
}
