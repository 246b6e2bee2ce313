// Package lockout throttles repeated sign-in failures per email so the
// provider can answer with a too-many-attempts error instead of letting
// credential guessing run unbounded.
package lockout

import "context"

// Store tracks consecutive sign-in failures.
type Store interface {
	// RecordFailure increments the failure count for an email and returns the
	// new count.
	RecordFailure(ctx context.Context, email string) (int, error)

	// Clear resets the failure count after a successful sign-in.
	Clear(ctx context.Context, email string) error

	// IsLocked reports whether the email has exceeded the failure threshold
	// within the lockout window.
	IsLocked(ctx context.Context, email string) (bool, error)
}

// Policy bounds how many failures are tolerated before lockout.
const (
	MaxFailures = 5
)
