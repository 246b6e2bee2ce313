// Package audit captures key console actions as typed events. Events are
// emitted from domain logic, drained by a worker into a durable store, and
// optionally fanned out to a Kafka topic for downstream consumers.
package audit

import "time"

// Category classifies events by purpose so retention and routing can differ.
type Category string

const (
	// CategoryCompliance covers account lifecycle and KYC verification
	// actions with regulatory significance.
	CategoryCompliance Category = "compliance"

	// CategorySecurity covers authentication and session events.
	CategorySecurity Category = "security"

	// CategoryOperations covers routine actions useful for debugging.
	CategoryOperations Category = "operations"
)

// Action names every auditable console action.
type Action string

const (
	ActionOperatorSignedIn      Action = "operator_signed_in"
	ActionOperatorSignedOut     Action = "operator_signed_out"
	ActionAuthFailed            Action = "auth_failed"
	ActionForcedSignOut         Action = "forced_sign_out"
	ActionAdminProvisioned      Action = "admin_provisioned"
	ActionProvisioningFailed    Action = "admin_provisioning_failed"
	ActionRollbackSucceeded     Action = "admin_rollback_succeeded"
	ActionRollbackFailed        Action = "admin_rollback_failed"
	ActionSessionRestoreFailed  Action = "session_restore_failed"
	ActionAdminUpdated          Action = "admin_updated"
	ActionAdminDeleted          Action = "admin_deleted"
	ActionKycStatusChanged      Action = "kyc_status_changed"
	ActionKycExported           Action = "kyc_exported"
	ActionOperatorProfileSaved  Action = "operator_profile_saved"
)

var actionCategories = map[Action]Category{
	ActionOperatorSignedIn:     CategorySecurity,
	ActionOperatorSignedOut:    CategorySecurity,
	ActionAuthFailed:           CategorySecurity,
	ActionForcedSignOut:        CategorySecurity,
	ActionAdminProvisioned:     CategoryCompliance,
	ActionProvisioningFailed:   CategoryCompliance,
	ActionRollbackSucceeded:    CategoryCompliance,
	ActionRollbackFailed:       CategoryCompliance,
	ActionSessionRestoreFailed: CategorySecurity,
	ActionAdminUpdated:         CategoryCompliance,
	ActionAdminDeleted:         CategoryCompliance,
	ActionKycStatusChanged:     CategoryCompliance,
	ActionKycExported:          CategoryOperations,
	ActionOperatorProfileSaved: CategoryOperations,
}

// CategoryOf returns the category for an action, defaulting to operations.
func CategoryOf(action Action) Category {
	if c, ok := actionCategories[action]; ok {
		return c
	}
	return CategoryOperations
}

// Event is a single audit record. Keep it transport-agnostic so stores and
// sinks can fan out.
type Event struct {
	Category   Category  `json:"category"`
	Action     Action    `json:"action"`
	ActorID    string    `json:"actorId,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
