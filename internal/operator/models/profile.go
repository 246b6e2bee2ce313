// Package models defines the operator's own profile record. There is exactly
// one privileged operator; the row is keyed by that identity's provider ID
// and created lazily on first authorized sign-in.
package models

import (
	"strings"

	"opsconsole/internal/identity"
	dErrors "opsconsole/pkg/domainerrors"
	"opsconsole/pkg/timestamp"
)

type Profile struct {
	ID        identity.ID         `json:"id"`
	Name      string              `json:"name"`
	Email     string              `json:"email"`
	Mobile    string              `json:"mobile,omitempty"`
	Address   string              `json:"address,omitempty"`
	CreatedAt timestamp.Timestamp `json:"createdAt"`
	UpdatedAt timestamp.Timestamp `json:"updatedAt,omitempty"`
}

// UpdateRequest carries the self-service editable fields.
type UpdateRequest struct {
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
	Address string `json:"address"`
}

func (r *UpdateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Mobile = strings.TrimSpace(r.Mobile)
	r.Address = strings.TrimSpace(r.Address)
}

func (r UpdateRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 100 {
		return dErrors.New(dErrors.CodeValidation, "name exceeds 100 characters")
	}
	if len(r.Address) > 500 {
		return dErrors.New(dErrors.CodeValidation, "address exceeds 500 characters")
	}
	return nil
}
