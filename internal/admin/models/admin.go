// Package models defines the administrator profile record. Profiles are
// keyed by the provider identity ID and exist only for identities the
// provisioning workflow created.
package models

import (
	"strings"

	"opsconsole/internal/identity"
	dErrors "opsconsole/pkg/domainerrors"
	"opsconsole/pkg/timestamp"
)

// ParentCompany is the fixed set of parent organizations an admin belongs to.
type ParentCompany string

const (
	ParentTirupati ParentCompany = "Tirupati Industrial Services"
	ParentMaxline  ParentCompany = "Maxline Facilities"
)

// ParentCompanyAll is the list-filter value meaning "no filter".
const ParentCompanyAll = "All"

func (p ParentCompany) Valid() bool {
	return p == ParentTirupati || p == ParentMaxline
}

// ParseParentCompany validates a client-supplied parent company label.
func ParseParentCompany(s string) (ParentCompany, error) {
	p := ParentCompany(strings.TrimSpace(s))
	if !p.Valid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown parent company")
	}
	return p, nil
}

// Admin is one administrator profile row.
type Admin struct {
	ID            identity.ID         `json:"id"`
	Name          string              `json:"name"`
	Email         string              `json:"email"`
	Mobile        string              `json:"mobile,omitempty"`
	Address       string              `json:"address,omitempty"`
	Company       string              `json:"company,omitempty"`
	ParentCompany ParentCompany       `json:"parentCompany"`
	Department    string              `json:"department,omitempty"`
	Designation   string              `json:"designation,omitempty"`
	Availability  string              `json:"availability,omitempty"`
	CreatedAt     timestamp.Timestamp `json:"createdAt"`
	LastLoginAt   timestamp.Timestamp `json:"lastLoginAt,omitempty"`
}

// UpdateRequest carries the operator-editable profile fields. Email is not
// editable; it is bound to the provider identity at creation.
type UpdateRequest struct {
	Name          string `json:"name"`
	Mobile        string `json:"mobile"`
	Address       string `json:"address"`
	Company       string `json:"company"`
	ParentCompany string `json:"parentCompany"`
	Department    string `json:"department"`
	Designation   string `json:"designation"`
	Availability  string `json:"availability"`
}

func (r *UpdateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Mobile = strings.TrimSpace(r.Mobile)
	r.Address = strings.TrimSpace(r.Address)
	r.Company = strings.TrimSpace(r.Company)
	r.ParentCompany = strings.TrimSpace(r.ParentCompany)
	r.Department = strings.TrimSpace(r.Department)
	r.Designation = strings.TrimSpace(r.Designation)
	r.Availability = strings.TrimSpace(r.Availability)
}

func (r UpdateRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > 100 {
		return dErrors.New(dErrors.CodeValidation, "name exceeds 100 characters")
	}
	if r.ParentCompany != "" {
		if _, err := ParseParentCompany(r.ParentCompany); err != nil {
			return err
		}
	}
	return nil
}
