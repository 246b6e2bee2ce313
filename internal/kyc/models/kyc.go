// Package models defines KYC submissions as reviewed in the console.
// Submissions arrive from the field application; the console only inspects
// them and moves them between statuses. They are never deleted.
package models

import (
	"strings"

	"github.com/google/uuid"

	dErrors "opsconsole/pkg/domainerrors"
	"opsconsole/pkg/timestamp"
)

// Status is the review state of a submission.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusVerified || s == StatusRejected
}

// ParseStatus validates a client-supplied status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown KYC status")
	}
	return s, nil
}

// PersonalInfo mirrors the submitter's personal section. Dates arrive as
// free-form strings from the field application and are not normalized here.
type PersonalInfo struct {
	Name              string `json:"name,omitempty"`
	Prefix            string `json:"prefix,omitempty"`
	DateOfBirth       string `json:"date_of_birth,omitempty"`
	Age               string `json:"age,omitempty"`
	Gender            string `json:"gender,omitempty"`
	FatherHusbandName string `json:"father_husband_name,omitempty"`
	Phone             string `json:"phone,omitempty"`
	AlternativePhone  string `json:"alternative_phone,omitempty"`
	Email             string `json:"email,omitempty"`
	MaritalStatus     string `json:"marital_status,omitempty"`
	Address           string `json:"address,omitempty"`
	Pincode           string `json:"pincode,omitempty"`
	State             string `json:"state,omitempty"`
}

type ProfessionalInfo struct {
	CompanyName          string `json:"company_name,omitempty"`
	Designation          string `json:"designation,omitempty"`
	Department           string `json:"department,omitempty"`
	DateOfJoining        string `json:"date_of_joining,omitempty"`
	PanNumber            string `json:"pan_number,omitempty"`
	Education            string `json:"education,omitempty"`
	EsicNumber           string `json:"esic_number,omitempty"`
	MobileLinkedToAadhar string `json:"mobile_linked_to_aadhar,omitempty"`
	NameAsPerAadhar      string `json:"name_as_per_aadhar,omitempty"`
	UanNumber            string `json:"uan_number,omitempty"`
	AadharNumber         string `json:"aadhar_number,omitempty"`
	DateOfExit           string `json:"date_of_exit,omitempty"`
}

type BankInfo struct {
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
	IfscCode      string `json:"ifsc_code,omitempty"`
	BranchName    string `json:"branch_name,omitempty"`
}

type DocumentInfo struct {
	AadharCardURL string `json:"aadhar_card_url,omitempty"`
	PanCardURL    string `json:"pan_card_url,omitempty"`
	PhotoURL      string `json:"photo_url,omitempty"`
}

// Submission is one KYC record.
type Submission struct {
	ID               uuid.UUID           `json:"id"`
	OwnerID          string              `json:"user_id"`
	PersonalInfo     PersonalInfo        `json:"personal_info"`
	ProfessionalInfo ProfessionalInfo    `json:"professional_info"`
	BankInfo         BankInfo            `json:"bank_info"`
	DocumentInfo     DocumentInfo        `json:"document_info"`
	Status           Status              `json:"status"`
	Verified         bool                `json:"verified"`
	Remarks          string              `json:"remarks,omitempty"`
	CreatedAt        timestamp.Timestamp `json:"created_at"`
	VerifiedAt       timestamp.Timestamp `json:"verifiedAt,omitempty"`
	VerifiedBy       string              `json:"verified_by,omitempty"`
	UpdatedAt        timestamp.Timestamp `json:"updatedAt,omitempty"`
}

// ApplyStatus transitions the submission. Returns false without touching
// anything when the status and remarks already match, so an accidental
// resubmission of the same decision does not churn timestamps or audit
// rows. The verified flag is always derived from the status, verifiedAt is
// stamped on entering verified and cleared on leaving it, and the acting
// operator is recorded.
func (s *Submission) ApplyStatus(status Status, remarks, actor string, now timestamp.Timestamp) bool {
	if status == s.Status && remarks == s.Remarks {
		return false
	}

	entering := status == StatusVerified && s.Status != StatusVerified
	leaving := status != StatusVerified && s.Status == StatusVerified

	s.Status = status
	s.Verified = status == StatusVerified
	s.Remarks = remarks
	s.VerifiedBy = actor
	s.UpdatedAt = now
	if entering {
		s.VerifiedAt = now
	}
	if leaving {
		s.VerifiedAt = timestamp.Timestamp{}
	}
	return true
}

// Matches reports whether the submission matches a search term over the
// personal name and company name. An empty term matches everything.
func (s *Submission) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s.PersonalInfo.Name), term) ||
		strings.Contains(strings.ToLower(s.ProfessionalInfo.CompanyName), term)
}
