package service

import (
	"context"
	"encoding/csv"
	"io"

	"opsconsole/internal/audit"
	"opsconsole/internal/kyc/models"
	dErrors "opsconsole/pkg/domainerrors"
	"opsconsole/pkg/requestcontext"
	"opsconsole/pkg/timestamp"
)

// exportHeader is the fixed column set of the spreadsheet export. Column
// order is part of the contract; downstream HR tooling reads by position.
var exportHeader = []string{
	"ID", "UserID", "Name", "DOB", "Gender", "Father/Husband Name",
	"Phone", "Alt Phone", "Email", "Marital Status", "Address", "Pincode",
	"State", "Company Name", "Designation", "Department", "Joining Date",
	"PAN Number", "Bank Name", "Account Number", "IFSC Code", "Branch Name",
	"Aadhar Card URL", "PAN Card URL", "Photo URL", "Status", "Verified",
	"Remarks", "SubmittedAt", "VerifiedAt", "VerifiedBy",
}

// Export writes the filtered submissions as CSV, one row per record.
func (s *Service) Export(ctx context.Context, w io.Writer, status, search string) error {
	subs, err := s.List(ctx, status, search)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write export")
	}
	for _, sub := range subs {
		if err := cw.Write(exportRow(sub)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write export")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write export")
	}

	s.emit(ctx, audit.Event{
		Action:  audit.ActionKycExported,
		ActorID: requestcontext.ActorID(ctx),
	})
	return nil
}

func exportRow(sub *models.Submission) []string {
	verified := "No"
	if sub.Verified {
		verified = "Yes"
	}
	return []string{
		sub.ID.String(),
		orNA(sub.OwnerID),
		orNA(sub.PersonalInfo.Name),
		orNA(sub.PersonalInfo.DateOfBirth),
		orNA(sub.PersonalInfo.Gender),
		orNA(sub.PersonalInfo.FatherHusbandName),
		orNA(sub.PersonalInfo.Phone),
		orNA(sub.PersonalInfo.AlternativePhone),
		orNA(sub.PersonalInfo.Email),
		orNA(sub.PersonalInfo.MaritalStatus),
		orNA(sub.PersonalInfo.Address),
		orNA(sub.PersonalInfo.Pincode),
		orNA(sub.PersonalInfo.State),
		orNA(sub.ProfessionalInfo.CompanyName),
		orNA(sub.ProfessionalInfo.Designation),
		orNA(sub.ProfessionalInfo.Department),
		orNA(sub.ProfessionalInfo.DateOfJoining),
		orNA(sub.ProfessionalInfo.PanNumber),
		orNA(sub.BankInfo.BankName),
		orNA(sub.BankInfo.AccountNumber),
		orNA(sub.BankInfo.IfscCode),
		orNA(sub.BankInfo.BranchName),
		orNA(sub.DocumentInfo.AadharCardURL),
		orNA(sub.DocumentInfo.PanCardURL),
		orNA(sub.DocumentInfo.PhotoURL),
		string(sub.Status),
		verified,
		orNA(sub.Remarks),
		timeOrNA(sub.CreatedAt),
		timeOrNA(sub.VerifiedAt),
		orNA(sub.VerifiedBy),
	}
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

func timeOrNA(ts timestamp.Timestamp) string {
	if ts.IsZero() {
		return "N/A"
	}
	return ts.String()
}
