package handler

import (
	"time"

	"childminder/internal/dbs/duplicates"
	"childminder/internal/dbs/models"
	"childminder/pkg/domain"
)

type MemberResponse struct {
	ID                 string      `json:"id"`
	ApplicationID      string      `json:"application_id"`
	Role               models.Role `json:"role"`
	DateOfBirth        domain.Date `json:"date_of_birth"`
	Position           int         `json:"position"`
	CertificateEntered bool        `json:"certificate_entered"`
	CreatedAt          time.Time   `json:"created_at"`
}

func toMemberResponse(p *models.Person) MemberResponse {
	return MemberResponse{
		ID:                 p.ID.String(),
		ApplicationID:      p.ApplicationID.String(),
		Role:               p.Role,
		DateOfBirth:        p.DateOfBirth,
		Position:           p.Position,
		CertificateEntered: !p.CertificateNumber().IsZero(),
		CreatedAt:          p.CreatedAt,
	}
}

// DuplicateReportResponse lists the clashing household positions (1-based).
type DuplicateReportResponse struct {
	Report    duplicates.Report `json:"report"`
	Positions []int             `json:"positions"`
	Fields    []string          `json:"fields,omitempty"`
}

func toDuplicateReport(r duplicates.Report, keys []string) DuplicateReportResponse {
	positions := r.Positions()
	if positions == nil {
		positions = []int{}
	}
	resp := DuplicateReportResponse{Report: r, Positions: positions}
	if keys != nil {
		resp.Fields = r.Fields(keys)
	}
	return resp
}

// DuplicateErrorResponse is the 422 body for a rejected certificate number.
type DuplicateErrorResponse struct {
	Error            string                  `json:"error"`
	ErrorDescription string                  `json:"error_description,omitempty"`
	Duplicates       DuplicateReportResponse `json:"duplicates"`
}

type StatusResponse struct {
	PersonID               string        `json:"person_id"`
	Status                 models.Status `json:"status"`
	RequiresExternalAction bool          `json:"requires_external_action"`
}
