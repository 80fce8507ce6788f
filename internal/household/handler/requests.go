package handler

import (
	"strings"

	"childminder/pkg/domain"
	"childminder/pkg/validation"
)

type AddMemberRequest struct {
	Role        string      `json:"role" validate:"required,oneof=applicant adult child"`
	DateOfBirth domain.Date `json:"date_of_birth" validate:"required"`
}

func (r *AddMemberRequest) Normalize() {
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
}

func (r *AddMemberRequest) Validate() error {
	return validation.Validate(r)
}

type CertificateRequest struct {
	CertificateNumber string `json:"certificate_number" validate:"notblank"`
}

func (r *CertificateRequest) Normalize() {
	r.CertificateNumber = strings.TrimSpace(r.CertificateNumber)
}

func (r *CertificateRequest) Validate() error {
	return validation.Validate(r)
}

// AnswersRequest carries either or both DBS answers. An omitted field is
// left as it is.
type AnswersRequest struct {
	EnhancedCheck *bool `json:"enhanced_check" validate:"required_without=OnUpdate"`
	OnUpdate      *bool `json:"on_update" validate:"required_without=EnhancedCheck"`
}

func (r *AnswersRequest) Validate() error {
	return validation.Validate(r)
}

// DuplicatesRequest checks a whole form of certificate numbers keyed by
// field name, e.g. {"adult_1": "...", "adult_2": "..."}.
type DuplicatesRequest struct {
	ApplicantCertificateNumber string            `json:"applicant_certificate_number"`
	Fields                     map[string]string `json:"fields" validate:"min=1,max=50"`
}

func (r *DuplicatesRequest) Validate() error {
	return validation.Validate(r)
}
