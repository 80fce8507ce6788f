package registry

import (
	"encoding/json"
	"errors"
	"fmt"

	"childminder/internal/dbs/models"
	"childminder/pkg/domain"
)

// certificateResponse is the registry's JSON shape for a found certificate.
type certificateResponse struct {
	CertificateNumber string `json:"certificate_number"`
	DateOfBirth       string `json:"date_of_birth"`
	DateOfIssue       string `json:"date_of_issue"`
	CertificateInfo   string `json:"certificate_info"`
}

func parseRecord(body []byte, requested domain.CertificateNumber) (*models.RegistryRecord, error) {
	var resp certificateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode certificate: %w", err)
	}

	if resp.CertificateNumber != "" && resp.CertificateNumber != requested.String() {
		return nil, fmt.Errorf("registry answered for a different certificate")
	}
	if resp.DateOfBirth == "" || resp.DateOfIssue == "" {
		return nil, errors.New("date_of_birth and date_of_issue are required")
	}

	dob, err := domain.ParseDate(resp.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("date_of_birth: %w", err)
	}
	issued, err := domain.ParseDate(resp.DateOfIssue)
	if err != nil {
		return nil, fmt.Errorf("date_of_issue: %w", err)
	}

	return &models.RegistryRecord{
		CertificateNumber: requested,
		DateOfBirth:       dob,
		IssuedAt:          issued.Time(),
		CertificateInfo:   resp.CertificateInfo,
	}, nil
}
