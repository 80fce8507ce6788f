// Package domain provides type-safe identifiers and value primitives shared across packages.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "childminder/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a PersonID where an ApplicationID is expected.
type (
	ApplicationID uuid.UUID
	PersonID      uuid.UUID
)

// NewApplicationID returns a random application identifier.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

// NewPersonID returns a random person identifier.
func NewPersonID() PersonID { return PersonID(uuid.New()) }

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseApplicationID(s string) (ApplicationID, error) {
	id, err := parseUUID(s, "application ID")
	return ApplicationID(id), err
}

func ParsePersonID(s string) (PersonID, error) {
	id, err := parseUUID(s, "person ID")
	return PersonID(id), err
}

func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id PersonID) String() string      { return uuid.UUID(id).String() }

func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PersonID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}

// CertificateNumberLength is the number of digits on a DBS certificate.
const CertificateNumberLength = 12

// CertificateNumber is a DBS certificate number. The zero value means "not provided".
type CertificateNumber string

// ParseCertificateNumber validates a user-entered certificate number.
// Surrounding whitespace and inner spaces are ignored; the result is digits only.
func ParseCertificateNumber(s string) (CertificateNumber, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if cleaned == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "certificate number cannot be empty")
	}
	if len(cleaned) != CertificateNumberLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "certificate number must be 12 digits")
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "certificate number must contain digits only")
		}
	}
	return CertificateNumber(cleaned), nil
}

func (n CertificateNumber) String() string { return string(n) }
func (n CertificateNumber) IsZero() bool   { return n == "" }
