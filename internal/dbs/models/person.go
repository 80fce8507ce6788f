// Package models holds the DBS engine's data model: people, their certificate
// fields, and the registry record shape.
package models

import (
	"fmt"
	"time"

	"childminder/pkg/domain"
)

// Role places a person in an application.
type Role string

const (
	RoleApplicant Role = "applicant"
	RoleAdult     Role = "adult"
	RoleChild     Role = "child"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleApplicant, RoleAdult, RoleChild:
		return true
	}
	return false
}

// ParseRole validates a role received at a trust boundary.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// HasRoster reports whether people with this role are kept in a numbered roster.
func (r Role) HasRoster() bool { return r == RoleAdult || r == RoleChild }

// RegistryRecord is what the DBS registry holds for a certificate.
type RegistryRecord struct {
	CertificateNumber domain.CertificateNumber
	DateOfBirth       domain.Date
	IssuedAt          time.Time
	CertificateInfo   string
}

// LookupOutcome is a registry answer remembered on a person so repeat
// resolutions against the same number skip the registry.
type LookupOutcome struct {
	CertificateNumber domain.CertificateNumber
	Found             bool
	DateOfBirth       domain.Date
	IssuedAt          time.Time
	CertificateInfo   string
}

// LookupOutcomeFor builds the outcome for a lookup of number; record is nil when not found.
func LookupOutcomeFor(number domain.CertificateNumber, record *RegistryRecord) LookupOutcome {
	if record == nil {
		return LookupOutcome{CertificateNumber: number}
	}
	return LookupOutcome{
		CertificateNumber: number,
		Found:             true,
		DateOfBirth:       record.DateOfBirth,
		IssuedAt:          record.IssuedAt,
		CertificateInfo:   record.CertificateInfo,
	}
}

// LookupFields are the person fields derived from a registry lookup.
type LookupFields struct {
	Capita            Tristate
	WithinThreeMonths Tristate
	CertificateInfo   string
}

// DBSCheck is the full set of certificate state held for a person.
type DBSCheck struct {
	CertificateNumber domain.CertificateNumber
	Capita            Tristate
	WithinThreeMonths Tristate
	EnhancedCheck     Tristate
	OnUpdate          Tristate
	CertificateInfo   string
	Lookup            *LookupOutcome
}

// Person is an applicant or household member.
//
// DBS fields are only reachable through the methods below so a certificate
// number change always clears the answers given for the previous number.
type Person struct {
	ID            domain.PersonID
	ApplicationID domain.ApplicationID
	Role          Role
	DateOfBirth   domain.Date
	// Position is 1-based within the role's roster. Zero for the applicant.
	Position  int
	CreatedAt time.Time

	dbs DBSCheck
}

// NewPerson creates a person with empty DBS fields.
func NewPerson(id domain.PersonID, appID domain.ApplicationID, role Role, dob domain.Date, position int, now time.Time) *Person {
	return &Person{
		ID:            id,
		ApplicationID: appID,
		Role:          role,
		DateOfBirth:   dob,
		Position:      position,
		CreatedAt:     now,
	}
}

func (p *Person) CertificateNumber() domain.CertificateNumber { return p.dbs.CertificateNumber }
func (p *Person) Capita() Tristate                            { return p.dbs.Capita }
func (p *Person) WithinThreeMonths() Tristate                 { return p.dbs.WithinThreeMonths }
func (p *Person) EnhancedCheck() Tristate                     { return p.dbs.EnhancedCheck }
func (p *Person) OnUpdate() Tristate                          { return p.dbs.OnUpdate }
func (p *Person) CertificateInfo() string                     { return p.dbs.CertificateInfo }

// DBS returns a copy of the person's certificate state.
func (p *Person) DBS() DBSCheck {
	out := p.dbs
	if p.dbs.Lookup != nil {
		lookup := *p.dbs.Lookup
		out.Lookup = &lookup
	}
	return out
}

// RestoreDBS reloads certificate state from storage. It performs no clearing.
func (p *Person) RestoreDBS(check DBSCheck) {
	p.dbs = check
	if check.Lookup != nil {
		lookup := *check.Lookup
		p.dbs.Lookup = &lookup
	}
}

// ClearDBSFields resets every field derived from or answered for the current
// certificate number, including the cached registry outcome.
func (p *Person) ClearDBSFields() {
	p.dbs.Capita = Unknown
	p.dbs.WithinThreeMonths = Unknown
	p.dbs.EnhancedCheck = Unknown
	p.dbs.OnUpdate = Unknown
	p.dbs.CertificateInfo = ""
	p.dbs.Lookup = nil
}

// SetCertificateNumber changes the number and clears dependent fields.
// Setting the same number again is a no-op. Reports whether anything changed.
func (p *Person) SetCertificateNumber(number domain.CertificateNumber) bool {
	if p.dbs.CertificateNumber == number {
		return false
	}
	p.dbs.CertificateNumber = number
	p.ClearDBSFields()
	return true
}

// AnswerEnhancedCheck records the user's answer to "is this an enhanced certificate".
func (p *Person) AnswerEnhancedCheck(answer Tristate) {
	p.dbs.EnhancedCheck = answer
}

// AnswerOnUpdate records the user's answer to "are you on the update service".
func (p *Person) AnswerOnUpdate(answer Tristate) {
	p.dbs.OnUpdate = answer
}

// RecordLookup stores the fields derived from a registry lookup. A nil
// outcome leaves the lookup uncached so the next resolution asks again.
func (p *Person) RecordLookup(fields LookupFields, outcome *LookupOutcome) {
	p.dbs.Capita = fields.Capita
	p.dbs.WithinThreeMonths = fields.WithinThreeMonths
	p.dbs.CertificateInfo = fields.CertificateInfo
	if outcome == nil {
		p.dbs.Lookup = nil
		return
	}
	cached := *outcome
	p.dbs.Lookup = &cached
}

// CachedLookup returns the remembered registry outcome for number, if any.
func (p *Person) CachedLookup(number domain.CertificateNumber) (LookupOutcome, bool) {
	if p.dbs.Lookup == nil || p.dbs.Lookup.CertificateNumber != number {
		return LookupOutcome{}, false
	}
	return *p.dbs.Lookup, true
}
