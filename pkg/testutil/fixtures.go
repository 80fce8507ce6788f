package testutil

import (
	"time"

	"github.com/google/uuid"

	"childminder/internal/dbs/models"
	"childminder/pkg/domain"
)

// TestIDs provides fixed IDs for deterministic test data.
var TestIDs = struct {
	ApplicationID1 domain.ApplicationID
	ApplicationID2 domain.ApplicationID
	PersonID1      domain.PersonID
	PersonID2      domain.PersonID
}{
	ApplicationID1: domain.ApplicationID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000001")),
	ApplicationID2: domain.ApplicationID(uuid.MustParse("aaaa0000-0000-0000-0000-000000000002")),
	PersonID1:      domain.PersonID(uuid.MustParse("11111111-1111-1111-1111-111111111111")),
	PersonID2:      domain.PersonID(uuid.MustParse("22222222-2222-2222-2222-222222222222")),
}

// DefaultDOB is an adult date of birth used when a test does not care.
var DefaultDOB = domain.Date{Year: 1985, Month: time.March, Day: 14}

// PersonBuilder provides a fluent interface for building household members.
type PersonBuilder struct {
	id       domain.PersonID
	appID    domain.ApplicationID
	role     models.Role
	dob      domain.Date
	position int
	number   domain.CertificateNumber
	onUpdate models.Tristate
	created  time.Time
}

// NewPersonBuilder starts an adult at position 1 in TestIDs.ApplicationID1.
func NewPersonBuilder() *PersonBuilder {
	return &PersonBuilder{
		id:       domain.NewPersonID(),
		appID:    TestIDs.ApplicationID1,
		role:     models.RoleAdult,
		dob:      DefaultDOB,
		position: 1,
		created:  time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (b *PersonBuilder) WithID(id domain.PersonID) *PersonBuilder {
	b.id = id
	return b
}

func (b *PersonBuilder) WithApplication(appID domain.ApplicationID) *PersonBuilder {
	b.appID = appID
	return b
}

func (b *PersonBuilder) WithRole(role models.Role) *PersonBuilder {
	b.role = role
	return b
}

func (b *PersonBuilder) WithDateOfBirth(dob domain.Date) *PersonBuilder {
	b.dob = dob
	return b
}

func (b *PersonBuilder) AtPosition(position int) *PersonBuilder {
	b.position = position
	return b
}

func (b *PersonBuilder) WithCertificate(number domain.CertificateNumber) *PersonBuilder {
	b.number = number
	return b
}

func (b *PersonBuilder) WithOnUpdate(answer models.Tristate) *PersonBuilder {
	b.onUpdate = answer
	return b
}

func (b *PersonBuilder) Build() *models.Person {
	p := models.NewPerson(b.id, b.appID, b.role, b.dob, b.position, b.created)
	if !b.number.IsZero() {
		p.SetCertificateNumber(b.number)
	}
	if b.onUpdate != models.Unknown {
		p.AnswerOnUpdate(b.onUpdate)
	}
	return p
}

// Applicant builds the applicant of appID at position 0.
func Applicant(appID domain.ApplicationID) *models.Person {
	return NewPersonBuilder().WithApplication(appID).WithRole(models.RoleApplicant).AtPosition(0).Build()
}
