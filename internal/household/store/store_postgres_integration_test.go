//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"childminder/internal/dbs/models"
	"childminder/internal/household/store"
	"childminder/pkg/domain"
	"childminder/pkg/platform/sentinel"
	"childminder/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	appID    domain.ApplicationID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateModuleTables(context.Background()))
	s.appID = domain.NewApplicationID()
}

func (s *PostgresStoreSuite) newMember(role models.Role, position int) *models.Person {
	return models.NewPerson(domain.NewPersonID(), s.appID, role,
		domain.Date{Year: 1980, Month: time.March, Day: 3}, position, time.Now().UTC().Truncate(time.Microsecond))
}

func (s *PostgresStoreSuite) TestDBSFieldsRoundTrip() {
	ctx := context.Background()
	p := s.newMember(models.RoleAdult, 1)
	s.Require().NoError(s.store.Insert(ctx, p))

	outcome := models.LookupOutcome{
		CertificateNumber: "123456789012",
		Found:             true,
		DateOfBirth:       p.DateOfBirth,
		IssuedAt:          time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
		CertificateInfo:   "no information held",
	}
	updated, err := s.store.UpdateDBS(ctx, s.appID, p.ID, "", func(m *models.Person) {
		m.SetCertificateNumber("123456789012")
		m.RecordLookup(models.LookupFields{Capita: models.True, WithinThreeMonths: models.False, CertificateInfo: "no information held"}, &outcome)
		m.AnswerOnUpdate(models.False)
	})
	s.Require().NoError(err)

	got, err := s.store.FindByID(ctx, s.appID, p.ID)
	s.Require().NoError(err)
	s.Equal(updated.DBS(), got.DBS())
	s.Equal(p.DateOfBirth, got.DateOfBirth)
	s.Equal(models.Unknown, got.EnhancedCheck())
}

func (s *PostgresStoreSuite) TestUpdateDBSLeavesPositionAlone() {
	ctx := context.Background()
	a, b := s.newMember(models.RoleAdult, 1), s.newMember(models.RoleAdult, 2)
	s.Require().NoError(s.store.Insert(ctx, a))
	s.Require().NoError(s.store.Insert(ctx, b))

	b.Position = 1
	s.Require().NoError(s.store.RemoveAndReposition(ctx, s.appID, a.ID, []*models.Person{b}))

	_, err := s.store.UpdateDBS(ctx, s.appID, b.ID, "", func(m *models.Person) {
		m.Position = 2
		m.SetCertificateNumber("222222222222")
	})
	s.Require().NoError(err)

	got, err := s.store.FindByID(ctx, s.appID, b.ID)
	s.Require().NoError(err)
	s.Equal(1, got.Position)
	s.Equal("222222222222", got.CertificateNumber().String())

	_, err = s.store.UpdateDBS(ctx, s.appID, b.ID, "", func(m *models.Person) { m.AnswerOnUpdate(models.True) })
	s.ErrorIs(err, sentinel.ErrStale)
}

func (s *PostgresStoreSuite) TestNotFoundOutcomeRoundTrip() {
	ctx := context.Background()
	p := s.newMember(models.RoleChild, 1)
	p.SetCertificateNumber("123456789012")
	outcome := models.LookupOutcomeFor("123456789012", nil)
	p.RecordLookup(models.LookupFields{Capita: models.False}, &outcome)
	s.Require().NoError(s.store.Insert(ctx, p))

	got, err := s.store.FindByID(ctx, s.appID, p.ID)
	s.Require().NoError(err)
	cached, ok := got.CachedLookup("123456789012")
	s.Require().True(ok)
	s.False(cached.Found)
}

func (s *PostgresStoreSuite) TestUniquePosition() {
	ctx := context.Background()
	s.Require().NoError(s.store.Insert(ctx, s.newMember(models.RoleAdult, 1)))

	s.ErrorIs(s.store.Insert(ctx, s.newMember(models.RoleAdult, 1)), sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestRemoveAndRepositionIsAtomic() {
	ctx := context.Background()
	a, b, c := s.newMember(models.RoleAdult, 1), s.newMember(models.RoleAdult, 2), s.newMember(models.RoleAdult, 3)
	for _, p := range []*models.Person{a, b, c} {
		s.Require().NoError(s.store.Insert(ctx, p))
	}

	b.Position, c.Position = 1, 2
	s.Require().NoError(s.store.RemoveAndReposition(ctx, s.appID, a.ID, []*models.Person{b, c}))

	list, err := s.store.ListByApplication(ctx, s.appID)
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal(1, list[0].Position)
	s.Equal(2, list[1].Position)

	// colliding positions roll back the delete too
	d := s.newMember(models.RoleAdult, 3)
	s.Require().NoError(s.store.Insert(ctx, d))
	c.Position = 1
	s.ErrorIs(s.store.RemoveAndReposition(ctx, s.appID, d.ID, []*models.Person{c}), sentinel.ErrAlreadyUsed)
	list, err = s.store.ListByApplication(ctx, s.appID)
	s.Require().NoError(err)
	s.Len(list, 3)
}

func (s *PostgresStoreSuite) TestMissingMember() {
	ctx := context.Background()
	_, err := s.store.FindByID(ctx, s.appID, domain.NewPersonID())
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.UpdateDBS(ctx, s.appID, domain.NewPersonID(), "", func(*models.Person) {})
	s.ErrorIs(err, sentinel.ErrNotFound)
}
