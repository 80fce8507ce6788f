package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"childminder/internal/dbs/models"
	"childminder/internal/dbs/recency"
	"childminder/internal/dbs/registry"
	"childminder/internal/dbs/registry/mocks"
	"childminder/pkg/domain"
	dErrors "childminder/pkg/domain-errors"
	"childminder/pkg/requestcontext"
)

const (
	certA = domain.CertificateNumber("123456789012")
	certB = domain.CertificateNumber("999999999999")
)

var (
	now        = time.Date(2024, time.May, 20, 10, 0, 0, 0, time.UTC)
	birthday   = domain.Date{Year: 1985, Month: time.June, Day: 14}
	other      = domain.Date{Year: 1985, Month: time.June, Day: 15}
	recentDate = now.AddDate(0, 0, -10)
	staleDate  = now.AddDate(-1, 0, 0)
)

type ResolverSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	registry *mocks.MockClient
	metrics  *Metrics
	resolver *Resolver
	ctx      context.Context
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.registry = mocks.NewMockClient(s.ctrl)
	s.metrics = NewMetrics(prometheus.NewRegistry())
	s.resolver = New(s.registry, WithMetrics(s.metrics))
	s.ctx = requestcontext.WithTime(context.Background(), now)
}

func (s *ResolverSuite) person() *models.Person {
	return models.NewPerson(domain.NewPersonID(), domain.NewApplicationID(), models.RoleAdult, birthday, 1, now)
}

func (s *ResolverSuite) found(dob domain.Date, issued time.Time) *models.RegistryRecord {
	return &models.RegistryRecord{CertificateNumber: certA, DateOfBirth: dob, IssuedAt: issued, CertificateInfo: "no information held"}
}

func (s *ResolverSuite) TestRecordFound() {
	tests := []struct {
		name     string
		record   *models.RegistryRecord
		capita   models.Tristate
		onUpdate models.Tristate
		want     models.Status
	}{
		{name: "recent matching record is OK", record: s.found(birthday, recentDate), want: models.StatusOK},
		{name: "recent record ignores prior answers", record: s.found(birthday, recentDate), capita: models.False, onUpdate: models.False, want: models.StatusOK},
		{name: "stale record asks about update service", record: s.found(birthday, staleDate), want: models.StatusNeedAskIfOnUpdate},
		{name: "stale record on update service needs a check", record: s.found(birthday, staleDate), onUpdate: models.True, want: models.StatusNeedUpdateServiceCheck},
		{name: "stale record off update service needs sign up", record: s.found(birthday, staleDate), onUpdate: models.False, want: models.StatusNeedUpdateServiceSignUp},
		{name: "stale record never asks about capita", record: s.found(birthday, staleDate), capita: models.Unknown, onUpdate: models.True, want: models.StatusNeedUpdateServiceCheck},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			s.registry.EXPECT().Lookup(gomock.Any(), certA).Return(tt.record, nil)

			status, err := s.resolver.Resolve(s.ctx, s.person(), certA, tt.capita, tt.onUpdate)

			s.Require().NoError(err)
			s.Equal(tt.want, status)
		})
	}
}

func (s *ResolverSuite) TestDobMismatchShortCircuits() {
	for _, issued := range []time.Time{recentDate, staleDate} {
		for _, answers := range [][2]models.Tristate{
			{models.Unknown, models.Unknown},
			{models.True, models.True},
			{models.False, models.False},
		} {
			s.SetupTest()
			p := s.person()
			record := s.found(other, issued)
			s.registry.EXPECT().Lookup(gomock.Any(), certA).Return(record, nil)

			status, err := s.resolver.Resolve(s.ctx, p, certA, answers[0], answers[1])

			s.Require().NoError(err)
			s.Equal(models.StatusDobMismatch, status)
			s.Equal(models.True, p.Capita())
			s.Equal(models.Unknown, p.WithinThreeMonths(), "recency is not trusted on a mismatch")
			s.Empty(p.CertificateInfo())
		}
	}
}

func (s *ResolverSuite) TestRecordNotFound() {
	tests := []struct {
		name     string
		capita   models.Tristate
		onUpdate models.Tristate
		want     models.Status
	}{
		{name: "asks about capita first", capita: models.Unknown, onUpdate: models.True, want: models.StatusNeedAskIfCapita},
		{name: "no capita certificate means apply for new", capita: models.False, onUpdate: models.True, want: models.StatusNeedApplyForNew},
		{name: "capita certificate asks about update service", capita: models.True, want: models.StatusNeedAskIfOnUpdate},
		{name: "capita on update service needs check", capita: models.True, onUpdate: models.True, want: models.StatusNeedUpdateServiceCheck},
		{name: "capita off update service needs sign up", capita: models.True, onUpdate: models.False, want: models.StatusNeedUpdateServiceSignUp},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			p := s.person()
			s.registry.EXPECT().Lookup(gomock.Any(), certA).Return(nil, nil)

			status, err := s.resolver.Resolve(s.ctx, p, certA, tt.capita, tt.onUpdate)

			s.Require().NoError(err)
			s.Equal(tt.want, status)
			s.Equal(models.False, p.Capita())
			s.Equal(models.Unknown, p.WithinThreeMonths())
			s.Empty(p.CertificateInfo())
		})
	}
}

func (s *ResolverSuite) TestRecordsLookupOnPerson() {
	p := s.person()
	s.registry.EXPECT().Lookup(gomock.Any(), certA).Return(s.found(birthday, staleDate), nil)

	_, err := s.resolver.Resolve(s.ctx, p, certA, models.Unknown, models.Unknown)

	s.Require().NoError(err)
	s.Equal(certA, p.CertificateNumber())
	s.Equal(models.True, p.Capita())
	s.Equal(models.False, p.WithinThreeMonths())
	s.Equal("no information held", p.CertificateInfo())
}

func (s *ResolverSuite) TestIdempotentWithoutSecondLookup() {
	p := s.person()
	s.registry.EXPECT().Lookup(gomock.Any(), certA).Return(s.found(birthday, staleDate), nil).Times(1)

	first, err := s.resolver.Resolve(s.ctx, p, certA, models.Unknown, models.True)
	s.Require().NoError(err)
	before := p.DBS()
	second, err := s.resolver.Resolve(s.ctx, p, certA, models.Unknown, models.True)
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(before, p.DBS())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.personLookups.WithLabelValues("hit")))
}

func (s *ResolverSuite) TestCachedOutcomeStillAppliesAnswers() {
	p := s.person()
	s.registry.EXPECT().Lookup(gomock.Any(), certA).Return(nil, nil).Times(1)

	status, err := s.resolver.Resolve(s.ctx, p, certA, models.Unknown, models.Unknown)
	s.Require().NoError(err)
	s.Equal(models.StatusNeedAskIfCapita, status)

	status, err = s.resolver.Resolve(s.ctx, p, certA, models.True, models.False)
	s.Require().NoError(err)
	s.Equal(models.StatusNeedUpdateServiceSignUp, status)
}

func (s *ResolverSuite) TestNumberChangeInvalidatesCache() {
	p := s.person()
	gomock.InOrder(
		s.registry.EXPECT().Lookup(gomock.Any(), certA).Return(s.found(birthday, recentDate), nil),
		s.registry.EXPECT().Lookup(gomock.Any(), certB).Return(nil, nil),
	)

	status, err := s.resolver.Resolve(s.ctx, p, certA, models.Unknown, models.Unknown)
	s.Require().NoError(err)
	s.Equal(models.StatusOK, status)
	p.AnswerOnUpdate(models.True)

	status, err = s.resolver.Resolve(s.ctx, p, certB, models.Unknown, models.Unknown)
	s.Require().NoError(err)
	s.Equal(models.StatusNeedAskIfCapita, status)
	s.Equal(certB, p.CertificateNumber())
	s.Equal(models.Unknown, p.OnUpdate(), "answers for the old number must be cleared")
}

func (s *ResolverSuite) TestRecencyBoundary() {
	tests := []struct {
		name   string
		issued time.Time
		want   models.Status
	}{
		{name: "exactly on the window edge is recent", issued: now.Add(-recency.Window), want: models.StatusOK},
		{name: "a day past the edge is not", issued: now.Add(-recency.Window - 24*time.Hour), want: models.StatusNeedAskIfOnUpdate},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			s.registry.EXPECT().Lookup(gomock.Any(), certA).Return(s.found(birthday, tt.issued), nil)

			status, err := s.resolver.Resolve(s.ctx, s.person(), certA, models.Unknown, models.Unknown)

			s.Require().NoError(err)
			s.Equal(tt.want, status)
		})
	}
}

func (s *ResolverSuite) TestPreconditions() {
	_, err := s.resolver.Resolve(s.ctx, s.person(), "", models.Unknown, models.Unknown)
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))

	_, err = s.resolver.Resolve(s.ctx, nil, certA, models.Unknown, models.Unknown)
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))
}

func (s *ResolverSuite) TestRegistryFailure() {
	s.Run("surfaces lookup failed and caches nothing", func() {
		s.SetupTest()
		p := s.person()
		gomock.InOrder(
			s.registry.EXPECT().Lookup(gomock.Any(), certA).Return(nil, registry.NewLookupError(registry.ErrorTimeout, "request timeout", context.DeadlineExceeded)),
			s.registry.EXPECT().Lookup(gomock.Any(), certA).Return(s.found(birthday, recentDate), nil),
		)

		status, err := s.resolver.Resolve(s.ctx, p, certA, models.Unknown, models.Unknown)
		s.Require().NoError(err)
		s.Equal(models.StatusLookupFailed, status)
		s.Equal(models.Unknown, p.Capita())

		status, err = s.resolver.Resolve(s.ctx, p, certA, models.Unknown, models.Unknown)
		s.Require().NoError(err)
		s.Equal(models.StatusOK, status)
	})

	s.Run("legacy mode degrades to not found without caching", func() {
		s.SetupTest()
		resolver := New(s.registry, WithDegradedAsNotFound(true))
		p := s.person()
		s.registry.EXPECT().Lookup(gomock.Any(), certA).
			Return(nil, registry.NewLookupError(registry.ErrorProviderOutage, "registry unavailable: 503", nil)).
			Times(2)

		for range 2 {
			status, err := resolver.Resolve(s.ctx, p, certA, models.Unknown, models.Unknown)
			s.Require().NoError(err)
			s.Equal(models.StatusNeedAskIfCapita, status)
			s.Equal(models.False, p.Capita())
		}
	})

	s.Run("cancellation propagates as an error", func() {
		s.SetupTest()
		s.registry.EXPECT().Lookup(gomock.Any(), certA).Return(nil, context.Canceled)

		_, err := s.resolver.Resolve(s.ctx, s.person(), certA, models.Unknown, models.Unknown)
		s.ErrorIs(err, context.Canceled)
	})
}

func TestAwaitingUserAction(t *testing.T) {
	tests := []struct {
		name     string
		statuses []models.Status
		want     bool
	}{
		{name: "empty", statuses: nil, want: false},
		{name: "open questions are not blocking", statuses: []models.Status{models.StatusNeedAskIfCapita, models.StatusOK}, want: false},
		{name: "apply for new is blocking", statuses: []models.Status{models.StatusNeedApplyForNew}, want: true},
		{name: "sign up anywhere in the list is blocking", statuses: []models.Status{models.StatusOK, models.StatusNeedAskIfOnUpdate, models.StatusNeedUpdateServiceSignUp}, want: true},
		{name: "check and failure are not blocking", statuses: []models.Status{models.StatusNeedUpdateServiceCheck, models.StatusLookupFailed, models.StatusDobMismatch}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AwaitingUserAction(tt.statuses))
		})
	}
}
