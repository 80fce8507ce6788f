// Package service runs the household workflow: roster edits, certificate
// entry with duplicate checks, the DBS answers, and status resolution.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"childminder/internal/dbs/duplicates"
	"childminder/internal/dbs/models"
	"childminder/internal/dbs/resolver"
	"childminder/internal/household/events"
	"childminder/internal/household/roster"
	"childminder/internal/platform/metrics"
	"childminder/pkg/domain"
	dErrors "childminder/pkg/domain-errors"
	"childminder/pkg/platform/sentinel"
	platformsync "childminder/pkg/platform/sync"
	"childminder/pkg/requestcontext"
)

// summaryConcurrency bounds parallel registry lookups for one application.
const summaryConcurrency = 4

// MinimumAdultAge is the youngest age a person can be added to the adults roster.
const MinimumAdultAge = 16

// Store persists household members.
// Error Contract:
// - FindByID, UpdateDBS and RemoveAndReposition return sentinel.ErrNotFound for unknown members
// - Insert returns sentinel.ErrAlreadyUsed when a roster position is taken
// - UpdateDBS returns sentinel.ErrStale when the stored number is not expected
//
// UpdateDBS is an atomic read-modify-write of certificate state only; it
// never writes a position, so it is safe outside the application lock.
type Store interface {
	Insert(ctx context.Context, p *models.Person) error
	UpdateDBS(ctx context.Context, appID domain.ApplicationID, personID domain.PersonID, expected domain.CertificateNumber, apply func(*models.Person)) (*models.Person, error)
	FindByID(ctx context.Context, appID domain.ApplicationID, personID domain.PersonID) (*models.Person, error)
	ListByApplication(ctx context.Context, appID domain.ApplicationID) ([]*models.Person, error)
	RemoveAndReposition(ctx context.Context, appID domain.ApplicationID, personID domain.PersonID, moved []*models.Person) error
}

// Resolver computes the outstanding DBS action for a person.
type Resolver interface {
	Resolve(ctx context.Context, p *models.Person, number domain.CertificateNumber, capitaAnswer, onUpdateAnswer models.Tristate) (models.Status, error)
}

// EventPublisher emits domain events. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}

type Option func(*Service)

type Service struct {
	store     Store
	resolver  Resolver
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	// roster edits and certificate checks read the whole household before
	// writing, so they are serialized per application
	appLocks *platformsync.ShardedMutex
}

func New(store Store, resolver Resolver, opts ...Option) *Service {
	svc := &Service{
		store:     store,
		resolver:  resolver,
		publisher: events.NoopPublisher{},
		logger:    slog.Default(),
		appLocks:  platformsync.NewShardedMutex(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithPublisher(p EventPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithMetrics sets the metrics instance for the service
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger instance for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// AddMember creates a person in the application. The applicant takes
// position 0; adults and children are appended to their roster at N+1.
func (s *Service) AddMember(ctx context.Context, appID domain.ApplicationID, role models.Role, dob domain.Date) (*models.Person, error) {
	if appID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "application id is required")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("invalid role: %s", role))
	}
	if dob.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "date of birth is required")
	}
	now := requestcontext.Now(ctx)
	if dob.IsInFuture(now) {
		return nil, dErrors.New(dErrors.CodeValidation, "date of birth cannot be in the future")
	}
	if role == models.RoleAdult && !domain.IsAtLeast(dob, MinimumAdultAge, now) {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("adults in the home must be at least %d", MinimumAdultAge))
	}

	s.appLocks.Lock(appID.String())
	defer s.appLocks.Unlock(appID.String())

	members, err := s.store.ListByApplication(ctx, appID)
	if err != nil {
		return nil, translateStoreErr(err, "failed to load household")
	}

	p := models.NewPerson(domain.NewPersonID(), appID, role, dob, 0, now)
	rosterSize := 1
	if role == models.RoleApplicant {
		if len(filterRole(members, models.RoleApplicant)) > 0 {
			return nil, dErrors.New(dErrors.CodeConflict, "application already has an applicant")
		}
	} else {
		r, err := roster.New(appID, role, filterRole(members, role))
		if err != nil {
			return nil, err
		}
		r.Add(p)
		rosterSize = r.Len()
	}

	if err := s.store.Insert(ctx, p); err != nil {
		return nil, translateStoreErr(err, "failed to add member")
	}
	s.metrics.IncrementMembersAdded(string(role), rosterSize)
	s.logger.InfoContext(ctx, "household member added",
		"application_id", appID.String(),
		"person_id", p.ID.String(),
		"role", string(role),
		"position", p.Position,
	)
	return p, nil
}

// RemoveMember deletes a roster member and closes the gap it leaves.
// The applicant cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, appID domain.ApplicationID, personID domain.PersonID) error {
	s.appLocks.Lock(appID.String())
	defer s.appLocks.Unlock(appID.String())

	p, err := s.store.FindByID(ctx, appID, personID)
	if err != nil {
		return translateStoreErr(err, "failed to load member")
	}
	if !p.Role.HasRoster() {
		return dErrors.New(dErrors.CodePreconditionFailed, "the applicant cannot be removed from an application")
	}

	members, err := s.store.ListByApplication(ctx, appID)
	if err != nil {
		return translateStoreErr(err, "failed to load household")
	}
	r, err := roster.New(appID, p.Role, filterRole(members, p.Role))
	if err != nil {
		s.logger.ErrorContext(ctx, "roster integrity fault",
			"application_id", appID.String(),
			"role", string(p.Role),
			"error", err,
		)
		return err
	}
	removed, moved, err := r.Remove(personID)
	if err != nil {
		return err
	}
	if err := s.store.RemoveAndReposition(ctx, appID, personID, moved); err != nil {
		return translateStoreErr(err, "failed to remove member")
	}

	s.metrics.IncrementMembersRemoved(string(removed.Role))
	s.logger.InfoContext(ctx, "household member removed",
		"application_id", appID.String(),
		"person_id", personID.String(),
		"role", string(removed.Role),
		"renumbered", len(moved),
	)
	s.publish(ctx, events.New(ctx, events.TypeMemberRemoved, removed))
	return nil
}

// SetCertificateNumber validates and stores a person's certificate number.
// A number matching the applicant's own, or another member's, is rejected
// with CodeValidation; the returned report names the clashing positions
// among the household (non-applicant) members.
func (s *Service) SetCertificateNumber(ctx context.Context, appID domain.ApplicationID, personID domain.PersonID, raw string) (duplicates.Report, error) {
	number, err := domain.ParseCertificateNumber(raw)
	if err != nil {
		return duplicates.Report{}, err
	}

	s.appLocks.Lock(appID.String())
	defer s.appLocks.Unlock(appID.String())

	members, err := s.store.ListByApplication(ctx, appID)
	if err != nil {
		return duplicates.Report{}, translateStoreErr(err, "failed to load household")
	}
	p := findMember(members, personID)
	if p == nil {
		return duplicates.Report{}, dErrors.New(dErrors.CodeNotFound, "member not found")
	}

	applicantNumber, household := prospectiveNumbers(members, p, number)
	report := duplicates.Check(applicantNumber, household)

	if kind := clashKind(members, p, number); kind != "" {
		s.metrics.IncrementDuplicateRejections(kind)
		s.logger.InfoContext(ctx, "certificate number rejected as duplicate",
			"application_id", appID.String(),
			"person_id", personID.String(),
			"kind", kind,
			"positions", report.Positions(),
		)
		msg := "certificate number is already used by another member of the household"
		if kind == clashSelf {
			msg = "certificate number matches the applicant's own certificate"
		}
		return report, dErrors.New(dErrors.CodeValidation, msg)
	}

	if p.CertificateNumber() == number {
		return report, nil
	}
	updated, err := s.store.UpdateDBS(ctx, appID, personID, p.CertificateNumber(), func(m *models.Person) {
		m.SetCertificateNumber(number)
	})
	if err != nil {
		return duplicates.Report{}, translateStoreErr(err, "failed to save certificate number")
	}
	s.metrics.IncrementCertificatesChanged()
	s.publish(ctx, events.New(ctx, events.TypeCertificateChanged, updated))
	return report, nil
}

// RecordAnswers stores both DBS answers in one write. Unknown leaves that
// answer as it is; at least one must be given.
func (s *Service) RecordAnswers(ctx context.Context, appID domain.ApplicationID, personID domain.PersonID, enhancedCheck, onUpdate models.Tristate) error {
	if !enhancedCheck.IsKnown() && !onUpdate.IsKnown() {
		return dErrors.New(dErrors.CodeBadRequest, "at least one answer is required")
	}
	return s.answer(ctx, appID, personID, func(p *models.Person) {
		if enhancedCheck.IsKnown() {
			p.AnswerEnhancedCheck(enhancedCheck)
		}
		if onUpdate.IsKnown() {
			p.AnswerOnUpdate(onUpdate)
		}
	})
}

func (s *Service) answer(ctx context.Context, appID domain.ApplicationID, personID domain.PersonID, set func(*models.Person)) error {
	p, err := s.store.FindByID(ctx, appID, personID)
	if err != nil {
		return translateStoreErr(err, "failed to load member")
	}
	if p.CertificateNumber().IsZero() {
		return dErrors.New(dErrors.CodePreconditionFailed, "a certificate number must be entered before answering DBS questions")
	}
	// The answers belong to the number they were given for.
	if _, err := s.store.UpdateDBS(ctx, appID, personID, p.CertificateNumber(), set); err != nil {
		return translateStoreErr(err, "failed to save answer")
	}
	return nil
}

// ResolveStatus runs the resolver for one person and stores whatever it
// learned from the registry.
func (s *Service) ResolveStatus(ctx context.Context, appID domain.ApplicationID, personID domain.PersonID) (models.Status, error) {
	p, err := s.store.FindByID(ctx, appID, personID)
	if err != nil {
		return "", translateStoreErr(err, "failed to load member")
	}
	return s.resolveAndSave(ctx, p)
}

// resolveAndSave resolves on a detached copy, so the registry call holds no
// lock, then writes back only the lookup fields. A number changed in the
// meantime makes the outcome stale and the call fails with CodeConflict.
func (s *Service) resolveAndSave(ctx context.Context, p *models.Person) (models.Status, error) {
	before := p.DBS()
	status, err := s.resolver.Resolve(ctx, p, p.CertificateNumber(), p.EnhancedCheck(), p.OnUpdate())
	if err != nil {
		return "", err
	}
	after := p.DBS()
	if lookupChanged(before, after) {
		_, err := s.store.UpdateDBS(ctx, p.ApplicationID, p.ID, before.CertificateNumber, func(m *models.Person) {
			m.RecordLookup(models.LookupFields{
				Capita:            after.Capita,
				WithinThreeMonths: after.WithinThreeMonths,
				CertificateInfo:   after.CertificateInfo,
			}, after.Lookup)
		})
		if err != nil {
			return "", translateStoreErr(err, "failed to save lookup outcome")
		}
	}
	e := events.New(ctx, events.TypeStatusResolved, p)
	e.Status = status
	s.publish(ctx, e)
	return status, nil
}

func lookupChanged(before, after models.DBSCheck) bool {
	if before.Capita != after.Capita || before.WithinThreeMonths != after.WithinThreeMonths ||
		before.CertificateInfo != after.CertificateInfo {
		return true
	}
	if before.Lookup == nil || after.Lookup == nil {
		return before.Lookup != after.Lookup
	}
	return *before.Lookup != *after.Lookup
}

// MemberStatus is one person's line in an application summary.
// Status is empty when no certificate number has been entered.
type MemberStatus struct {
	PersonID           domain.PersonID `json:"person_id"`
	Role               models.Role     `json:"role"`
	Position           int             `json:"position"`
	CertificateEntered bool            `json:"certificate_entered"`
	Status             models.Status   `json:"status,omitempty"`
}

// Summary is the DBS state of a whole application.
type Summary struct {
	ApplicationID      domain.ApplicationID `json:"application_id"`
	Members            []MemberStatus       `json:"members"`
	AwaitingUserAction bool                 `json:"awaiting_user_action"`
	Duplicates         duplicates.Report    `json:"duplicates"`
	DuplicatePositions []int                `json:"duplicate_positions,omitempty"`
}

// ApplicationSummary resolves every member holding a certificate number and
// re-checks the household for duplicates.
func (s *Service) ApplicationSummary(ctx context.Context, appID domain.ApplicationID) (Summary, error) {
	members, err := s.store.ListByApplication(ctx, appID)
	if err != nil {
		return Summary{}, translateStoreErr(err, "failed to load household")
	}
	if len(members) == 0 {
		return Summary{}, dErrors.New(dErrors.CodeNotFound, "application has no members")
	}

	summary := Summary{ApplicationID: appID, Members: make([]MemberStatus, len(members))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	// Each goroutine writes only its own slot.
	for i, p := range members {
		summary.Members[i] = MemberStatus{
			PersonID:           p.ID,
			Role:               p.Role,
			Position:           p.Position,
			CertificateEntered: !p.CertificateNumber().IsZero(),
		}
		if !summary.Members[i].CertificateEntered {
			continue
		}
		g.Go(func() error {
			status, err := s.resolveAndSave(gctx, p)
			if err != nil {
				return err
			}
			summary.Members[i].Status = status
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	var statuses []models.Status
	for _, m := range summary.Members {
		if m.Status != "" {
			statuses = append(statuses, m.Status)
		}
	}

	applicantNumber, household := currentNumbers(members)
	summary.AwaitingUserAction = resolver.AwaitingUserAction(statuses)
	summary.Duplicates = duplicates.Check(applicantNumber, household)
	summary.DuplicatePositions = summary.Duplicates.Positions()
	return summary, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.metrics.IncrementEventPublishFailures(string(e.Type))
		s.logger.WarnContext(ctx, "failed to publish event",
			"type", string(e.Type),
			"application_id", e.ApplicationID,
			"error", err,
		)
	}
}

const (
	clashSelf      = "self"
	clashHousehold = "household"
)

// clashKind reports how number would collide if p took it, or "".
func clashKind(members []*models.Person, p *models.Person, number domain.CertificateNumber) string {
	var applicant *models.Person
	var entries []duplicates.Entry
	for _, m := range members {
		if m.Role == models.RoleApplicant {
			applicant = m
			continue
		}
		entries = append(entries, duplicates.Entry{PersonID: m.ID, Number: m.CertificateNumber().String()})
	}

	if p.Role == models.RoleApplicant {
		// Another member already holds the applicant's number.
		if duplicates.FindHouseholdDuplicate(entries, number.String(), &p.ID) {
			return clashSelf
		}
		return ""
	}
	if applicant != nil && duplicates.FindSelfDuplicate(applicant.CertificateNumber().String(), number.String()) {
		return clashSelf
	}
	if duplicates.FindHouseholdDuplicate(entries, number.String(), &p.ID) {
		return clashHousehold
	}
	return ""
}

// currentNumbers splits stored numbers into the applicant's and the
// household's, in roster order.
func currentNumbers(members []*models.Person) (string, []string) {
	var applicant string
	household := make([]string, 0, len(members))
	for _, m := range members {
		if m.Role == models.RoleApplicant {
			applicant = m.CertificateNumber().String()
			continue
		}
		household = append(household, m.CertificateNumber().String())
	}
	return applicant, household
}

// prospectiveNumbers is currentNumbers with p holding number.
func prospectiveNumbers(members []*models.Person, p *models.Person, number domain.CertificateNumber) (string, []string) {
	var applicant string
	household := make([]string, 0, len(members))
	for _, m := range members {
		n := m.CertificateNumber().String()
		if m.ID == p.ID {
			n = number.String()
		}
		if m.Role == models.RoleApplicant {
			applicant = n
			continue
		}
		household = append(household, n)
	}
	return applicant, household
}

func filterRole(members []*models.Person, role models.Role) []*models.Person {
	var out []*models.Person
	for _, m := range members {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

func findMember(members []*models.Person, id domain.PersonID) *models.Person {
	for _, m := range members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// translateStoreErr maps store sentinels to domain errors exactly once.
func translateStoreErr(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "member not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, "roster position already taken")
	case errors.Is(err, sentinel.ErrStale):
		return dErrors.Wrap(err, dErrors.CodeConflict, "certificate number changed while the request was in flight")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
