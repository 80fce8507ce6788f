// Package store persists household members.
//
// Error contract for every store:
//   - sentinel.ErrNotFound when the member does not exist in the application
//   - sentinel.ErrAlreadyUsed when a roster position is already taken
//   - sentinel.ErrStale when UpdateDBS finds a different certificate number
//   - wrapped errors for infrastructure failures
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"childminder/internal/dbs/models"
	"childminder/pkg/domain"
	"childminder/pkg/platform/sentinel"
)

type slot struct {
	app      domain.ApplicationID
	role     models.Role
	position int
}

// InMemoryStore keeps members in process. Reads and writes copy the person
// so callers never share state with the store.
type InMemoryStore struct {
	mu      sync.RWMutex
	members map[domain.PersonID]*models.Person
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{members: make(map[domain.PersonID]*models.Person)}
}

func clonePerson(p *models.Person) *models.Person {
	out := *p
	out.RestoreDBS(p.DBS())
	return &out
}

func (s *InMemoryStore) slotTakenLocked(p *models.Person) bool {
	want := slot{p.ApplicationID, p.Role, p.Position}
	for _, m := range s.members {
		if m.ID != p.ID && (slot{m.ApplicationID, m.Role, m.Position}) == want {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) Insert(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.members[p.ID]; exists || s.slotTakenLocked(p) {
		return fmt.Errorf("roster position %d taken: %w", p.Position, sentinel.ErrAlreadyUsed)
	}
	s.members[p.ID] = clonePerson(p)
	return nil
}

// UpdateDBS applies fn to the stored member and keeps only its certificate
// state; position and identity are never written here. It fails with
// sentinel.ErrStale when the stored number is no longer expected.
func (s *InMemoryStore) UpdateDBS(_ context.Context, appID domain.ApplicationID, personID domain.PersonID, expected domain.CertificateNumber, fn func(*models.Person)) (*models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.members[personID]
	if !ok || existing.ApplicationID != appID {
		return nil, fmt.Errorf("member not found: %w", sentinel.ErrNotFound)
	}
	if existing.CertificateNumber() != expected {
		return nil, fmt.Errorf("certificate number changed: %w", sentinel.ErrStale)
	}
	updated := clonePerson(existing)
	fn(updated)
	existing.RestoreDBS(updated.DBS())
	return clonePerson(existing), nil
}

func (s *InMemoryStore) FindByID(_ context.Context, appID domain.ApplicationID, personID domain.PersonID) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.members[personID]
	if !ok || p.ApplicationID != appID {
		return nil, fmt.Errorf("member not found: %w", sentinel.ErrNotFound)
	}
	return clonePerson(p), nil
}

// ListByApplication returns the applicant first, then adults, then children,
// each in position order.
func (s *InMemoryStore) ListByApplication(_ context.Context, appID domain.ApplicationID) ([]*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Person
	for _, p := range s.members {
		if p.ApplicationID == appID {
			out = append(out, clonePerson(p))
		}
	}
	slices.SortFunc(out, compareMembers)
	return out, nil
}

// RemoveAndReposition deletes a member and saves the new positions of the
// rest atomically.
func (s *InMemoryStore) RemoveAndReposition(_ context.Context, appID domain.ApplicationID, personID domain.PersonID, moved []*models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.members[personID]
	if !ok || p.ApplicationID != appID {
		return fmt.Errorf("member not found: %w", sentinel.ErrNotFound)
	}
	for _, m := range moved {
		if existing, ok := s.members[m.ID]; !ok || existing.ApplicationID != appID {
			return fmt.Errorf("moved member not found: %w", sentinel.ErrNotFound)
		}
	}
	delete(s.members, personID)
	for _, m := range moved {
		s.members[m.ID].Position = m.Position
	}
	return nil
}

var roleOrder = map[models.Role]int{
	models.RoleApplicant: 0,
	models.RoleAdult:     1,
	models.RoleChild:     2,
}

func compareMembers(a, b *models.Person) int {
	if ra, rb := roleOrder[a.Role], roleOrder[b.Role]; ra != rb {
		return ra - rb
	}
	return a.Position - b.Position
}
