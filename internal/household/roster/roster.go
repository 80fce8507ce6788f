// Package roster keeps household members densely numbered 1..N.
package roster

import (
	"fmt"
	"slices"

	"childminder/internal/dbs/models"
	"childminder/pkg/domain"
	dErrors "childminder/pkg/domain-errors"
)

// ErrIntegrity marks a roster whose positions cannot be trusted.
var ErrIntegrity = dErrors.New(dErrors.CodeInvariantViolation, "roster integrity fault")

func integrityFault(format string, args ...any) error {
	return dErrors.Wrap(ErrIntegrity, dErrors.CodeInvariantViolation, fmt.Sprintf(format, args...))
}

// Renumber closes gaps in members' positions, keeping relative order.
// removed is the position just vacated, or nil when only closing gaps.
// n is the number of members the caller expects once renumbered.
//
// Errors: ErrIntegrity when two members already share a position, a position
// is below 1, a member still sits at the removed position, or the member
// count is not n. Nothing is modified in those cases.
func Renumber(members []*models.Person, n int, removed *int) error {
	seen := make(map[int]struct{}, len(members))
	for _, m := range members {
		if m.Position < 1 {
			return integrityFault("member %s has invalid position %d", m.ID, m.Position)
		}
		if _, dup := seen[m.Position]; dup {
			return integrityFault("position %d is held by more than one member", m.Position)
		}
		seen[m.Position] = struct{}{}
		if removed != nil && m.Position == *removed {
			return integrityFault("member %s still holds removed position %d", m.ID, *removed)
		}
	}
	if len(members) != n {
		return integrityFault("expected %d members, found %d", n, len(members))
	}

	if removed != nil {
		for _, m := range members {
			if m.Position > *removed {
				m.Position--
			}
		}
	}

	// Positions are distinct, so sorting and reassigning 1..n is the same as
	// repeatedly shifting the next occupant into each empty slot.
	ordered := slices.Clone(members)
	slices.SortStableFunc(ordered, func(a, b *models.Person) int { return a.Position - b.Position })
	for i, m := range ordered {
		m.Position = i + 1
	}
	return nil
}

// Roster is the ordered members of one role within an application.
type Roster struct {
	ApplicationID domain.ApplicationID
	Role          models.Role
	members       []*models.Person
}

// New builds a roster from stored members and validates it.
func New(appID domain.ApplicationID, role models.Role, members []*models.Person) (*Roster, error) {
	r := &Roster{ApplicationID: appID, Role: role, members: slices.Clone(members)}
	r.sort()
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Roster) sort() {
	slices.SortStableFunc(r.members, func(a, b *models.Person) int { return a.Position - b.Position })
}

// Members returns the members in position order.
func (r *Roster) Members() []*models.Person {
	return slices.Clone(r.members)
}

func (r *Roster) Len() int { return len(r.members) }

// Add appends p at position N+1.
func (r *Roster) Add(p *models.Person) {
	p.Position = len(r.members) + 1
	r.members = append(r.members, p)
}

// Find returns the member with the given ID.
func (r *Roster) Find(id domain.PersonID) (*models.Person, bool) {
	for _, m := range r.members {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// Remove takes the member out and renumbers the rest.
// Returns the removed member and the members whose position changed.
func (r *Roster) Remove(id domain.PersonID) (*models.Person, []*models.Person, error) {
	idx := slices.IndexFunc(r.members, func(m *models.Person) bool { return m.ID == id })
	if idx < 0 {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "member not found in roster")
	}
	removed := r.members[idx]
	remaining := slices.Delete(slices.Clone(r.members), idx, idx+1)

	before := make(map[domain.PersonID]int, len(remaining))
	for _, m := range remaining {
		before[m.ID] = m.Position
	}

	vacated := removed.Position
	if err := Renumber(remaining, len(remaining), &vacated); err != nil {
		return nil, nil, err
	}

	var moved []*models.Person
	for _, m := range remaining {
		if before[m.ID] != m.Position {
			moved = append(moved, m)
		}
	}
	r.members = remaining
	r.sort()
	return removed, moved, nil
}

// Validate checks that positions are exactly 1..N.
func (r *Roster) Validate() error {
	for i, m := range r.members {
		if m.Role != r.Role {
			return integrityFault("member %s has role %s in %s roster", m.ID, m.Role, r.Role)
		}
		if m.Position != i+1 {
			return integrityFault("expected position %d, found %d", i+1, m.Position)
		}
	}
	return nil
}
