package roster

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"childminder/internal/dbs/models"
	"childminder/pkg/domain"
	dErrors "childminder/pkg/domain-errors"
)

var appID = domain.NewApplicationID()

func member(position int) *models.Person {
	return models.NewPerson(domain.NewPersonID(), appID, models.RoleAdult, domain.Date{Year: 1980, Month: time.January, Day: 1}, position, time.Now())
}

func positions(members []*models.Person) []int {
	out := make([]int, len(members))
	for i, m := range members {
		out[i] = m.Position
	}
	return out
}

func intPtr(i int) *int { return &i }

func TestRenumber(t *testing.T) {
	t.Run("closes the gap left by a removal", func(t *testing.T) {
		members := []*models.Person{member(1), member(2), member(4)}
		old4 := members[2]

		require.NoError(t, Renumber(members, 3, intPtr(3)))

		assert.Equal(t, []int{1, 2, 3}, positions(members))
		assert.Equal(t, 3, old4.Position, "old position 4 becomes 3")
	})

	t.Run("removing the first member shifts everyone down", func(t *testing.T) {
		members := []*models.Person{member(2), member(3), member(4)}

		require.NoError(t, Renumber(members, 3, intPtr(1)))

		assert.Equal(t, []int{1, 2, 3}, positions(members))
	})

	t.Run("closes internal gaps without a removal", func(t *testing.T) {
		a, b, c := member(2), member(5), member(9)
		members := []*models.Person{c, a, b}

		require.NoError(t, Renumber(members, 3, nil))

		assert.Equal(t, 1, a.Position)
		assert.Equal(t, 2, b.Position)
		assert.Equal(t, 3, c.Position)
	})

	t.Run("dense roster is unchanged", func(t *testing.T) {
		members := []*models.Person{member(1), member(2), member(3)}

		require.NoError(t, Renumber(members, 3, nil))

		assert.Equal(t, []int{1, 2, 3}, positions(members))
	})

	t.Run("empty roster", func(t *testing.T) {
		assert.NoError(t, Renumber(nil, 0, intPtr(1)))
	})
}

func TestRenumber_IntegrityFaults(t *testing.T) {
	tests := []struct {
		name      string
		positions []int
		n         int
		removed   *int
	}{
		{name: "duplicate positions", positions: []int{1, 2, 2}, n: 3},
		{name: "zero position", positions: []int{0, 1}, n: 2},
		{name: "removed position still occupied", positions: []int{1, 2, 3}, n: 3, removed: intPtr(2)},
		{name: "count mismatch", positions: []int{1, 2}, n: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			members := make([]*models.Person, len(tt.positions))
			for i, p := range tt.positions {
				members[i] = member(p)
			}

			err := Renumber(members, tt.n, tt.removed)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIntegrity))
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
			assert.Equal(t, tt.positions, positions(members), "faulty roster must not be modified")
		})
	}
}

func TestRoster(t *testing.T) {
	r, err := New(appID, models.RoleAdult, nil)
	require.NoError(t, err)

	a, b, c := member(0), member(0), member(0)
	r.Add(a)
	r.Add(b)
	r.Add(c)
	assert.Equal(t, []int{1, 2, 3}, positions(r.Members()))

	removed, moved, err := r.Remove(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, removed)
	assert.ElementsMatch(t, []*models.Person{b, c}, moved)
	assert.Equal(t, []*models.Person{b, c}, r.Members())
	assert.Equal(t, []int{1, 2}, positions(r.Members()))
	assert.NoError(t, r.Validate())

	_, _, err = r.Remove(a.ID)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	found, ok := r.Find(c.ID)
	require.True(t, ok)
	assert.Equal(t, 2, found.Position)
}

func TestNew_RejectsBrokenRoster(t *testing.T) {
	_, err := New(appID, models.RoleAdult, []*models.Person{member(1), member(3)})
	assert.ErrorIs(t, err, ErrIntegrity)

	child := member(1)
	child.Role = models.RoleChild
	_, err = New(appID, models.RoleAdult, []*models.Person{child})
	assert.ErrorIs(t, err, ErrIntegrity)
}
