package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"childminder/pkg/domain"
)

func newTestPerson(t *testing.T) *Person {
	t.Helper()
	dob, err := domain.NewDate(1985, time.June, 14)
	require.NoError(t, err)
	return NewPerson(domain.NewPersonID(), domain.NewApplicationID(), RoleAdult, dob, 1, time.Now())
}

func TestSetCertificateNumber_ClearsDependentFields(t *testing.T) {
	p := newTestPerson(t)
	p.SetCertificateNumber("123456789012")
	outcome := LookupOutcome{CertificateNumber: "123456789012", Found: true}
	p.RecordLookup(LookupFields{Capita: True, WithinThreeMonths: False, CertificateInfo: "caution 2009"}, &outcome)
	p.AnswerEnhancedCheck(True)
	p.AnswerOnUpdate(True)

	changed := p.SetCertificateNumber("999999999999")

	assert.True(t, changed)
	assert.Equal(t, domain.CertificateNumber("999999999999"), p.CertificateNumber())
	assert.Equal(t, Unknown, p.Capita())
	assert.Equal(t, Unknown, p.WithinThreeMonths())
	assert.Equal(t, Unknown, p.EnhancedCheck())
	assert.Equal(t, Unknown, p.OnUpdate())
	assert.Empty(t, p.CertificateInfo())
	_, cached := p.CachedLookup("999999999999")
	assert.False(t, cached)
	_, cached = p.CachedLookup("123456789012")
	assert.False(t, cached, "old lookup must not survive a number change")
}

func TestSetCertificateNumber_SameNumberKeepsAnswers(t *testing.T) {
	p := newTestPerson(t)
	p.SetCertificateNumber("123456789012")
	p.AnswerOnUpdate(False)

	changed := p.SetCertificateNumber("123456789012")

	assert.False(t, changed)
	assert.Equal(t, False, p.OnUpdate())
}

func TestRecordLookup(t *testing.T) {
	t.Run("cached outcome is returned for the same number only", func(t *testing.T) {
		p := newTestPerson(t)
		p.SetCertificateNumber("123456789012")
		outcome := LookupOutcomeFor("123456789012", nil)
		p.RecordLookup(LookupFields{Capita: False}, &outcome)

		got, ok := p.CachedLookup("123456789012")
		require.True(t, ok)
		assert.False(t, got.Found)
		_, ok = p.CachedLookup("000000000000")
		assert.False(t, ok)
	})

	t.Run("nil outcome records fields without caching", func(t *testing.T) {
		p := newTestPerson(t)
		p.SetCertificateNumber("123456789012")
		p.RecordLookup(LookupFields{Capita: False}, nil)

		assert.Equal(t, False, p.Capita())
		_, ok := p.CachedLookup("123456789012")
		assert.False(t, ok)
	})
}

func TestDBS_ReturnsDetachedCopy(t *testing.T) {
	p := newTestPerson(t)
	p.SetCertificateNumber("123456789012")
	outcome := LookupOutcome{CertificateNumber: "123456789012", Found: true, CertificateInfo: "none"}
	p.RecordLookup(LookupFields{Capita: True}, &outcome)

	snapshot := p.DBS()
	snapshot.Lookup.CertificateInfo = "tampered"

	got, ok := p.CachedLookup("123456789012")
	require.True(t, ok)
	assert.Equal(t, "none", got.CertificateInfo)

	restored := newTestPerson(t)
	restored.RestoreDBS(p.DBS())
	assert.Equal(t, p.DBS(), restored.DBS())
}

func TestTristate(t *testing.T) {
	assert.Equal(t, Unknown, FromPtr(nil))
	assert.Equal(t, True, FromPtr(True.Ptr()))
	assert.Equal(t, False, FromPtr(False.Ptr()))
	assert.Nil(t, Unknown.Ptr())
	assert.False(t, Unknown.IsKnown())

	type answers struct {
		OnUpdate Tristate `json:"on_update"`
		Capita   Tristate `json:"capita"`
	}
	raw, err := json.Marshal(answers{OnUpdate: True})
	require.NoError(t, err)
	assert.JSONEq(t, `{"on_update":true,"capita":null}`, string(raw))

	var decoded answers
	require.NoError(t, json.Unmarshal([]byte(`{"on_update":false,"capita":null}`), &decoded))
	assert.Equal(t, False, decoded.OnUpdate)
	assert.Equal(t, Unknown, decoded.Capita)

	assert.Error(t, json.Unmarshal([]byte(`{"on_update":"yes"}`), &decoded))
}

func TestStatus_RequiresExternalAction(t *testing.T) {
	assert.True(t, StatusNeedApplyForNew.RequiresExternalAction())
	assert.True(t, StatusNeedUpdateServiceSignUp.RequiresExternalAction())
	for _, s := range []Status{StatusOK, StatusDobMismatch, StatusNeedAskIfCapita, StatusNeedAskIfOnUpdate, StatusNeedUpdateServiceCheck, StatusLookupFailed} {
		assert.False(t, s.RequiresExternalAction(), s.String())
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("child")
	require.NoError(t, err)
	assert.Equal(t, RoleChild, r)
	assert.True(t, r.HasRoster())
	assert.False(t, RoleApplicant.HasRoster())

	_, err = ParseRole("lodger")
	assert.Error(t, err)
}
