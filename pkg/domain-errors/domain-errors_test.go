package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "member not found", New(CodeNotFound, "member not found").Error())
	assert.Equal(t, "invariant_violation", (&Error{Code: CodeInvariantViolation}).Error())
}

func TestWrapKeepsFirstCode(t *testing.T) {
	registryDown := errors.New("dial tcp: connection refused")

	tests := []struct {
		name     string
		err      error
		code     Code
		wantCode Code
	}{
		{"plain error takes the given code", registryDown, CodeUnavailable, CodeUnavailable},
		{"domain error keeps its code", New(CodePreconditionFailed, "no certificate number"), CodeInternal, CodePreconditionFailed},
		{"code survives fmt wrapping", fmt.Errorf("resolve: %w", New(CodeInvariantViolation, "duplicate position 2")), CodeInternal, CodeInvariantViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrap(tt.err, tt.code, "household operation failed")

			var domainErr *Error
			require.True(t, errors.As(wrapped, &domainErr))
			assert.Equal(t, tt.wantCode, domainErr.Code)
			assert.Equal(t, "household operation failed", domainErr.Message)
			assert.ErrorIs(t, wrapped, tt.err)
		})
	}
}

func TestIsComparesCodes(t *testing.T) {
	removeApplicant := New(CodePreconditionFailed, "the applicant cannot be removed")

	assert.ErrorIs(t, removeApplicant, &Error{Code: CodePreconditionFailed})
	assert.NotErrorIs(t, removeApplicant, &Error{Code: CodeConflict})
	assert.False(t, (&Error{Code: CodeNotFound}).Is(errors.New("not_found")))

	chained := &Error{Code: CodeInternal, Err: &Error{Code: CodeNotFound}}
	assert.ErrorIs(t, chained, &Error{Code: CodeNotFound}, "inner codes are reachable through the chain")
}

func TestHasCodeAndCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
	}{
		{"nil", nil, CodeInternal},
		{"plain", errors.New("boom"), CodeInternal},
		{"domain", New(CodeValidation, "duplicate certificate number"), CodeValidation},
		{"wrapped", Wrap(New(CodeNotFound, "member"), CodeInternal, "load"), CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, CodeOf(tt.err))
			assert.Equal(t, tt.err != nil && tt.code != CodeInternal, HasCode(tt.err, tt.code))
		})
	}
}
