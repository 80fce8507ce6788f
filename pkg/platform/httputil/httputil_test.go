package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "childminder/pkg/domain-errors"
)

type answerRequest struct {
	Answer string `json:"answer"`
}

func (r *answerRequest) Normalize() {
	r.Answer = strings.ToLower(strings.TrimSpace(r.Answer))
}

func (r *answerRequest) Validate() error {
	if r.Answer != "yes" && r.Answer != "no" {
		return errors.New("answer must be yes or no")
	}
	return nil
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "person not found"), http.StatusNotFound, "not_found"},
		{"validation", dErrors.New(dErrors.CodeValidation, "duplicate certificate number"), http.StatusUnprocessableEntity, "validation_error"},
		{"precondition", dErrors.New(dErrors.CodePreconditionFailed, "no certificate number"), http.StatusPreconditionFailed, "precondition_failed"},
		{"integrity fault", dErrors.New(dErrors.CodeInvariantViolation, "duplicate position"), http.StatusInternalServerError, "internal_error"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Error)
		})
	}

	t.Run("plain errors do not leak their message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("pq: connection refused"))
		assert.Empty(t, decodeError(t, w).ErrorDescription)
	})

	t.Run("integrity faults do not leak their message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInvariantViolation, "expected position 2, found 3"))
		assert.Empty(t, decodeError(t, w).ErrorDescription)
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("normalizes before validating", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{"answer":"  YES "}`))
		w := httptest.NewRecorder()

		got, ok := DecodeAndPrepare[answerRequest](w, req, logger, ctx, "req-1")

		require.True(t, ok)
		assert.Equal(t, "yes", got.Answer)
	})

	t.Run("invalid JSON writes 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{nope`))
		w := httptest.NewRecorder()

		got, ok := DecodeAndPrepare[answerRequest](w, req, logger, ctx, "req-2")

		assert.False(t, ok)
		assert.Nil(t, got)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("validation failure writes 400 with description", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/", bytes.NewBufferString(`{"answer":"maybe"}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[answerRequest](w, req, logger, ctx, "req-3")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "answer must be yes or no", decodeError(t, w).ErrorDescription)
	})
}
