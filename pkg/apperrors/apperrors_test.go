package apperrors_test

import (
	"errors"
	"fmt"
	"testing"

	"credito/pkg/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperrors.Kind
	}{
		{"validation", apperrors.Validation("missing field %s", "dni"), apperrors.KindValidation},
		{"not found", apperrors.NotFound("application %d not found", 7), apperrors.KindNotFound},
		{"business rule", apperrors.BusinessRule("already approved"), apperrors.KindBusinessRule},
		{"conflict", apperrors.Conflict("duplicate"), apperrors.KindConflict},
		{"authorization", apperrors.Authorization("missing capability"), apperrors.KindAuthorization},
		{"plain error", errors.New("boom"), apperrors.Kind("")},
		{"nil", nil, apperrors.Kind("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperrors.KindOf(tt.err))
		})
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := apperrors.Conflict("formal application already exists")
	outer := fmt.Errorf("create failed: %w", inner)

	assert.True(t, apperrors.IsKind(outer, apperrors.KindConflict))
	assert.False(t, apperrors.IsKind(outer, apperrors.KindNotFound))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := apperrors.Wrap(apperrors.KindConflict, cause, "contract already exists")

	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "contract already exists")
	assert.Contains(t, err.Error(), "duplicate key")
}
