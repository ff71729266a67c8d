package bureau_test

import (
	"context"
	"testing"
	"time"

	"credito/internal/bureau"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedBureauVerdicts(t *testing.T) {
	b := bureau.NewSimulatedBureau(0)

	tests := []struct {
		name       string
		dni        string
		wantStatus string
	}{
		{"regular id approved", "225577", bureau.StatusApproved},
		{"id ending in 8 rejected", "30000008", bureau.StatusRejected},
		{"id ending in 9 pending", "30000009", bureau.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := b.CheckStatus(context.Background(), tt.dni)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, v.Status)
			assert.False(t, v.CheckedAt.IsZero())
		})
	}
}

func TestSimulatedBureauIsDeterministic(t *testing.T) {
	b := bureau.NewSimulatedBureau(0)

	first, err := b.CheckStatus(context.Background(), "225577")
	require.NoError(t, err)
	second, err := b.CheckStatus(context.Background(), "225577")
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Score, second.Score)
	assert.GreaterOrEqual(t, first.Score, 500, "approved clients score at least 500")
}

func TestSimulatedBureauHonorsCancellation(t *testing.T) {
	b := bureau.NewSimulatedBureau(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := b.CheckStatus(ctx, "225577")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
