package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearBackOff(t *testing.T) {
	b := &linearBackOff{base: 2 * time.Second}

	assert.Equal(t, 2*time.Second, b.NextBackOff())
	assert.Equal(t, 4*time.Second, b.NextBackOff())
	assert.Equal(t, 6*time.Second, b.NextBackOff())

	b.Reset()
	assert.Equal(t, 2*time.Second, b.NextBackOff())
}

func TestRetryFetch(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		attempts  int
		failures  int
		wantCalls int
		wantErr   bool
	}{
		{"succeeds first time", 3, 0, 1, false},
		{"succeeds on last attempt", 3, 2, 3, false},
		{"exhausts attempts", 3, 5, 3, true},
		{"single attempt", 1, 1, 1, true},
		{"zero attempts still tries once", 0, 0, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			rows, err := retryFetch(context.Background(), "Test", tt.attempts, 0, func(context.Context) ([]string, error) {
				calls++
				if calls <= tt.failures {
					return nil, boom
				}
				return []string{"row"}, nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr {
				require.ErrorIs(t, err, boom)
				assert.Nil(t, rows)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"row"}, rows)
		})
	}
}

func TestRetryFetch_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := retryFetch(ctx, "Test", 5, time.Hour, func(context.Context) ([]int, error) {
		calls++
		cancel()
		return nil, errors.New("boom")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
