package genai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateBackoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		attempt int
		initial time.Duration
		max     time.Duration
		upper   time.Duration
	}{
		{"no delay before first attempt", 0, time.Second, 10 * time.Second, 0},
		{"negative attempt", -1, time.Second, 10 * time.Second, 0},
		{"first retry", 1, time.Second, 10 * time.Second, time.Second},
		{"second retry doubles", 2, time.Second, 10 * time.Second, 2 * time.Second},
		{"capped", 10, time.Second, 5 * time.Second, 5 * time.Second},
		{"zero initial", 3, 0, time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			for range 50 {
				d := CalculateBackoff(tt.attempt, tt.initial, tt.max)
				assert.GreaterOrEqual(t, d, time.Duration(0))
				if tt.upper == 0 {
					assert.Zero(t, d)
				} else {
					assert.Less(t, d, tt.upper)
				}
			}
		})
	}
}

func TestSleep(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Sleep(context.Background(), 0))
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestHasSufficientBudget(t *testing.T) {
	t.Parallel()

	assert.True(t, HasSufficientBudget(context.Background(), time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.True(t, HasSufficientBudget(ctx, 10*time.Millisecond))
	assert.False(t, HasSufficientBudget(ctx, time.Minute))
}
