package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBackoff(t *testing.T) {
	opts := Options{BaseDelay: 1000 * time.Millisecond, MaxDelay: 5000 * time.Millisecond}

	t.Run("doubles per attempt until capped", func(t *testing.T) {
		assert.Equal(t, 1000*time.Millisecond, CalculateBackoff(0, opts))
		assert.Equal(t, 2000*time.Millisecond, CalculateBackoff(1, opts))
		assert.Equal(t, 4000*time.Millisecond, CalculateBackoff(2, opts))
		// capped, not 8000
		assert.Equal(t, 5000*time.Millisecond, CalculateBackoff(3, opts))
	})

	t.Run("monotonically non-decreasing and never above max", func(t *testing.T) {
		prev := time.Duration(0)
		for n := 0; n < 64; n++ {
			d := CalculateBackoff(n, opts)
			assert.GreaterOrEqual(t, d, prev, "attempt %d", n)
			assert.LessOrEqual(t, d, opts.MaxDelay, "attempt %d", n)
			prev = d
		}
	})

	t.Run("negative attempts clamp to zero", func(t *testing.T) {
		assert.Equal(t, 1000*time.Millisecond, CalculateBackoff(-3, opts))
	})

	t.Run("defaults", func(t *testing.T) {
		assert.Equal(t, 30*time.Second, CalculateBackoff(0, Options{}))
		assert.Equal(t, 30*time.Minute, CalculateBackoff(20, Options{}))
	})
}

func TestApply(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	opts := Options{BaseDelay: 1000 * time.Millisecond, MaxDelay: 5000 * time.Millisecond}

	t.Run("first failure reschedules", func(t *testing.T) {
		d := Apply(0, 3, now, opts)
		assert.False(t, d.Dead)
		assert.Equal(t, 1, d.Attempts)
		require.NotNil(t, d.NextAttemptAt)
		// post-increment count feeds the backoff: exponent 1, not 0
		assert.Equal(t, now.Add(2000*time.Millisecond), *d.NextAttemptAt)
	})

	t.Run("exhaustion goes dead", func(t *testing.T) {
		d := Apply(2, 3, now, opts)
		assert.True(t, d.Dead)
		assert.Equal(t, 3, d.Attempts)
		assert.Nil(t, d.NextAttemptAt)
	})

	t.Run("attempts never exceed max", func(t *testing.T) {
		attempts := 0
		for i := 0; i < 10; i++ {
			d := Apply(attempts, 5, now, opts)
			attempts = d.Attempts
			require.LessOrEqual(t, attempts, 5)
			if d.Dead {
				break
			}
		}
		assert.Equal(t, 5, attempts)
	})
}
