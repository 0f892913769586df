package pacing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJitterNextWithinBounds(t *testing.T) {
	t.Parallel()

	j, err := NewJitter(DefaultMin, DefaultMax)
	require.NoError(t, err)
	for i := 0; i < 500; i++ {
		d := j.Next()
		assert.GreaterOrEqual(t, d, DefaultMin)
		assert.LessOrEqual(t, d, DefaultMax)
	}
}

func TestJitterUsesRandomSource(t *testing.T) {
	t.Parallel()

	j, err := NewJitter(time.Second, 3*time.Second)
	require.NoError(t, err)
	j.rand = func(n int64) int64 {
		assert.Equal(t, int64(2*time.Second)+1, n)
		return n - 1
	}
	assert.Equal(t, 3*time.Second, j.Next())
}

func TestJitterClampsMax(t *testing.T) {
	t.Parallel()

	j, err := NewJitter(2*time.Second, time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, j.Next())
}

func TestNewJitterRejectsNegative(t *testing.T) {
	t.Parallel()

	_, err := NewJitter(-time.Second, time.Second)
	require.Error(t, err)
}

func TestJitterPauseSleepsForDelay(t *testing.T) {
	t.Parallel()

	j, err := NewJitter(time.Second, time.Second)
	require.NoError(t, err)
	var slept time.Duration
	j.sleep = func(_ context.Context, d time.Duration) error {
		slept = d
		return nil
	}

	got, err := j.Pause(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Second, got)
	assert.Equal(t, time.Second, slept)
}

func TestJitterPauseHonorsCancellation(t *testing.T) {
	t.Parallel()

	j, err := NewJitter(time.Hour, time.Hour)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = j.Pause(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNonePause(t *testing.T) {
	t.Parallel()

	d, err := None{}.Pause(context.Background())
	require.NoError(t, err)
	assert.Zero(t, d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = None{}.Pause(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
