package agent

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerScheduler_RunsAfterDelay(t *testing.T) {
	s := NewTimerScheduler(nil)
	var ran atomic.Int32

	s.After(10*time.Millisecond, func() { ran.Add(1) })
	s.After(20*time.Millisecond, func() { ran.Add(1) })
	assert.Equal(t, 2, s.Pending())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
	assert.Equal(t, int32(2), ran.Load())
	assert.Equal(t, 0, s.Pending())
}

func TestTimerScheduler_WaitGivesUp(t *testing.T) {
	s := NewTimerScheduler(nil)
	s.After(time.Hour, func() {})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)
	assert.Equal(t, 1, s.Pending())
}

func TestTimerScheduler_RecoversPanics(t *testing.T) {
	s := NewTimerScheduler(nil)
	s.After(time.Millisecond, func() { panic("boom") })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
	assert.Equal(t, 0, s.Pending())
}

func TestTimerScheduler_WaitCoversWorkScheduledDuringWait(t *testing.T) {
	s := NewTimerScheduler(nil)
	var ran atomic.Int32

	s.After(20*time.Millisecond, func() {
		s.After(20*time.Millisecond, func() { ran.Add(1) })
		ran.Add(1)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
	assert.Equal(t, int32(2), ran.Load())
	assert.Equal(t, 0, s.Pending())
}

func TestTimerScheduler_WaitWithNothingPending(t *testing.T) {
	s := NewTimerScheduler(nil)
	assert.NoError(t, s.Wait(context.Background()))
}

func TestTimerScheduler_WaitAgainAfterDrain(t *testing.T) {
	s := NewTimerScheduler(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s.After(time.Millisecond, func() {})
	require.NoError(t, s.Wait(ctx))

	var ran atomic.Int32
	s.After(time.Millisecond, func() { ran.Add(1) })
	require.NoError(t, s.Wait(ctx))
	assert.Equal(t, int32(1), ran.Load())
}
