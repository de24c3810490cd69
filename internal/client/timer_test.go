package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerCountsDownToExpiry(t *testing.T) {
	clock := newFakeClock()
	timer := NewTimer(clock)
	events := make(chan TimerState, 16)
	timer.OnChange(func(s TimerState) { events <- s })

	timer.Start(clock.Now().Add(5 * time.Second))
	first := waitState(t, events)
	require.Equal(t, 5, first.TimeLeft)
	require.False(t, first.IsExpired)
	require.NotNil(t, first.ExpirationTime)

	for want := 4; want >= 0; want-- {
		clock.Advance(time.Second)
		s := waitState(t, events)
		require.Equal(t, want, s.TimeLeft)
		require.Equal(t, want == 0, s.IsExpired)
	}

	requireNoTickers(t, clock)
	clock.Advance(time.Second)
	select {
	case s := <-events:
		t.Fatalf("unexpected tick after expiry: %+v", s)
	case <-time.After(20 * time.Millisecond):
	}
	require.True(t, timer.State().IsExpired)
}

func TestTimerRestartCancelsPreviousTick(t *testing.T) {
	clock := newFakeClock()
	timer := NewTimer(clock)
	defer timer.Close()

	timer.Start(clock.Now().Add(time.Minute))
	timer.Start(clock.Now().Add(2 * time.Minute))
	require.Equal(t, 1, clock.activeTickers())
	require.Equal(t, 120, timer.State().TimeLeft)
}

func TestTimerStop(t *testing.T) {
	clock := newFakeClock()
	timer := NewTimer(clock)

	timer.Start(clock.Now().Add(time.Minute))
	timer.Stop()

	state := timer.State()
	require.Equal(t, TimerState{TimeLeft: 0, IsExpired: true}, state)
	require.Nil(t, state.ExpirationTime)
	require.Equal(t, 0, clock.activeTickers())
}

func TestTimerStartInPast(t *testing.T) {
	clock := newFakeClock()
	timer := NewTimer(clock)

	timer.Start(clock.Now().Add(-time.Second))
	state := timer.State()
	require.True(t, state.IsExpired)
	require.Equal(t, 0, state.TimeLeft)
	require.NotNil(t, state.ExpirationTime)
	require.Equal(t, 0, clock.activeTickers())
}

func TestTimerRecomputesFromAbsoluteInstant(t *testing.T) {
	clock := newFakeClock()
	timer := NewTimer(clock)
	defer timer.Close()
	events := make(chan TimerState, 16)
	timer.OnChange(func(s TimerState) { events <- s })

	timer.Start(clock.Now().Add(10 * time.Second))
	waitState(t, events)

	// Un salto grande (tick perdido) no genera deriva.
	clock.Advance(7 * time.Second)
	require.Equal(t, 3, waitState(t, events).TimeLeft)
}

func TestTimerStopFromCallback(t *testing.T) {
	clock := newFakeClock()
	timer := NewTimer(clock)
	events := make(chan TimerState, 16)
	timer.OnChange(func(s TimerState) {
		events <- s
		if s.ExpirationTime != nil && !s.IsExpired && s.TimeLeft < 5 {
			timer.Stop()
		}
	})

	timer.Start(clock.Now().Add(5 * time.Second))
	require.Equal(t, 5, waitState(t, events).TimeLeft)

	clock.Advance(time.Second)
	require.Equal(t, 4, waitState(t, events).TimeLeft)
	stopped := waitState(t, events)
	require.True(t, stopped.IsExpired)
	require.Nil(t, stopped.ExpirationTime)

	requireNoTickers(t, clock)
	require.Equal(t, TimerState{IsExpired: true}, timer.State())
}

func TestTimerRestartFromCallback(t *testing.T) {
	clock := newFakeClock()
	timer := NewTimer(clock)
	defer timer.Close()
	events := make(chan TimerState, 16)
	restarted := false
	timer.OnChange(func(s TimerState) {
		events <- s
		if !restarted && s.ExpirationTime != nil && s.TimeLeft == 4 {
			restarted = true
			timer.Start(clock.Now().Add(time.Minute))
		}
	})

	timer.Start(clock.Now().Add(5 * time.Second))
	waitState(t, events)

	clock.Advance(time.Second)
	require.Equal(t, 4, waitState(t, events).TimeLeft)
	require.Equal(t, 60, waitState(t, events).TimeLeft)
	require.Eventually(t, func() bool { return clock.activeTickers() == 1 }, 2*time.Second, time.Millisecond)

	clock.Advance(time.Second)
	require.Equal(t, 59, waitState(t, events).TimeLeft)
}

func TestTimerCloseFromCallback(t *testing.T) {
	clock := newFakeClock()
	timer := NewTimer(clock)
	events := make(chan TimerState, 16)
	timer.OnChange(func(s TimerState) {
		events <- s
		if s.TimeLeft == 4 {
			timer.Close()
		}
	})

	timer.Start(clock.Now().Add(5 * time.Second))
	waitState(t, events)
	clock.Advance(time.Second)
	require.Equal(t, 4, waitState(t, events).TimeLeft)
	requireNoTickers(t, clock)

	clock.Advance(time.Second)
	select {
	case s := <-events:
		t.Fatalf("unexpected tick after close: %+v", s)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestFormatTime(t *testing.T) {
	require.Equal(t, "00:00", FormatTime(0))
	require.Equal(t, "00:09", FormatTime(9))
	require.Equal(t, "01:05", FormatTime(65))
	require.Equal(t, "10:00", FormatTime(600))
	require.Equal(t, "00:00", FormatTime(-3))
}
