package client

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (t *fakeTicker) C() <-chan time.Time {
	return t.ch
}

func (t *fakeTicker) Stop() {
	t.once.Do(func() { close(t.stopped) })
}

func (t *fakeTicker) isStopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

// fakeClock solo avanza con Advance; cada Advance entrega un tick a los tickers activos.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) NewTicker(_ time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	tk := &fakeTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
	c.tickers = append(c.tickers, tk)
	return tk
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	active := c.tickers[:0]
	for _, tk := range c.tickers {
		if !tk.isStopped() {
			active = append(active, tk)
		}
	}
	c.tickers = active
	targets := append([]*fakeTicker(nil), active...)
	c.mu.Unlock()

	for _, tk := range targets {
		select {
		case tk.ch <- now:
		case <-tk.stopped:
		}
	}
}

func (c *fakeClock) activeTickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, tk := range c.tickers {
		if !tk.isStopped() {
			n++
		}
	}
	return n
}

func waitState(t *testing.T, events <-chan TimerState) TimerState {
	t.Helper()
	select {
	case s := <-events:
		return s
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for timer state")
		return TimerState{}
	}
}

func requireNoTickers(t *testing.T, clock *fakeClock) {
	t.Helper()
	require.Eventually(t, func() bool { return clock.activeTickers() == 0 }, 2*time.Second, time.Millisecond)
}
