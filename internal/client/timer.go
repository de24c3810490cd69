package client

import (
	"fmt"
	"sync"
	"time"
)

const tickInterval = time.Second

// TimerState es lo que la UI necesita para pintar la cuenta regresiva.
// ExpirationTime es nil después de Stop.
type TimerState struct {
	TimeLeft       int
	IsExpired      bool
	ExpirationTime *time.Time
}

// Timer convierte una expiración absoluta en segundos restantes, recalculando
// una vez por segundo. Cada tick recalcula desde el instante absoluto, así que
// un tick perdido no acumula deriva. Hay a lo sumo una goroutine de tick activa.
type Timer struct {
	mu       sync.Mutex
	clock    Clock
	state    TimerState
	onChange func(TimerState)
	gen      int
	ticker   Ticker
	quit     chan struct{}
	done     chan struct{}
	// dispatching es el done de la goroutine que está ejecutando onChange.
	dispatching chan struct{}
}

func NewTimer(clock Clock) *Timer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Timer{clock: clock}
}

// OnChange registra el callback que recibe cada nuevo estado. Se invoca fuera del lock.
func (t *Timer) OnChange(fn func(TimerState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

func (t *Timer) State() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start cancela cualquier tick previo y arranca la cuenta hacia expiresAt.
func (t *Timer) Start(expiresAt time.Time) {
	t.cancel()

	t.mu.Lock()
	t.gen++
	gen := t.gen
	exp := expiresAt
	left := secondsLeft(exp, t.clock.Now())
	t.state = TimerState{TimeLeft: left, IsExpired: left <= 0, ExpirationTime: &exp}
	state, fn := t.state, t.onChange
	if left > 0 {
		t.quit = make(chan struct{})
		t.done = make(chan struct{})
		t.ticker = t.clock.NewTicker(tickInterval)
		go t.run(gen, exp, t.ticker, t.quit, t.done)
	}
	t.mu.Unlock()

	if fn != nil {
		fn(state)
	}
}

// Stop cancela el tick y deja el estado en {0, expirado, sin expiración}.
func (t *Timer) Stop() {
	t.cancel()

	t.mu.Lock()
	t.gen++
	t.state = TimerState{IsExpired: true}
	state, fn := t.state, t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(state)
	}
}

// Close cancela el tick sin notificar. Se usa al desmontar la vista.
func (t *Timer) Close() {
	t.cancel()
	t.mu.Lock()
	t.gen++
	t.mu.Unlock()
}

// cancel detiene la goroutine activa y espera a que termine. Si la llamada
// viene desde onChange, la goroutine es la que llama: no se espera, el ticker
// se detiene acá y la goroutine sale al volver del callback.
func (t *Timer) cancel() {
	t.mu.Lock()
	quit, done, ticker := t.quit, t.done, t.ticker
	t.quit, t.done, t.ticker = nil, nil, nil
	reentrant := done != nil && t.dispatching == done
	t.mu.Unlock()
	if quit == nil {
		return
	}
	close(quit)
	ticker.Stop()
	if !reentrant {
		<-done
	}
}

func (t *Timer) run(gen int, expiresAt time.Time, ticker Ticker, quit, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C():
			t.mu.Lock()
			if t.gen != gen {
				t.mu.Unlock()
				return
			}
			left := secondsLeft(expiresAt, t.clock.Now())
			t.state.TimeLeft = left
			t.state.IsExpired = left <= 0
			if left <= 0 && t.done == done {
				t.quit, t.done, t.ticker = nil, nil, nil
			}
			state, fn := t.state, t.onChange
			t.dispatching = done
			t.mu.Unlock()

			if fn != nil {
				fn(state)
			}

			t.mu.Lock()
			if t.dispatching == done {
				t.dispatching = nil
			}
			t.mu.Unlock()
			if left <= 0 {
				return
			}
		}
	}
}

func secondsLeft(expiresAt, now time.Time) int {
	left := int(expiresAt.Sub(now) / time.Second)
	if left < 0 {
		return 0
	}
	return left
}

// FormatTime muestra segundos como MM:SS.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
