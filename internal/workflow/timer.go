package workflow

import (
	"sync"
	"time"
)

// DefaultTick is the elapsed-timer interval
const DefaultTick = time.Second

// ElapsedTimer counts ticks from zero while a run is active.
// Stop freezes the count; it never resets.
type ElapsedTimer struct {
	interval time.Duration
	onTick   func(elapsed int)

	mu      sync.Mutex
	elapsed int
	stop    chan struct{}
	done    chan struct{}
	stopped bool
}

// NewElapsedTimer creates an idle timer that calls onTick with the new count on every tick
func NewElapsedTimer(interval time.Duration, onTick func(elapsed int)) *ElapsedTimer {
	if interval <= 0 {
		interval = DefaultTick
	}
	return &ElapsedTimer{interval: interval, onTick: onTick}
}

// Start begins ticking. It is a no-op if the timer was started or stopped before.
func (t *ElapsedTimer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil || t.stopped {
		return
	}
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.loop(t.stop, t.done)
}

func (t *ElapsedTimer) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// a tick racing with Stop must not be delivered
			select {
			case <-stop:
				return
			default:
			}
			t.mu.Lock()
			t.elapsed++
			n := t.elapsed
			t.mu.Unlock()
			if t.onTick != nil {
				t.onTick(n)
			}
		}
	}
}

// Stop halts the timer and waits for an in-progress tick to finish. Safe to call repeatedly.
func (t *ElapsedTimer) Stop() {
	t.mu.Lock()
	if t.stop == nil || t.stopped {
		t.stopped = true
		t.mu.Unlock()
		return
	}
	t.stopped = true
	close(t.stop)
	done := t.done
	t.mu.Unlock()
	<-done
}

// Elapsed returns the number of ticks counted so far
func (t *ElapsedTimer) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}
