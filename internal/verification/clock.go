package verification

import (
	"sync"
	"time"
)

// Clock abstracts wall-clock access so FastPoller/SlowSweeper ticks can be
// driven deterministically in tests instead of sleeping in real time.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
	NewTicker(d time.Duration) Ticker
}

// Ticker mirrors the subset of *time.Ticker the engine depends on.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock is the production Clock, backed by the time package.
type RealClock struct{}

var _ Clock = RealClock{}

func (RealClock) Now() time.Time { return time.Now() }
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }
func (RealClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// FakeClock is a manually-advanced Clock for deterministic tests. Sleep
// blocks until the clock is advanced past the wake time by Advance; ticks
// are synthesized the same way through fake tickers registered with it.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []fakeWaiter
	tickers []*fakeTicker
}

type fakeWaiter struct {
	wake time.Time
	ch   chan struct{}
}

var _ Clock = (*FakeClock)(nil)

// NewFakeClock returns a FakeClock starting at now.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *FakeClock) Sleep(d time.Duration) {
	f.mu.Lock()
	wake := f.now.Add(d)
	ch := make(chan struct{})
	f.waiters = append(f.waiters, fakeWaiter{wake: wake, ch: ch})
	f.mu.Unlock()
	<-ch
}

func (f *FakeClock) NewTicker(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{interval: d, next: f.now.Add(d), ch: make(chan time.Time, 1)}
	f.tickers = append(f.tickers, t)
	return t
}

// Advance moves the fake clock forward by d, waking any Sleep callers and
// firing any tickers whose next fire time has been crossed.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	now := f.now

	remaining := f.waiters[:0]
	for _, w := range f.waiters {
		if !now.Before(w.wake) {
			close(w.ch)
		} else {
			remaining = append(remaining, w)
		}
	}
	f.waiters = remaining

	for _, t := range f.tickers {
		for !now.Before(t.next) {
			select {
			case t.ch <- now:
			default:
			}
			t.next = t.next.Add(t.interval)
		}
	}
	f.mu.Unlock()
}

type fakeTicker struct {
	interval time.Duration
	next     time.Time
	ch       chan time.Time
	stopped  bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.stopped = true }
