package verification

import (
	"sync/atomic"
	"time"
)

// Stats is the snapshot returned by VerificationEngine.Stats(). runs counts
// SlowSweeper ticks; processed counts transactions that went through a
// provider query (fast or slow); errors counts hard-store/provider failures
// surfaced as Error per §7.
type Stats struct {
	Runs               int64
	Processed          int64
	Errors             int64
	Uptime             time.Duration
	LastRunAt          time.Time
	LastRunDurationMs  int64
	IsRunning          bool
}

// statsTracker holds the atomically-updated counters backing Stats(). All
// fields are accessed via sync/atomic so FastPoller tasks and the
// SlowSweeper can update it without a shared lock.
type statsTracker struct {
	runs              int64
	processed         int64
	errs              int64
	startedAt         int64 // unix nano, 0 until Start()
	lastRunAtUnixNano int64
	lastRunDurationMs int64
	running           int32
}

func (s *statsTracker) markStarted(now time.Time) {
	atomic.StoreInt64(&s.startedAt, now.UnixNano())
	atomic.StoreInt32(&s.running, 1)
}

func (s *statsTracker) markStopped() {
	atomic.StoreInt32(&s.running, 0)
}

func (s *statsTracker) recordRun(now time.Time, duration time.Duration) {
	atomic.AddInt64(&s.runs, 1)
	atomic.StoreInt64(&s.lastRunAtUnixNano, now.UnixNano())
	atomic.StoreInt64(&s.lastRunDurationMs, duration.Milliseconds())
}

func (s *statsTracker) recordProcessed(n int64) {
	atomic.AddInt64(&s.processed, n)
}

func (s *statsTracker) recordError() {
	atomic.AddInt64(&s.errs, 1)
}

func (s *statsTracker) snapshot(now time.Time) Stats {
	started := atomic.LoadInt64(&s.startedAt)
	var uptime time.Duration
	if started != 0 {
		uptime = now.Sub(time.Unix(0, started))
	}

	var lastRunAt time.Time
	if lastRun := atomic.LoadInt64(&s.lastRunAtUnixNano); lastRun != 0 {
		lastRunAt = time.Unix(0, lastRun)
	}

	return Stats{
		Runs:              atomic.LoadInt64(&s.runs),
		Processed:         atomic.LoadInt64(&s.processed),
		Errors:            atomic.LoadInt64(&s.errs),
		Uptime:            uptime,
		LastRunAt:         lastRunAt,
		LastRunDurationMs: atomic.LoadInt64(&s.lastRunDurationMs),
		IsRunning:         atomic.LoadInt32(&s.running) == 1,
	}
}
