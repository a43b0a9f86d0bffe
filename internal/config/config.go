// Package config holds the tunables of the Two-Phase Payment Verification
// Engine. Their values come from DefaultEngineConfig only: no environment
// variable or CLI flag sets an EngineConfig field.
package config

import "time"

// EngineConfig carries every scheduling/retry tunable the VerificationEngine
// needs. Field names mirror the settings enumerated in the engine's
// scheduling contract.
type EngineConfig struct {
	FastPollInterval    time.Duration
	FastPollMaxDuration time.Duration

	SlowSweepInterval time.Duration
	SlowSweepBuffer   time.Duration

	SlowSweepBatchSize     int
	SlowSweepInterRowDelay time.Duration

	LeaseStale time.Duration

	ProviderTimeout time.Duration
	WebhookTimeout  time.Duration

	RetryInitial     time.Duration
	RetryMultiplier  float64
	RetryCap         time.Duration
	RetryMaxAttempts int

	ExpiryWindow time.Duration
}

// DefaultEngineConfig returns the config defaults named in the engine's
// scheduling contract.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		FastPollInterval:       3 * time.Second,
		FastPollMaxDuration:    15 * time.Minute,
		SlowSweepInterval:      5 * time.Minute,
		SlowSweepBuffer:        time.Minute,
		SlowSweepBatchSize:     100,
		SlowSweepInterRowDelay: 100 * time.Millisecond,
		LeaseStale:             60 * time.Second,
		ProviderTimeout:        10 * time.Second,
		WebhookTimeout:         8 * time.Second,
		RetryInitial:           time.Second,
		RetryMultiplier:        2.0,
		RetryCap:               30 * time.Second,
		RetryMaxAttempts:       3,
		ExpiryWindow:           24 * time.Hour,
	}
}

// FastPollSlowSweepBuffer is the cushion beyond FastPollMaxDuration that the
// SlowSweeper's eligibility window must respect, so the two pollers never
// race over the same transaction (spec §4.3 tie-breaking rule).
func (c EngineConfig) FastPollSlowSweepBuffer() time.Duration {
	return c.FastPollMaxDuration + c.SlowSweepBuffer
}
