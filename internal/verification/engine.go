// Package verification implements the Two-Phase Payment Verification
// Engine: an immediate, per-transaction FastPoller phase followed by an
// engine-wide SlowSweeper phase, coordinated entirely through
// compare-and-swap updates on the transaction row so that any number of
// engine instances can run against the same store without corrupting state
// or double-delivering a confirmation.
package verification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ramp-payments/verification-engine/internal/config"
	"github.com/ramp-payments/verification-engine/internal/crashtracker"
	"github.com/ramp-payments/verification-engine/internal/data"
	"github.com/ramp-payments/verification-engine/internal/logging"
	"github.com/ramp-payments/verification-engine/internal/monitor"
	"github.com/ramp-payments/verification-engine/internal/notify"
	"github.com/ramp-payments/verification-engine/internal/provider"
	"github.com/ramp-payments/verification-engine/internal/utils"
)

// StopGracePeriod bounds how long Stop() waits for in-flight provider calls
// to finish before abandoning them (§5, "Cancellation & timeouts").
const StopGracePeriod = 10 * time.Second

// StartVerificationPayload is the caller-supplied payload for
// StartVerification (§4.1/§6).
type StartVerificationPayload struct {
	SenderName    *string
	SenderPhone   *string
	SenderEmail   *string
	Currency      data.Currency
	ProviderTxID  string
	PaymentType   data.PaymentType
	Amount        string
	SuccessURL    string
	PaymentLinkID string
}

// ScheduleDescriptor is returned by StartVerification: the phase the
// transaction entered and the polling cadence the caller can expect.
type ScheduleDescriptor struct {
	Phase        string        `json:"phase"`
	PollInterval time.Duration `json:"pollInterval"`
	MaxDuration  time.Duration `json:"maxDuration"`
}

// VerificationEngine is the public contract described in §4.1: an explicit
// value owning every collaborator (Clock, TxStore, ProviderClient,
// NotifySink, AuditLog), composed at construction time rather than wired
// through module-level globals.
type VerificationEngine struct {
	id  string
	cfg config.EngineConfig

	store          TxStore
	audit          AuditLog
	provider       provider.ClientInterface
	notifySink     notify.NotifySink
	monitorService monitor.MonitorServiceInterface
	crashTracker   crashtracker.CrashTrackerClient
	clock          Clock

	tasks   *taskRegistry
	confirm *ConfirmationHandler
	expiry  *expirySweeper
	sweeper *slowSweeper
	stats   *statsTracker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine builds a VerificationEngine. engineID uniquely identifies this
// process among any other instances running against the same store; pass
// "" to have one generated. crashTrackerClient may be nil (tests exercising
// the engine without a crash tracker wired), in which case spawned
// goroutines recover silently instead of reporting.
func NewEngine(cfg config.EngineConfig, models *data.Models, providerClient provider.ClientInterface, sink notify.NotifySink, monitorService monitor.MonitorServiceInterface, crashTrackerClient crashtracker.CrashTrackerClient, clock Clock, engineID string) *VerificationEngine {
	if engineID == "" {
		engineID = uuid.NewString()
	}
	if clock == nil {
		clock = RealClock{}
	}

	store := newModelsTxStore(models)
	audit := newModelsAuditLog(models)
	stats := &statsTracker{}

	confirm := newConfirmationHandler(store, audit, sink, clock, monitorService)
	expiry := newExpirySweeper(store, audit, sink, clock, cfg.SlowSweepBatchSize)
	sweeper := newSlowSweeper(engineID, cfg, store, audit, providerClient, confirm, expiry, clock, monitorService, stats)

	ctx, cancel := context.WithCancel(context.Background())

	return &VerificationEngine{
		id:             engineID,
		cfg:            cfg,
		store:          store,
		audit:          audit,
		provider:       providerClient,
		notifySink:     sink,
		monitorService: monitorService,
		crashTracker:   crashTrackerClient,
		clock:          clock,
		tasks:          newTaskRegistry(),
		confirm:        confirm,
		expiry:         expiry,
		sweeper:        sweeper,
		stats:          stats,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// recoverFunc returns the panic-recovery callback a spawned goroutine should
// defer: a fresh Clone() of the crash tracker's Recover when one is wired
// (the teacher's internal/scheduler/scheduler.go idiom, one clone per
// concurrent routine), or a no-op when the engine was built without one.
func (e *VerificationEngine) recoverFunc() func() {
	if e.crashTracker == nil {
		return func() {}
	}
	return e.crashTracker.Clone().Recover
}

// ID returns this engine instance's identifier, used as processingOwner on
// every lease it acquires.
func (e *VerificationEngine) ID() string { return e.id }

// StartVerification implements §4.1: validates the payload against the
// stored transaction, performs the one atomic patch-and-transition update,
// emits VERIFICATION_STARTED, and launches a FastPoller task bound to
// reference — unless one is already running, in which case this call is a
// no-op re-read that returns the same schedule descriptor (L1).
func (e *VerificationEngine) StartVerification(ctx context.Context, reference string, payload StartVerificationPayload) (ScheduleDescriptor, error) {
	desc := ScheduleDescriptor{
		Phase:        "immediate",
		PollInterval: e.cfg.FastPollInterval,
		MaxDuration:  e.cfg.FastPollMaxDuration,
	}

	existing, err := e.store.Get(ctx, reference)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return ScheduleDescriptor{}, ErrNotFound
		}
		return ScheduleDescriptor{}, err
	}

	if existing.State != data.TxStatePending && existing.State != data.TxStateInitialized {
		if auditErr := e.audit.Insert(ctx, existing.ID, data.ActionStateTransitionRejected,
			nil, map[string]any{"from": existing.State, "attempted": "verification-start"}, existing.Reference); auditErr != nil {
			logging.Ctx(ctx).Errorf("writing STATE_TRANSITION_REJECTED audit for %s: %v", existing.Reference, auditErr)
		}
		return ScheduleDescriptor{}, ErrInvalidState
	}
	if existing.Currency != payload.Currency {
		return ScheduleDescriptor{}, ErrCurrencyMismatch
	}
	if existing.Amount != payload.Amount {
		return ScheduleDescriptor{}, ErrAmountMismatch
	}

	// Idempotent re-call: the task is already running, so skip re-issuing the
	// patch-and-transition update and just hand back the same schedule.
	if e.tasks.isRunning(reference) {
		return desc, nil
	}

	params := data.StartVerificationParams{
		ProviderTxID: payload.ProviderTxID,
		SenderName:   payload.SenderName,
		SenderPhone:  payload.SenderPhone,
		SenderEmail:  normalizedEmail(payload.SenderEmail),
		PaymentType:  payload.PaymentType,
	}
	updated, err := e.store.StartVerification(ctx, reference, params)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return ScheduleDescriptor{}, ErrInvalidState
		}
		return ScheduleDescriptor{}, err
	}

	if err := e.audit.Insert(ctx, updated.ID, data.ActionVerificationStarted, nil, nil, updated.Reference); err != nil {
		logging.Ctx(ctx).Errorf("writing VERIFICATION_STARTED audit for %s: %v", updated.Reference, err)
	}
	if e.monitorService != nil {
		if monErr := e.monitorService.MonitorCounters(monitor.VerificationStartedTag, nil); monErr != nil {
			logging.Ctx(ctx).Errorf("monitoring verification started: %v", monErr)
		}
	}

	if e.tasks.tryStart(reference) {
		e.launchFastPoller(updated)
	}

	return desc, nil
}

// normalizedEmail trims and lowercases a sender email before it is stored,
// so later exact-match lookups (delivery, dedupe) aren't defeated by
// whitespace or casing a caller happened to submit.
func normalizedEmail(email *string) *string {
	if email == nil {
		return nil
	}
	normalized := utils.TrimAndLower(*email)
	return &normalized
}

func (e *VerificationEngine) launchFastPoller(tx *data.Transaction) {
	startedAt := tx.VerificationStartedAt.Time
	if !tx.VerificationStartedAt.Valid {
		startedAt = e.clock.Now()
	}

	poller := &fastPoller{
		txID:         tx.ID,
		reference:    tx.Reference,
		startedAt:    startedAt,
		pollInterval: e.cfg.FastPollInterval,
		maxDuration:  e.cfg.FastPollMaxDuration,
		store:        e.store,
		provider:     e.provider,
		audit:        e.audit,
		confirm:      e.confirm,
		clock:        e.clock,
		stats:        e.stats,
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.tasks.finish(tx.Reference)
		defer e.recoverFunc()()
		poller.run(e.ctx)
	}()
}

// GetStatus implements §4.1: a read-only projection of the stored
// transaction, no side effects.
func (e *VerificationEngine) GetStatus(ctx context.Context, reference string) (data.StatusSnapshot, error) {
	tx, err := e.store.Get(ctx, reference)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return data.StatusSnapshot{}, ErrNotFound
		}
		return data.StatusSnapshot{}, err
	}
	return tx.ToStatusSnapshot(), nil
}

// Start performs the crash-recovery sweep (§4.6) and then starts the
// SlowSweeper ticker. It does not block.
func (e *VerificationEngine) Start(ctx context.Context) error {
	now := e.clock.Now()

	reclaimed, err := e.store.ReclaimStaleLeases(ctx, now, e.cfg.LeaseStale)
	if err != nil {
		return fmt.Errorf("crash-recovery stale lease sweep: %w", err)
	}
	for _, id := range reclaimed {
		if auditErr := e.audit.Insert(ctx, id, data.ActionLeaseStolen, nil, nil, id); auditErr != nil {
			logging.Ctx(ctx).Errorf("writing LEASE_STOLEN audit for %s: %v", id, auditErr)
		}
		if e.monitorService != nil {
			if monErr := e.monitorService.MonitorCounters(monitor.LeaseStolenTag, nil); monErr != nil {
				logging.Ctx(ctx).Errorf("monitoring lease stolen: %v", monErr)
			}
		}
	}

	e.stats.markStarted(now)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.recoverFunc()()
		e.sweeper.loop(e.ctx)
	}()

	return nil
}

// Stop signals every FastPoller task and the SlowSweeper to terminate,
// waits up to StopGracePeriod for them to drain, and releases every lease
// this engine instance still holds.
func (e *VerificationEngine) Stop(ctx context.Context) error {
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(StopGracePeriod):
		logging.Ctx(ctx).Warnf("engine %s stop grace period elapsed with tasks still in flight", e.id)
	}

	e.stats.markStopped()

	if _, err := e.store.ReleaseAllLeasesForOwner(ctx, e.id); err != nil {
		return fmt.Errorf("releasing leases held by engine %s: %w", e.id, err)
	}
	return nil
}

// Stats returns the current engine statistics (§6).
func (e *VerificationEngine) Stats() Stats {
	return e.stats.snapshot(e.clock.Now())
}
