package verification

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/ramp-payments/verification-engine/internal/config"
	"github.com/ramp-payments/verification-engine/internal/data"
	"github.com/ramp-payments/verification-engine/internal/logging"
	"github.com/ramp-payments/verification-engine/internal/monitor"
	"github.com/ramp-payments/verification-engine/internal/provider"
)

// slowSweeper implements §4.4: a single background task on a 5-minute
// ticker, scanning for PENDING transactions FastPoller has given up on.
// Each tick is a full batch run followed immediately by the expiry sweep
// (§4.6); if a tick is still running when the ticker fires again, the new
// tick is dropped rather than queued, per the "coalesce, don't pile up"
// rule.
type slowSweeper struct {
	engineID string
	cfg      config.EngineConfig

	store          TxStore
	audit          AuditLog
	provider       provider.ClientInterface
	confirm        *ConfirmationHandler
	expirySweeper  *expirySweeper
	clock          Clock
	monitorService monitor.MonitorServiceInterface
	stats          *statsTracker

	running int32
}

func newSlowSweeper(engineID string, cfg config.EngineConfig, store TxStore, audit AuditLog, prov provider.ClientInterface, confirm *ConfirmationHandler, expiry *expirySweeper, clock Clock, monitorService monitor.MonitorServiceInterface, stats *statsTracker) *slowSweeper {
	return &slowSweeper{
		engineID:       engineID,
		cfg:            cfg,
		store:          store,
		audit:          audit,
		provider:       prov,
		confirm:        confirm,
		expirySweeper:  expiry,
		clock:          clock,
		monitorService: monitorService,
		stats:          stats,
	}
}

// loop drives the ticker until ctx is canceled (Stop()).
func (s *slowSweeper) loop(ctx context.Context) {
	ticker := s.clock.NewTicker(s.cfg.SlowSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.fireTick(ctx)
		}
	}
}

func (s *slowSweeper) fireTick(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		logging.Ctx(ctx).Warnf("slow sweep tick dropped: previous tick for engine %s still running", s.engineID)
		if s.monitorService != nil {
			if err := s.monitorService.MonitorCounters(monitor.SlowSweepCoalescedTag, nil); err != nil {
				logging.Ctx(ctx).Errorf("monitoring coalesced slow sweep tick: %v", err)
			}
		}
		return
	}
	defer atomic.StoreInt32(&s.running, 0)

	start := s.clock.Now()
	processed, err := s.runBatch(ctx)
	if err != nil {
		logging.Ctx(ctx).Errorf("slow sweep batch failed: %v", err)
		if s.stats != nil {
			s.stats.recordError()
		}
	}

	if _, err := s.expirySweeper.run(ctx); err != nil {
		logging.Ctx(ctx).Errorf("expiry sweep failed: %v", err)
		if s.stats != nil {
			s.stats.recordError()
		}
	}

	if s.stats != nil {
		s.stats.recordRun(s.clock.Now(), s.clock.Now().Sub(start))
		s.stats.recordProcessed(int64(processed))
	}
	if s.monitorService != nil {
		if err := s.monitorService.MonitorCounters(monitor.SlowSweepTickTag, nil); err != nil {
			logging.Ctx(ctx).Errorf("monitoring slow sweep tick: %v", err)
		}
	}
}

// runBatch performs one SlowSweeper batch per §4.4 step 2: up to
// SlowSweepBatchSize eligible transactions, processed one at a time, each
// separated by a short delay to respect provider rate limits.
func (s *slowSweeper) runBatch(ctx context.Context) (int, error) {
	now := s.clock.Now()
	fastPollCutoff := now.Add(-s.cfg.FastPollSlowSweepBuffer())
	checkCutoff := now.Add(-s.cfg.SlowSweepInterval)
	staleLeaseCutoff := now.Add(-s.cfg.LeaseStale)

	batch, err := s.store.GetSlowSweepBatch(ctx, now, fastPollCutoff, checkCutoff, staleLeaseCutoff, s.cfg.SlowSweepBatchSize)
	if err != nil {
		return 0, err
	}

	for i, tx := range batch {
		s.processOne(ctx, tx)
		if i < len(batch)-1 {
			s.clock.Sleep(s.cfg.SlowSweepInterRowDelay)
		}
	}
	return len(batch), nil
}

func (s *slowSweeper) processOne(ctx context.Context, tx *data.Transaction) {
	now := s.clock.Now()
	leased, err := s.store.AcquireLease(ctx, tx.ID, s.engineID, now, s.cfg.LeaseStale)
	if err != nil {
		if errors.Is(err, data.ErrLeaseNotAcquired) {
			return
		}
		logging.Ctx(ctx).Errorf("acquiring lease on %s: %v", tx.Reference, err)
		return
	}
	if err := s.audit.Insert(ctx, leased.ID, data.ActionLeaseAcquired, nil, map[string]any{"owner": s.engineID}, leased.Reference); err != nil {
		logging.Ctx(ctx).Errorf("writing LEASE_ACQUIRED audit for %s: %v", leased.Reference, err)
	}
	if s.monitorService != nil {
		if err := s.monitorService.MonitorCounters(monitor.LeaseAcquiredTag, nil); err != nil {
			logging.Ctx(ctx).Errorf("monitoring lease acquisition: %v", err)
		}
	}

	result, err := s.provider.QueryClearance(ctx, leased)
	if err != nil {
		logging.Ctx(ctx).Warnf("slow sweep provider query failed for %s: %v", leased.Reference, err)
		s.auditSafe(ctx, leased, data.ActionProviderQueryFail, map[string]any{"error": err.Error()})
		if s.stats != nil {
			s.stats.recordError()
		}
		s.releaseLease(ctx, leased)
		return
	}
	if s.stats != nil {
		s.stats.recordProcessed(1)
	}

	if result != provider.Confirmed {
		s.auditSafe(ctx, leased, data.ActionProviderQueryOK, map[string]any{"result": "not_yet"})
		s.releaseLease(ctx, leased)
		return
	}

	s.auditSafe(ctx, leased, data.ActionProviderQueryOK, map[string]any{"result": "confirmed"})

	if _, err := s.confirm.Confirm(ctx, leased.ID); err != nil {
		logging.Ctx(ctx).Errorf("confirming payment for %s: %v", leased.Reference, err)
		if s.stats != nil {
			s.stats.recordError()
		}
		s.releaseLease(ctx, leased)
	}
}

func (s *slowSweeper) auditSafe(ctx context.Context, tx *data.Transaction, action data.AuditAction, metadata map[string]any) {
	if err := s.audit.Insert(ctx, tx.ID, action, nil, metadata, tx.Reference); err != nil {
		logging.Ctx(ctx).Errorf("writing %s audit for %s: %v", action, tx.Reference, err)
	}
}

func (s *slowSweeper) releaseLease(ctx context.Context, tx *data.Transaction) {
	if err := s.store.ReleaseLease(ctx, tx.ID, s.engineID); err != nil {
		logging.Ctx(ctx).Errorf("releasing lease on %s: %v", tx.Reference, err)
		return
	}
	if err := s.audit.Insert(ctx, tx.ID, data.ActionLeaseReleased, nil, nil, tx.Reference); err != nil {
		logging.Ctx(ctx).Errorf("writing LEASE_RELEASED audit for %s: %v", tx.Reference, err)
	}
}
