package verification

import (
	"context"
	"errors"
	"time"

	"github.com/ramp-payments/verification-engine/internal/data"
	"github.com/ramp-payments/verification-engine/internal/logging"
	"github.com/ramp-payments/verification-engine/internal/provider"
)

// fastPoller is the cooperative, single-threaded per-transaction task
// described in §4.3: poll the provider every pollInterval until confirmed,
// until the transaction leaves PENDING, or until maxDuration has elapsed
// since the task started — whichever comes first. The window is measured
// from startedAt, not from the most recent tick, so a slow provider call
// never extends it.
type fastPoller struct {
	txID        string
	reference   string
	startedAt   time.Time
	pollInterval time.Duration
	maxDuration  time.Duration

	store    TxStore
	provider provider.ClientInterface
	audit    AuditLog
	confirm  *ConfirmationHandler
	clock    Clock
	stats    *statsTracker
}

// run executes the poll loop until completion or ctx cancellation (Stop()).
// It never returns an error: every failure mode is classified, audited, and
// absorbed internally per §7 ("never fails the poller").
func (p *fastPoller) run(ctx context.Context) {
	for {
		elapsed := p.clock.Now().Sub(p.startedAt)
		if elapsed >= p.maxDuration {
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		if !p.tick(ctx) {
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
			p.clock.Sleep(p.pollInterval)
		}
	}
}

// tick runs one poll iteration. It returns false when the loop should stop
// (confirmed, or the row is no longer PENDING), true to keep polling.
func (p *fastPoller) tick(ctx context.Context) bool {
	tx, err := p.store.Get(ctx, p.reference)
	if err != nil {
		logging.Ctx(ctx).Errorf("fast poller re-read failed for %s: %v", p.reference, err)
		return true
	}
	if tx.State != data.TxStatePending {
		return false
	}

	now := p.clock.Now()
	if err := p.store.UpdateLastVerificationCheck(ctx, p.txID, now); err != nil {
		logging.Ctx(ctx).Errorf("updating last verification check for %s: %v", p.reference, err)
	}

	result, err := p.provider.QueryClearance(ctx, tx)
	if err != nil {
		logging.Ctx(ctx).Warnf("fast poll provider query failed for %s: %v", p.reference, err)
		p.auditSafe(ctx, data.ActionProviderQueryFail, map[string]any{"error": err.Error()})
		if p.stats != nil {
			p.stats.recordError()
		}
		return true
	}
	if p.stats != nil {
		p.stats.recordProcessed(1)
	}

	if result != provider.Confirmed {
		p.auditSafe(ctx, data.ActionProviderQueryOK, map[string]any{"result": "not_yet"})
		return true
	}

	p.auditSafe(ctx, data.ActionProviderQueryOK, map[string]any{"result": "confirmed"})

	if _, err := p.confirm.Confirm(ctx, p.txID); err != nil && !errors.Is(err, data.ErrRecordNotFound) {
		logging.Ctx(ctx).Errorf("confirming payment for %s: %v", p.reference, err)
		if p.stats != nil {
			p.stats.recordError()
		}
		return true
	}
	return false
}

func (p *fastPoller) auditSafe(ctx context.Context, action data.AuditAction, metadata map[string]any) {
	if err := p.audit.Insert(ctx, p.txID, action, nil, metadata, p.reference); err != nil {
		logging.Ctx(ctx).Errorf("writing %s audit for %s: %v", action, p.reference, err)
	}
}
