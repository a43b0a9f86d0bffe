package verification

import (
	"context"
	"errors"

	"github.com/ramp-payments/verification-engine/internal/data"
	"github.com/ramp-payments/verification-engine/internal/logging"
	"github.com/ramp-payments/verification-engine/internal/notify"
)

// expirySweeper implements §4.6's expiry path: every PENDING transaction
// whose expiresAt deadline has passed is moved to PAYOUT_FAILED and sent a
// best-effort expiration email. It runs synchronously after every
// SlowSweeper batch, never on its own ticker.
type expirySweeper struct {
	store     TxStore
	audit     AuditLog
	notify    notify.NotifySink
	clock     Clock
	batchSize int
}

func newExpirySweeper(store TxStore, audit AuditLog, sink notify.NotifySink, clock Clock, batchSize int) *expirySweeper {
	return &expirySweeper{store: store, audit: audit, notify: sink, clock: clock, batchSize: batchSize}
}

// run expires up to batchSize eligible transactions and returns how many it
// processed; any beyond that are left for the next run.
func (s *expirySweeper) run(ctx context.Context) (int, error) {
	now := s.clock.Now()

	batch, err := s.store.GetExpiredBatch(ctx, now, s.batchSize)
	if err != nil {
		return 0, err
	}

	for _, tx := range batch {
		s.expireOne(ctx, tx)
	}
	return len(batch), nil
}

func (s *expirySweeper) expireOne(ctx context.Context, tx *data.Transaction) {
	expired, err := s.store.ExpireTransaction(ctx, tx.ID)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			// Another task already moved this row on; nothing to do.
			return
		}
		logging.Ctx(ctx).Errorf("expiring transaction %s: %v", tx.Reference, err)
		return
	}

	if err := s.audit.Insert(ctx, expired.ID, data.ActionTransactionExpired, nil, nil, expired.Reference); err != nil {
		logging.Ctx(ctx).Errorf("writing TRANSACTION_EXPIRED audit for %s: %v", expired.Reference, err)
	}

	if expired.Payer().Email == nil {
		return
	}
	if err := s.notify.Email(ctx, notify.EmailKindExpire, expired); err != nil {
		logging.Ctx(ctx).Warnf("expiration email failed for %s: %v", expired.Reference, err)
		if auditErr := s.audit.Insert(ctx, expired.ID, data.ActionEmailFailed, nil, map[string]any{"error": err.Error()}, expired.Reference); auditErr != nil {
			logging.Ctx(ctx).Errorf("writing EMAIL_FAILED audit for %s: %v", expired.Reference, auditErr)
		}
		return
	}
	if err := s.audit.Insert(ctx, expired.ID, data.ActionEmailSent, nil, nil, expired.Reference); err != nil {
		logging.Ctx(ctx).Errorf("writing EMAIL_SENT audit for %s: %v", expired.Reference, err)
	}
}
