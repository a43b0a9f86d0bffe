package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ramp-payments/verification-engine/internal/data"
	"github.com/ramp-payments/verification-engine/internal/notify"
	"github.com/ramp-payments/verification-engine/internal/provider"
)

func newTestFastPoller(t *testing.T, store TxStore, audit AuditLog, prov provider.ClientInterface, confirm *ConfirmationHandler, clock Clock) *fastPoller {
	t.Helper()
	return &fastPoller{
		txID:         "tx-1",
		reference:    "ref-1",
		startedAt:    clock.Now(),
		pollInterval: time.Second,
		maxDuration:  3 * time.Second,
		store:        store,
		provider:     prov,
		audit:        audit,
		confirm:      confirm,
		clock:        clock,
		stats:        &statsTracker{},
	}
}

func Test_FastPoller_Tick(t *testing.T) {
	t.Run("confirmed result runs ConfirmationHandler and halts the loop", func(t *testing.T) {
		store := NewMockTxStore(t)
		audit := NewMockAuditLog(t)
		sink := notify.NewMockNotifySink(t)
		prov := provider.NewMockClient(t)
		clock := NewFakeClock(time.Now())

		tx := pendingTx()
		store.On("Get", mock.Anything, "ref-1").Return(tx, nil)
		store.On("UpdateLastVerificationCheck", mock.Anything, "tx-1", mock.Anything).Return(nil)
		prov.On("QueryClearance", mock.Anything, tx).Return(provider.Confirmed, nil)
		audit.On("Insert", mock.Anything, "tx-1", data.ActionProviderQueryOK, mock.Anything, mock.Anything, "ref-1").Return(nil)

		confirmedTx := *tx
		confirmedTx.State = data.TxStatePaid
		store.On("ConfirmPayment", mock.Anything, "tx-1", mock.Anything).Return(&confirmedTx, nil)
		audit.On("Insert", mock.Anything, "tx-1", data.ActionPaymentConfirmed, mock.Anything, mock.Anything, "ref-1").Return(nil)
		audit.On("Insert", mock.Anything, "tx-1", data.ActionEmailSent, mock.Anything, mock.Anything, "ref-1").Return(nil)
		audit.On("Insert", mock.Anything, "tx-1", data.ActionWebhookSent, mock.Anything, mock.Anything, "ref-1").Return(nil)
		sink.On("Email", mock.Anything, notify.EmailKindConfirm, &confirmedTx).Return(nil)
		sink.On("Webhook", mock.Anything, confirmedTx.SuccessURL.String, mock.Anything).Return(nil)

		confirm := newConfirmationHandler(store, audit, sink, clock, nil)
		p := newTestFastPoller(t, store, audit, prov, confirm, clock)

		require.False(t, p.tick(context.Background()))
	})

	t.Run("not-yet result keeps polling", func(t *testing.T) {
		store := NewMockTxStore(t)
		audit := NewMockAuditLog(t)
		prov := provider.NewMockClient(t)
		clock := NewFakeClock(time.Now())

		tx := pendingTx()
		store.On("Get", mock.Anything, "ref-1").Return(tx, nil)
		store.On("UpdateLastVerificationCheck", mock.Anything, "tx-1", mock.Anything).Return(nil)
		prov.On("QueryClearance", mock.Anything, tx).Return(provider.NotYet, nil)
		audit.On("Insert", mock.Anything, "tx-1", data.ActionProviderQueryOK, mock.Anything, mock.Anything, "ref-1").Return(nil)

		confirm := newConfirmationHandler(store, audit, nil, clock, nil)
		p := newTestFastPoller(t, store, audit, prov, confirm, clock)

		require.True(t, p.tick(context.Background()))
	})

	t.Run("a provider error audits PROVIDER_QUERY_FAIL and keeps polling", func(t *testing.T) {
		store := NewMockTxStore(t)
		audit := NewMockAuditLog(t)
		prov := provider.NewMockClient(t)
		clock := NewFakeClock(time.Now())

		tx := pendingTx()
		store.On("Get", mock.Anything, "ref-1").Return(tx, nil)
		store.On("UpdateLastVerificationCheck", mock.Anything, "tx-1", mock.Anything).Return(nil)
		prov.On("QueryClearance", mock.Anything, tx).Return(provider.NotYet, errors.New("timeout"))
		audit.On("Insert", mock.Anything, "tx-1", data.ActionProviderQueryFail, mock.Anything, mock.Anything, "ref-1").Return(nil)

		confirm := newConfirmationHandler(store, audit, nil, clock, nil)
		p := newTestFastPoller(t, store, audit, prov, confirm, clock)

		require.True(t, p.tick(context.Background()))
	})

	t.Run("a non-PENDING re-read halts the loop without a provider call", func(t *testing.T) {
		store := NewMockTxStore(t)
		audit := NewMockAuditLog(t)
		prov := provider.NewMockClient(t)
		clock := NewFakeClock(time.Now())

		tx := pendingTx()
		tx.State = data.TxStatePaid
		store.On("Get", mock.Anything, "ref-1").Return(tx, nil)

		confirm := newConfirmationHandler(store, audit, nil, clock, nil)
		p := newTestFastPoller(t, store, audit, prov, confirm, clock)

		require.False(t, p.tick(context.Background()))
		prov.AssertNotCalled(t, "QueryClearance", mock.Anything, mock.Anything)
	})
}

// waitForSleeper returns once clock has a pending Sleep caller or done is closed.
func waitForSleeper(clock *FakeClock, done <-chan struct{}) {
	for {
		clock.mu.Lock()
		sleeping := len(clock.waiters) > 0
		clock.mu.Unlock()
		if sleeping {
			return
		}
		select {
		case <-done:
			return
		case <-time.After(time.Millisecond):
		}
	}
}

func Test_FastPoller_Run_StopsAtMaxDuration(t *testing.T) {
	store := NewMockTxStore(t)
	audit := NewMockAuditLog(t)
	prov := provider.NewMockClient(t)
	clock := NewFakeClock(time.Now())

	tx := pendingTx()
	store.On("Get", mock.Anything, "ref-1").Return(tx, nil)
	store.On("UpdateLastVerificationCheck", mock.Anything, "tx-1", mock.Anything).Return(nil)
	prov.On("QueryClearance", mock.Anything, tx).Return(provider.NotYet, nil)
	audit.On("Insert", mock.Anything, "tx-1", data.ActionProviderQueryOK, mock.Anything, mock.Anything, "ref-1").Return(nil)

	confirm := newConfirmationHandler(store, audit, nil, clock, nil)
	p := newTestFastPoller(t, store, audit, prov, confirm, clock)

	done := make(chan struct{})
	go func() {
		p.run(context.Background())
		close(done)
	}()

	// Advance past maxDuration (3s) one poll interval (1s) at a time, each
	// time only once run() is blocked in Sleep (or has returned), so each
	// Sleep call inside run() observes the clock moving forward.
	for i := 0; i < 4; i++ {
		waitForSleeper(clock, done)
		clock.Advance(time.Second)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fast poller did not stop at maxDuration")
	}
}
