package verification

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ramp-payments/verification-engine/internal/data"
	"github.com/ramp-payments/verification-engine/internal/notify"
)

var errEmailDown = errors.New("smtp unavailable")

func pendingTx() *data.Transaction {
	return &data.Transaction{
		ID:            "tx-1",
		Reference:     "ref-1",
		PaymentLinkID: "link-1",
		State:         data.TxStatePending,
		Amount:        "100.00",
		Currency:      data.CurrencyUSD,
		PaymentType:   data.PaymentTypeBank,
		PayerEmail:    sql.NullString{String: "payer@example.com", Valid: true},
		SuccessURL:    sql.NullString{String: "https://merchant.example/hook", Valid: true},
	}
}

func Test_ConfirmationHandler_Confirm(t *testing.T) {
	t.Run("wins the CAS: audits, emails, and webhooks exactly once", func(t *testing.T) {
		store := NewMockTxStore(t)
		audit := NewMockAuditLog(t)
		sink := notify.NewMockNotifySink(t)
		clock := NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

		confirmed := pendingTx()
		confirmed.State = data.TxStatePaid
		confirmed.PaidAt = sql.NullTime{Time: clock.Now(), Valid: true}

		store.On("ConfirmPayment", mock.Anything, "tx-1", mock.Anything).Return(confirmed, nil)
		audit.On("Insert", mock.Anything, "tx-1", data.ActionPaymentConfirmed, mock.Anything, mock.Anything, "ref-1").Return(nil)
		audit.On("Insert", mock.Anything, "tx-1", data.ActionEmailSent, mock.Anything, mock.Anything, "ref-1").Return(nil)
		audit.On("Insert", mock.Anything, "tx-1", data.ActionWebhookSent, mock.Anything, mock.Anything, "ref-1").Return(nil)
		sink.On("Email", mock.Anything, notify.EmailKindConfirm, confirmed).Return(nil)
		sink.On("Webhook", mock.Anything, "https://merchant.example/hook", mock.Anything).Return(nil)

		h := newConfirmationHandler(store, audit, sink, clock, nil)
		ok, err := h.Confirm(context.Background(), "tx-1")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("loses the CAS: exits silently with no audit or notification", func(t *testing.T) {
		store := NewMockTxStore(t)
		audit := NewMockAuditLog(t)
		sink := notify.NewMockNotifySink(t)
		clock := NewFakeClock(time.Now())

		store.On("ConfirmPayment", mock.Anything, "tx-1", mock.Anything).Return(nil, data.ErrRecordNotFound)

		h := newConfirmationHandler(store, audit, sink, clock, nil)
		ok, err := h.Confirm(context.Background(), "tx-1")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("no payer email skips the email attempt but still webhooks", func(t *testing.T) {
		store := NewMockTxStore(t)
		audit := NewMockAuditLog(t)
		sink := notify.NewMockNotifySink(t)
		clock := NewFakeClock(time.Now())

		confirmed := pendingTx()
		confirmed.PayerEmail = sql.NullString{}
		confirmed.State = data.TxStatePaid
		confirmed.PaidAt = sql.NullTime{Time: clock.Now(), Valid: true}

		store.On("ConfirmPayment", mock.Anything, "tx-1", mock.Anything).Return(confirmed, nil)
		audit.On("Insert", mock.Anything, "tx-1", data.ActionPaymentConfirmed, mock.Anything, mock.Anything, "ref-1").Return(nil)
		audit.On("Insert", mock.Anything, "tx-1", data.ActionWebhookSent, mock.Anything, mock.Anything, "ref-1").Return(nil)
		sink.On("Webhook", mock.Anything, "https://merchant.example/hook", mock.Anything).Return(nil)

		h := newConfirmationHandler(store, audit, sink, clock, nil)
		ok, err := h.Confirm(context.Background(), "tx-1")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("no successUrl skips the webhook attempt", func(t *testing.T) {
		store := NewMockTxStore(t)
		audit := NewMockAuditLog(t)
		sink := notify.NewMockNotifySink(t)
		clock := NewFakeClock(time.Now())

		confirmed := pendingTx()
		confirmed.SuccessURL = sql.NullString{}
		confirmed.State = data.TxStatePaid
		confirmed.PaidAt = sql.NullTime{Time: clock.Now(), Valid: true}

		store.On("ConfirmPayment", mock.Anything, "tx-1", mock.Anything).Return(confirmed, nil)
		audit.On("Insert", mock.Anything, "tx-1", data.ActionPaymentConfirmed, mock.Anything, mock.Anything, "ref-1").Return(nil)
		audit.On("Insert", mock.Anything, "tx-1", data.ActionEmailSent, mock.Anything, mock.Anything, "ref-1").Return(nil)
		sink.On("Email", mock.Anything, notify.EmailKindConfirm, confirmed).Return(nil)

		h := newConfirmationHandler(store, audit, sink, clock, nil)
		ok, err := h.Confirm(context.Background(), "tx-1")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("email failure is audited but does not block the webhook", func(t *testing.T) {
		store := NewMockTxStore(t)
		audit := NewMockAuditLog(t)
		sink := notify.NewMockNotifySink(t)
		clock := NewFakeClock(time.Now())

		confirmed := pendingTx()
		confirmed.State = data.TxStatePaid
		confirmed.PaidAt = sql.NullTime{Time: clock.Now(), Valid: true}

		store.On("ConfirmPayment", mock.Anything, "tx-1", mock.Anything).Return(confirmed, nil)
		audit.On("Insert", mock.Anything, "tx-1", data.ActionPaymentConfirmed, mock.Anything, mock.Anything, "ref-1").Return(nil)
		audit.On("Insert", mock.Anything, "tx-1", data.ActionEmailFailed, mock.Anything, mock.Anything, "ref-1").Return(nil)
		audit.On("Insert", mock.Anything, "tx-1", data.ActionWebhookSent, mock.Anything, mock.Anything, "ref-1").Return(nil)
		sink.On("Email", mock.Anything, notify.EmailKindConfirm, confirmed).Return(errEmailDown)
		sink.On("Webhook", mock.Anything, "https://merchant.example/hook", mock.Anything).Return(nil)

		h := newConfirmationHandler(store, audit, sink, clock, nil)
		ok, err := h.Confirm(context.Background(), "tx-1")
		require.NoError(t, err)
		require.True(t, ok)
	})
}
