package verification

import (
	"context"
	"errors"
	"time"

	"github.com/ramp-payments/verification-engine/internal/data"
	"github.com/ramp-payments/verification-engine/internal/logging"
	"github.com/ramp-payments/verification-engine/internal/monitor"
	"github.com/ramp-payments/verification-engine/internal/notify"
)

// ConfirmationHandler implements §4.5: the atomic PAID transition followed
// by best-effort notification. It is invoked from both FastPoller and
// SlowSweeper whenever ProviderClient reports a transaction cleared; the
// state-guarded CAS in Confirm is what makes step 1 exactly-once across
// every task and engine instance that might race to call it.
type ConfirmationHandler struct {
	store          TxStore
	audit          AuditLog
	notify         notify.NotifySink
	clock          Clock
	monitorService monitor.MonitorServiceInterface
}

func newConfirmationHandler(store TxStore, audit AuditLog, sink notify.NotifySink, clock Clock, monitorService monitor.MonitorServiceInterface) *ConfirmationHandler {
	return &ConfirmationHandler{store: store, audit: audit, notify: sink, clock: clock, monitorService: monitorService}
}

// Confirm performs the atomic PAID transition for transaction id and, if it
// won the CAS, the best-effort email and webhook. Returns (false, nil) when
// another owner already confirmed the transaction first — the spec's
// "exit silently" case, never an error to the caller.
func (h *ConfirmationHandler) Confirm(ctx context.Context, id string) (bool, error) {
	now := h.clock.Now()

	tx, err := h.store.ConfirmPayment(ctx, id, now)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	h.auditSafe(ctx, tx.ID, data.ActionPaymentConfirmed, map[string]any{"paidAt": tx.PaidAt.Time}, nil, tx.Reference)

	h.sendConfirmationEmail(ctx, tx)
	h.sendWebhook(ctx, tx)

	return true, nil
}

func (h *ConfirmationHandler) sendConfirmationEmail(ctx context.Context, tx *data.Transaction) {
	payer := tx.Payer()
	if payer.Email == nil {
		return
	}

	if err := h.notify.Email(ctx, notify.EmailKindConfirm, tx); err != nil {
		logging.Ctx(ctx).Warnf("confirmation email failed for %s: %v", tx.Reference, err)
		h.auditSafe(ctx, tx.ID, data.ActionEmailFailed, nil, map[string]any{"error": err.Error()}, tx.Reference)
		h.recordNotification(ctx, "email", "failed")
		return
	}

	h.auditSafe(ctx, tx.ID, data.ActionEmailSent, nil, nil, tx.Reference)
	h.recordNotification(ctx, "email", "sent")
}

func (h *ConfirmationHandler) sendWebhook(ctx context.Context, tx *data.Transaction) {
	if !tx.SuccessURL.Valid || tx.SuccessURL.String == "" {
		return
	}

	payer := tx.Payer()
	now := h.clock.Now()
	payload := notify.WebhookPayload{
		Event:         "payment.confirmed",
		PaymentLinkID: tx.PaymentLinkID,
		TransactionID: tx.Reference,
		Amount:        tx.Amount,
		Currency:      string(tx.Currency),
		PaymentMethod: string(tx.PaymentType),
		Status:        "completed",
		PaidAt:        formatPayerTime(tx.PaidAt.Time),
		Timestamp:     formatPayerTime(now),
	}
	if payer.Name != nil {
		payload.SenderName = *payer.Name
	}
	if payer.Phone != nil {
		payload.SenderPhone = *payer.Phone
	}
	if payer.Email != nil {
		payload.SenderEmail = *payer.Email
	}

	if err := h.notify.Webhook(ctx, tx.SuccessURL.String, payload); err != nil {
		logging.Ctx(ctx).Warnf("webhook failed for %s: %v", tx.Reference, err)
		h.auditSafe(ctx, tx.ID, data.ActionWebhookFailed, nil, map[string]any{"error": err.Error()}, tx.Reference)
		h.recordNotification(ctx, "webhook", "failed")
		return
	}

	h.auditSafe(ctx, tx.ID, data.ActionWebhookSent, nil, nil, tx.Reference)
	h.recordNotification(ctx, "webhook", "sent")
}

func (h *ConfirmationHandler) auditSafe(ctx context.Context, entityID string, action data.AuditAction, changes, metadata interface{}, correlationID string) {
	if err := h.audit.Insert(ctx, entityID, action, changes, metadata, correlationID); err != nil {
		logging.Ctx(ctx).Errorf("writing audit event %s for %s: %v", action, entityID, err)
	}
}

func (h *ConfirmationHandler) recordNotification(ctx context.Context, channel, result string) {
	if h.monitorService == nil {
		return
	}
	labels := monitor.NotificationLabels{Channel: channel, Result: result}.ToMap()
	if result == "failed" {
		if err := h.monitorService.MonitorCounters(monitor.NotificationFailedTag, map[string]string{"channel": channel}); err != nil {
			logging.Ctx(ctx).Errorf("monitoring notification failure: %v", err)
		}
		return
	}
	tag := monitor.EmailRequestsTotalTag
	if channel == "webhook" {
		tag = monitor.WebhookRequestsTotalTag
	}
	if err := h.monitorService.MonitorCounters(tag, labels); err != nil {
		logging.Ctx(ctx).Errorf("monitoring notification: %v", err)
	}
}

func formatPayerTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
