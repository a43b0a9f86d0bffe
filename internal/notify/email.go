package notify

import (
	"context"
	"fmt"

	"github.com/ramp-payments/verification-engine/internal/data"
	"github.com/ramp-payments/verification-engine/internal/htmltemplate"
	"github.com/ramp-payments/verification-engine/internal/utils"
)

// EmailBackend selects which provider backs the configured EmailSender.
type EmailBackend string

const (
	EmailBackendSendGrid EmailBackend = "SENDGRID"
	EmailBackendAWSSES   EmailBackend = "AWS_SES"
	EmailBackendDryRun   EmailBackend = "DRY_RUN"
)

func renderEmail(kind EmailKind, tx *data.Transaction) (subject, body string, err error) {
	payer := tx.Payer()
	senderName := ""
	if payer.Name != nil {
		senderName = *payer.Name
	}

	switch kind {
	case EmailKindConfirm:
		paidAt := ""
		if tx.PaidAt.Valid {
			paidAt = tx.PaidAt.Time.Format("2006-01-02T15:04:05Z07:00")
		}
		body, err = htmltemplate.ExecuteHTMLTemplateForPaymentConfirmedEmail(htmltemplate.PaymentConfirmedEmailTemplate{
			SenderName:    senderName,
			Amount:        tx.Amount,
			Currency:      string(tx.Currency),
			TransactionID: tx.Reference,
			PaidAt:        paidAt,
		})
		subject = "Your payment has been confirmed"
	case EmailKindExpire:
		body, err = htmltemplate.ExecuteHTMLTemplateForPaymentExpiredEmail(htmltemplate.PaymentExpiredEmailTemplate{
			SenderName:    senderName,
			Amount:        tx.Amount,
			Currency:      string(tx.Currency),
			TransactionID: tx.Reference,
		})
		subject = "We could not confirm your payment"
	default:
		return "", "", fmt.Errorf("unknown email kind %q", kind)
	}
	if err != nil {
		return "", "", fmt.Errorf("rendering %s email template: %w", kind, err)
	}
	return subject, body, nil
}

func recipientEmail(tx *data.Transaction) (string, error) {
	payer := tx.Payer()
	if payer.Email == nil {
		return "", errNoRecipient
	}
	email := utils.TrimAndLower(*payer.Email)
	if email == "" {
		return "", errNoRecipient
	}
	return email, nil
}

// errNoRecipient signals the transaction has no payer email on file. Callers
// (the ConfirmationHandler/ExpirySweeper) check for it and skip the email
// step entirely rather than treating it as a delivery failure, matching
// spec §6's "MissingPayerEmail is not an error".
var errNoRecipient = fmt.Errorf("transaction has no payer email on file")

// IsNoRecipient reports whether err is the sentinel returned when a
// transaction has no payer email.
func IsNoRecipient(err error) bool {
	return err == errNoRecipient
}
