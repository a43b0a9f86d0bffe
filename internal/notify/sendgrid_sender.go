package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/ramp-payments/verification-engine/internal/data"
	"github.com/ramp-payments/verification-engine/internal/logging"
)

// sendGridInterface is the SendGrid surface this package depends on,
// narrowed for testability.
type sendGridInterface interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender delivers confirmation/expiration emails through SendGrid.
type SendGridSender struct {
	client        sendGridInterface
	senderAddress string
}

var _ EmailSender = (*SendGridSender)(nil)

// NewSendGridSender builds a SendGridSender from an API key and verified
// sender address.
func NewSendGridSender(apiKey, senderAddress string) (*SendGridSender, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sendGrid API key is empty")
	}
	if senderAddress == "" {
		return nil, fmt.Errorf("sendGrid sender address is empty")
	}

	return &SendGridSender{
		client:        sendgrid.NewSendClient(apiKey),
		senderAddress: senderAddress,
	}, nil
}

func (s *SendGridSender) Send(ctx context.Context, kind EmailKind, tx *data.Transaction) error {
	to, err := recipientEmail(tx)
	if err != nil {
		return err
	}

	subject, body, err := renderEmail(kind, tx)
	if err != nil {
		return err
	}

	from := mail.NewEmail("", s.senderAddress)
	toAddr := mail.NewEmail("", to)
	email := mail.NewSingleEmail(from, subject, toAddr, "", body)

	response, err := s.client.Send(email)
	if err != nil {
		return fmt.Errorf("sending SendGrid email for transaction %s: %w", tx.Reference, err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendGrid API returned status %d for transaction %s: %s", response.StatusCode, tx.Reference, response.Body)
	}

	logging.Ctx(ctx).Infof("sent %s email for transaction %s via SendGrid", kind, tx.Reference)
	return nil
}
