// Package notify implements the engine's NotifySink: best-effort
// confirmation/expiration email and a single, non-retried webhook POST to
// the merchant's successUrl.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/ramp-payments/verification-engine/internal/data"
)

// EmailKind selects which template EmailSender.Send renders.
type EmailKind string

const (
	EmailKindConfirm EmailKind = "confirm"
	EmailKindExpire  EmailKind = "expire"
)

// NotifySink is the engine's view of outbound notifications: email(kind, tx)
// and webhook(url, payload), both best-effort per spec §4.5/§4.6.
//
//go:generate mockery --name=NotifySink --case=underscore --structname=MockNotifySink --filename=sink_mock.go --inpackage
type NotifySink interface {
	Email(ctx context.Context, kind EmailKind, tx *data.Transaction) error
	Webhook(ctx context.Context, url string, payload WebhookPayload) error
}

// EmailSender renders and delivers a single confirmation/expiration email.
// Implementations wrap a specific provider (SendGrid, AWS SES).
type EmailSender interface {
	Send(ctx context.Context, kind EmailKind, tx *data.Transaction) error
}

// Sink is the default NotifySink: an EmailSender plus a WebhookSender.
type Sink struct {
	email   EmailSender
	webhook *WebhookSender
}

// NewSink builds a Sink from an EmailSender and a webhook timeout.
func NewSink(email EmailSender, webhookTimeout time.Duration, serviceName string) *Sink {
	return &Sink{
		email:   email,
		webhook: NewWebhookSender(webhookTimeout, serviceName),
	}
}

var _ NotifySink = (*Sink)(nil)

// Email sends a confirmation/expiration email. A nil payer email is not an
// error (spec §6: "MissingPayerEmail is not an error") — it is the caller's
// job to skip calling Email at all when tx.Payer().Email is nil; Email
// itself still forwards to the configured sender, which is expected to
// treat an empty ToEmail as a validation error surfaced here.
func (s *Sink) Email(ctx context.Context, kind EmailKind, tx *data.Transaction) error {
	if s.email == nil {
		return fmt.Errorf("no email sender configured")
	}
	return s.email.Send(ctx, kind, tx)
}

// Webhook POSTs payload to url with an 8s timeout and no retries.
func (s *Sink) Webhook(ctx context.Context, url string, payload WebhookPayload) error {
	return s.webhook.Send(ctx, url, payload)
}
