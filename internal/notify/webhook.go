package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ramp-payments/verification-engine/internal/httpclient"
)

// WebhookPayload is the JSON body POSTed to the merchant's successUrl on
// confirmation (spec §6). No signature is included — acknowledged future
// enhancement, out of scope here.
type WebhookPayload struct {
	Event         string `json:"event"`
	PaymentLinkID string `json:"paymentLinkId"`
	TransactionID string `json:"transactionId"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	SenderName    string `json:"senderName"`
	SenderPhone   string `json:"senderPhone"`
	SenderEmail   string `json:"senderEmail"`
	PaymentMethod string `json:"paymentMethod"`
	Status        string `json:"status"`
	PaidAt        string `json:"paidAt"`
	Timestamp     string `json:"timestamp"`
}

// WebhookSender POSTs a WebhookPayload to a merchant-provided URL. Single
// attempt, no retries — merchants are documented to treat their endpoint as
// idempotent (spec §4.5).
type WebhookSender struct {
	httpClient  httpclient.HTTPClientInterface
	timeout     time.Duration
	userAgent   string
}

// NewWebhookSender builds a WebhookSender with the given per-call timeout.
// serviceName is used to build the "<serviceName>-Webhook/1.0" User-Agent.
func NewWebhookSender(timeout time.Duration, serviceName string) *WebhookSender {
	return &WebhookSender{
		httpClient: httpclient.DefaultClient(),
		timeout:    timeout,
		userAgent:  fmt.Sprintf("%s-Webhook/1.0", serviceName),
	}
}

// WebhookStatusError is returned when the merchant endpoint responds with a
// non-2xx status. Callers audit WEBHOOK_FAILED with its StatusCode.
type WebhookStatusError struct {
	StatusCode int
	Body       string
}

func (e *WebhookStatusError) Error() string {
	return fmt.Sprintf("webhook endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// Send POSTs payload to url. Any 2xx response is success; anything else is a
// *WebhookStatusError.
func (w *WebhookSender) Send(ctx context.Context, url string, payload WebhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook to %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &WebhookStatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return nil
}
