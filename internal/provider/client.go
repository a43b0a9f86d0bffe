// Package provider implements the synchronous "has this txid cleared?"
// query against the external payment provider, wrapped in the engine's
// retry/backoff and status-classification policy.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/ramp-payments/verification-engine/internal/data"
	"github.com/ramp-payments/verification-engine/internal/httpclient"
	"github.com/ramp-payments/verification-engine/internal/logging"
	"github.com/ramp-payments/verification-engine/internal/monitor"
)

// ClearanceResult classifies a provider response.
type ClearanceResult int

const (
	NotYet ClearanceResult = iota
	Confirmed
)

// ClientInterface is the engine's view of the payment provider: a single
// synchronous clearance check, already retried and timed-out internally.
//
//go:generate mockery --name=ClientInterface --case=underscore --structname=MockClient --filename=client_mock.go --inpackage
type ClientInterface interface {
	QueryClearance(ctx context.Context, tx *data.Transaction) (ClearanceResult, error)
}

// ClientOptions configures Client.
type ClientOptions struct {
	BaseURL        string
	AdminID        string
	AdminSecret    string
	HTTPClient     httpclient.HTTPClientInterface
	MonitorService monitor.MonitorServiceInterface

	Timeout          time.Duration
	RetryInitial     time.Duration
	RetryMultiplier  float64
	RetryCap         time.Duration
	RetryMaxAttempts int
}

// Client queries the provider's queryClearance operation over HTTP, per the
// wire contract in spec §6.
type Client struct {
	baseURL        string
	adminID        string
	adminSecret    string
	httpClient     httpclient.HTTPClientInterface
	monitorService monitor.MonitorServiceInterface

	timeout          time.Duration
	retryInitial     time.Duration
	retryMultiplier  float64
	retryCap         time.Duration
	retryMaxAttempts int
}

var _ ClientInterface = (*Client)(nil)

// NewClient builds a Client from opts, defaulting HTTPClient to
// httpclient.DefaultClient when unset.
func NewClient(opts ClientOptions) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = httpclient.DefaultClient()
	}

	return &Client{
		baseURL:          opts.BaseURL,
		adminID:          opts.AdminID,
		adminSecret:      opts.AdminSecret,
		httpClient:       hc,
		monitorService:   opts.MonitorService,
		timeout:          opts.Timeout,
		retryInitial:     opts.RetryInitial,
		retryMultiplier:  opts.RetryMultiplier,
		retryCap:         opts.RetryCap,
		retryMaxAttempts: opts.RetryMaxAttempts,
	}
}

type queryClearanceParam struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type queryClearanceRequest struct {
	Op     string                 `json:"op"`
	Params []queryClearanceParam  `json:"params"`
}

type queryClearanceResponse struct {
	Result interface{} `json:"result"`
	Success bool       `json:"success"`
	Status  string     `json:"status"`
}

// resultIndicatesSuccess implements the four-way disjunction from spec §6:
// body.result == true OR body.success == true OR body.status == "success"
// OR body.result.status == "completed".
func (r queryClearanceResponse) resultIndicatesSuccess() bool {
	if b, ok := r.Result.(bool); ok && b {
		return true
	}
	if r.Success {
		return true
	}
	if r.Status == "success" {
		return true
	}
	if m, ok := r.Result.(map[string]interface{}); ok {
		if status, ok := m["status"].(string); ok && status == "completed" {
			return true
		}
	}
	return false
}

// QueryClearance asks the provider whether tx has cleared. Transport
// failures, timeouts, 5xx, and malformed bodies are retried per the
// configured backoff; persistent failure after the final attempt surfaces
// to the caller as an error, which the poller must treat as NotYet (spec
// §4.7).
func (c *Client) QueryClearance(ctx context.Context, tx *data.Transaction) (ClearanceResult, error) {
	reqBody := queryClearanceRequest{
		Op: "queryClearance",
		Params: []queryClearanceParam{
			{Name: "currency", Value: string(tx.Currency)},
			{Name: "txid", Value: tx.ProviderRef.String},
			{Name: "paymenttype", Value: string(tx.PaymentType)},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return NotYet, fmt.Errorf("marshaling queryClearance request: %w", err)
	}

	var result ClearanceResult
	attempt := 0
	err = retry.Do(
		func() error {
			attempt++
			start := time.Now()
			res, attemptErr := c.doRequest(ctx, payload)
			c.recordMetrics(ctx, start, attemptErr)
			if attemptErr != nil {
				return attemptErr
			}
			result = res
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.retryMaxAttempts)),
		retry.MaxDelay(c.retryCap),
		retry.DelayType(c.backOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logging.Ctx(ctx).Warnf("provider queryClearance retry %d for reference %s: %v", n, tx.Reference, err)
		}),
	)
	if err != nil {
		return NotYet, fmt.Errorf("querying provider clearance for %s after %d attempts: %w", tx.Reference, attempt, err)
	}

	return result, nil
}

// backOffDelay computes the n-th retry's backoff as retryInitial scaled by
// retryMultiplier^n, capped at retryCap (applied again by retry.MaxDelay as
// a belt-and-braces guard). n is 0 on the first retry.
func (c *Client) backOffDelay(n uint, _ error, _ *retry.Config) time.Duration {
	delay := time.Duration(float64(c.retryInitial) * math.Pow(c.retryMultiplier, float64(n)))
	if delay > c.retryCap {
		return c.retryCap
	}
	return delay
}

func (c *Client) doRequest(ctx context.Context, payload []byte) (ClearanceResult, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return NotYet, fmt.Errorf("building queryClearance request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("admin", c.adminID)
	req.Header.Set("adminpwd", c.adminSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NotYet, fmt.Errorf("sending queryClearance request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return NotYet, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var body queryClearanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return NotYet, fmt.Errorf("decoding queryClearance response: %w", err)
	}

	if body.resultIndicatesSuccess() {
		return Confirmed, nil
	}
	return NotYet, nil
}

func (c *Client) recordMetrics(ctx context.Context, start time.Time, err error) {
	if c.monitorService == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "retryable"
	}
	labels := monitor.ProviderLabels{
		Op:     "queryClearance",
		Result: result,
	}.ToMap()

	durationLabels := map[string]string{"op": labels["op"], "result": labels["result"]}
	if monitorErr := c.monitorService.MonitorDuration(time.Since(start), monitor.ProviderRequestDurationTag, durationLabels); monitorErr != nil {
		logging.Ctx(ctx).Errorf("monitoring provider request duration: %v", monitorErr)
	}
	if monitorErr := c.monitorService.MonitorCounters(monitor.ProviderRequestsTotalTag, labels); monitorErr != nil {
		logging.Ctx(ctx).Errorf("monitoring provider request counter: %v", monitorErr)
	}
}
