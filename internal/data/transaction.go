package data

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TxState is the verification lifecycle state of a Transaction. See
// NewTransactionStateMachine for the allowed transition graph.
type TxState string

const (
	TxStatePending       TxState = "PENDING"
	TxStateInitialized   TxState = "INITIALIZED"
	TxStatePaid          TxState = "PAID"
	TxStateCompleted     TxState = "COMPLETED"
	TxStatePayoutFailed  TxState = "PAYOUT_FAILED"
)

func (s TxState) Validate() error {
	switch s {
	case TxStatePending, TxStateInitialized, TxStatePaid, TxStateCompleted, TxStatePayoutFailed:
		return nil
	default:
		return fmt.Errorf("invalid transaction state %q", s)
	}
}

// Currency is opaque to the engine beyond validating membership in the
// supported tag set.
type Currency string

const (
	CurrencyNGN Currency = "NGN"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"
	CurrencyEUR Currency = "EUR"
)

func (c Currency) Validate() error {
	switch c {
	case CurrencyNGN, CurrencyUSD, CurrencyGBP, CurrencyEUR:
		return nil
	default:
		return fmt.Errorf("invalid currency %q", c)
	}
}

// PaymentType is echoed to the provider on every clearance query.
type PaymentType string

const (
	PaymentTypeBank PaymentType = "bank"
	PaymentTypeCard PaymentType = "card"
)

func (pt PaymentType) Validate() error {
	switch pt {
	case PaymentTypeBank, PaymentTypeCard, "":
		return nil
	default:
		return fmt.Errorf("invalid payment type %q", pt)
	}
}

// Payer carries the sender details patched onto a Transaction by
// StartVerification. All fields are optional; Email drives the
// confirmation/expiration mail.
type Payer struct {
	Email *string `json:"email,omitempty" db:"payer_email"`
	Name  *string `json:"name,omitempty" db:"payer_name"`
	Phone *string `json:"phone,omitempty" db:"payer_phone"`
}

// Transaction is the central entity tracked by the verification engine.
type Transaction struct {
	ID            string      `db:"id"`
	Reference     string      `db:"reference"`
	PaymentLinkID string      `db:"payment_link_id"`
	State         TxState     `db:"state"`
	Amount        string      `db:"amount"`
	Currency      Currency    `db:"currency"`
	ProviderRef   sql.NullString `db:"provider_ref"`
	PaymentType   PaymentType `db:"payment_type"`

	PayerEmail sql.NullString `db:"payer_email"`
	PayerName  sql.NullString `db:"payer_name"`
	PayerPhone sql.NullString `db:"payer_phone"`

	SuccessURL sql.NullString `db:"success_url"`

	CreatedAt             time.Time    `db:"created_at"`
	VerificationStartedAt sql.NullTime `db:"verification_started_at"`
	LastVerificationCheck sql.NullTime `db:"last_verification_check"`
	ExpiresAt             time.Time    `db:"expires_at"`

	ProcessingOwner     sql.NullString `db:"processing_owner"`
	ProcessingStartedAt sql.NullTime   `db:"processing_started_at"`

	PaidAt sql.NullTime `db:"paid_at"`
}

// Payer returns the transaction's sender details as a Payer value.
func (t *Transaction) Payer() Payer {
	p := Payer{}
	if t.PayerEmail.Valid {
		p.Email = &t.PayerEmail.String
	}
	if t.PayerName.Valid {
		p.Name = &t.PayerName.String
	}
	if t.PayerPhone.Valid {
		p.Phone = &t.PayerPhone.String
	}
	return p
}

// IsExpired reports whether expiresAt has been crossed as of now.
func (t *Transaction) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// ValidateAmount checks that amount is a well-formed, non-negative decimal
// string. The engine never performs arithmetic on it — it is only ever
// echoed to the provider and the merchant webhook — so the only obligation
// here is to reject garbage before it is persisted.
func ValidateAmount(amount string) error {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("amount %q is not a valid decimal: %w", amount, err)
	}
	if d.IsNegative() {
		return fmt.Errorf("amount %q must not be negative", amount)
	}
	return nil
}

// StatusSnapshot is the read-only projection returned by GetStatus.
type StatusSnapshot struct {
	State                 TxState   `json:"state"`
	Amount                string    `json:"amount"`
	Currency              Currency  `json:"currency"`
	ProviderRef           string    `json:"providerRef,omitempty"`
	SenderName            string    `json:"senderName,omitempty"`
	SenderEmail           string    `json:"senderEmail,omitempty"`
	SenderPhone           string    `json:"senderPhone,omitempty"`
	VerificationStartedAt *time.Time `json:"verificationStartedAt,omitempty"`
	LastVerificationCheck *time.Time `json:"lastVerificationCheck,omitempty"`
	ExpiresAt             time.Time `json:"expiresAt"`
}

func (t *Transaction) ToStatusSnapshot() StatusSnapshot {
	snap := StatusSnapshot{
		State:     t.State,
		Amount:    t.Amount,
		Currency:  t.Currency,
		ExpiresAt: t.ExpiresAt,
	}
	if t.ProviderRef.Valid {
		snap.ProviderRef = t.ProviderRef.String
	}
	if t.PayerName.Valid {
		snap.SenderName = t.PayerName.String
	}
	if t.PayerEmail.Valid {
		snap.SenderEmail = t.PayerEmail.String
	}
	if t.PayerPhone.Valid {
		snap.SenderPhone = t.PayerPhone.String
	}
	if t.VerificationStartedAt.Valid {
		snap.VerificationStartedAt = &t.VerificationStartedAt.Time
	}
	if t.LastVerificationCheck.Valid {
		snap.LastVerificationCheck = &t.LastVerificationCheck.Time
	}
	return snap
}
