package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ramp-payments/verification-engine/db"
)

// TransactionModel persists Transaction rows and implements every
// compare-and-swap mutation path the verification engine relies on for
// correctness under concurrent/multi-instance access.
type TransactionModel struct {
	dbConnectionPool db.DBConnectionPool
}

const baseTransactionQuery = `
	SELECT
		id, reference, payment_link_id, state, amount, currency, provider_ref,
		payment_type, payer_email, payer_name, payer_phone, success_url,
		created_at, verification_started_at, last_verification_check,
		expires_at, processing_owner, processing_started_at, paid_at
	FROM transactions
`

// Get returns the transaction identified by its external reference.
func (m *TransactionModel) Get(ctx context.Context, sqlExec db.SQLExecuter, reference string) (*Transaction, error) {
	tx := Transaction{}
	query := baseTransactionQuery + ` WHERE reference = $1`
	if err := sqlExec.GetContext(ctx, &tx, query, reference); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("getting transaction by reference %s: %w", reference, err)
	}
	return &tx, nil
}

// GetByID returns the transaction identified by its primary key.
func (m *TransactionModel) GetByID(ctx context.Context, sqlExec db.SQLExecuter, id string) (*Transaction, error) {
	tx := Transaction{}
	query := baseTransactionQuery + ` WHERE id = $1`
	if err := sqlExec.GetContext(ctx, &tx, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("getting transaction %s: %w", id, err)
	}
	return &tx, nil
}

// TransactionInsert is the shape accepted by Create, used by the
// out-of-scope link-access flow (and by tests) to seed a PENDING row.
type TransactionInsert struct {
	Reference     string
	PaymentLinkID string
	Amount        string
	Currency      Currency
	SuccessURL    *string
	ExpiresAt     time.Time
}

// Create inserts a new PENDING transaction.
func (m *TransactionModel) Create(ctx context.Context, sqlExec db.SQLExecuter, insert TransactionInsert) (*Transaction, error) {
	if insert.Reference == "" {
		return nil, fmt.Errorf("reference is required: %w", ErrMissingInput)
	}
	if err := insert.Currency.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateAmount(insert.Amount); err != nil {
		return nil, err
	}

	tx := Transaction{}
	query := `
		INSERT INTO transactions
			(reference, payment_link_id, state, amount, currency, success_url, created_at, expires_at)
		VALUES
			($1, $2, $3, $4, $5, $6, NOW(), $7)
		RETURNING ` + baseTransactionQueryColumns()

	err := sqlExec.GetContext(ctx, &tx, query,
		insert.Reference, insert.PaymentLinkID, TxStatePending, insert.Amount,
		insert.Currency, insert.SuccessURL, insert.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("creating transaction %s: %w", insert.Reference, err)
	}
	return &tx, nil
}

func baseTransactionQueryColumns() string {
	return `
		id, reference, payment_link_id, state, amount, currency, provider_ref,
		payment_type, payer_email, payer_name, payer_phone, success_url,
		created_at, verification_started_at, last_verification_check,
		expires_at, processing_owner, processing_started_at, paid_at
	`
}

// StartVerificationParams carries the fields StartVerification patches onto
// an existing transaction.
type StartVerificationParams struct {
	ProviderTxID string
	SenderName   *string
	SenderPhone  *string
	SenderEmail  *string
	PaymentType  PaymentType
}

// StartVerification performs the one atomic update described for
// StartVerification: sets providerRef and verificationStartedAt, patches the
// payer fields, and sets paymentType only if it was previously unset. State
// stays PENDING — StartVerification marks a row as under active polling, it
// does not transition it, so every downstream CAS guard (AcquireLease,
// ConfirmPayment, ExpireTransaction, the sweep batches) still finds it on
// state=PENDING. Guarded on state=PENDING so a call against a row that has
// left PENDING updates nothing and returns ErrRecordNotFound, not a silent
// resurrection.
func (m *TransactionModel) StartVerification(ctx context.Context, sqlExec db.SQLExecuter, reference string, params StartVerificationParams) (*Transaction, error) {
	const updateQuery = `
		UPDATE transactions
		SET
			provider_ref = $2,
			verification_started_at = NOW(),
			payer_name = COALESCE($3, payer_name),
			payer_phone = COALESCE($4, payer_phone),
			payer_email = COALESCE($5, payer_email),
			payment_type = CASE WHEN payment_type = '' THEN $6 ELSE payment_type END
		WHERE reference = $1 AND state = 'PENDING'
		RETURNING ` + baseTransactionQueryColumns()

	tx := Transaction{}
	err := sqlExec.GetContext(ctx, &tx, updateQuery, reference, params.ProviderTxID,
		params.SenderName, params.SenderPhone, params.SenderEmail, params.PaymentType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("starting verification for %s: %w", reference, err)
	}
	return &tx, nil
}

// AcquireLease attempts to take ownership of a PENDING transaction for
// polling, guarded on (state=PENDING) AND (no owner OR a stale owner).
// Returns ErrLeaseNotAcquired when the CAS loses (another owner holds a
// fresh lease, or the row is no longer PENDING).
func (m *TransactionModel) AcquireLease(ctx context.Context, sqlExec db.SQLExecuter, id, ownerID string, now time.Time, staleAfter time.Duration) (*Transaction, error) {
	const query = `
		UPDATE transactions
		SET processing_owner = $2, processing_started_at = $3, last_verification_check = $3
		WHERE id = $1
		  AND state = 'PENDING'
		  AND (processing_owner IS NULL OR processing_started_at < $4)
		RETURNING ` + baseTransactionQueryColumns()

	tx := Transaction{}
	err := sqlExec.GetContext(ctx, &tx, query, id, ownerID, now, now.Add(-staleAfter))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeaseNotAcquired
		}
		return nil, fmt.Errorf("acquiring lease on transaction %s: %w", id, err)
	}
	return &tx, nil
}

// ReleaseLease clears the owner fields without changing state, used when a
// SlowSweeper row turns out not to be confirmed yet.
func (m *TransactionModel) ReleaseLease(ctx context.Context, sqlExec db.SQLExecuter, id, ownerID string) error {
	const query = `
		UPDATE transactions
		SET processing_owner = NULL, processing_started_at = NULL
		WHERE id = $1 AND processing_owner = $2
	`
	result, err := sqlExec.ExecContext(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("releasing lease on transaction %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected releasing lease on %s: %w", id, err)
	}
	if rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// UpdateLastVerificationCheck stamps lastVerificationCheck for an in-flight
// FastPoller tick. Guarded on state=PENDING so a poll tick that lands after
// the transaction moved on is silently a no-op (rows == 0, not an error).
func (m *TransactionModel) UpdateLastVerificationCheck(ctx context.Context, sqlExec db.SQLExecuter, id string, now time.Time) error {
	const query = `
		UPDATE transactions
		SET last_verification_check = $2
		WHERE id = $1 AND state = 'PENDING' AND (last_verification_check IS NULL OR last_verification_check < $2)
	`
	_, err := sqlExec.ExecContext(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("updating last verification check on %s: %w", id, err)
	}
	return nil
}

// ConfirmPayment performs the ConfirmationHandler's atomic PAID transition:
// state=PAID, paidAt=now, owner fields cleared, guarded on state=PENDING.
// Returns ErrRecordNotFound when another owner already handled it — callers
// must treat that as "exit silently", not as a hard failure.
func (m *TransactionModel) ConfirmPayment(ctx context.Context, sqlExec db.SQLExecuter, id string, now time.Time) (*Transaction, error) {
	const query = `
		UPDATE transactions
		SET state = 'PAID', paid_at = $2, processing_owner = NULL, processing_started_at = NULL
		WHERE id = $1 AND state = 'PENDING'
		RETURNING ` + baseTransactionQueryColumns()

	tx := Transaction{}
	err := sqlExec.GetContext(ctx, &tx, query, id, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("confirming payment for transaction %s: %w", id, err)
	}
	return &tx, nil
}

// ExpireTransaction performs the ExpirySweeper's atomic PAYOUT_FAILED
// transition, guarded on state=PENDING.
func (m *TransactionModel) ExpireTransaction(ctx context.Context, sqlExec db.SQLExecuter, id string) (*Transaction, error) {
	const query = `
		UPDATE transactions
		SET state = 'PAYOUT_FAILED', processing_owner = NULL, processing_started_at = NULL
		WHERE id = $1 AND state = 'PENDING'
		RETURNING ` + baseTransactionQueryColumns()

	tx := Transaction{}
	err := sqlExec.GetContext(ctx, &tx, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("expiring transaction %s: %w", id, err)
	}
	return &tx, nil
}

// ReclaimStaleLeases clears owner fields on every row whose lease is older
// than staleAfter, as part of the Start() crash-recovery sweep. Returns the
// ids reclaimed, so the caller can audit LEASE_STOLEN for each.
func (m *TransactionModel) ReclaimStaleLeases(ctx context.Context, sqlExec db.SQLExecuter, now time.Time, staleAfter time.Duration) ([]string, error) {
	const query = `
		UPDATE transactions
		SET processing_owner = NULL, processing_started_at = NULL
		WHERE processing_owner IS NOT NULL AND processing_started_at < $1
		RETURNING id
	`
	var ids []string
	if err := sqlExec.SelectContext(ctx, &ids, query, now.Add(-staleAfter)); err != nil {
		return nil, fmt.Errorf("reclaiming stale leases: %w", err)
	}
	return ids, nil
}

// ReleaseAllLeasesForOwner clears owner fields on every row currently held
// by ownerID, used by Stop() to release every lease this engine instance
// holds before it shuts down. Returns the reclaimed ids.
func (m *TransactionModel) ReleaseAllLeasesForOwner(ctx context.Context, sqlExec db.SQLExecuter, ownerID string) ([]string, error) {
	const query = `
		UPDATE transactions
		SET processing_owner = NULL, processing_started_at = NULL
		WHERE processing_owner = $1
		RETURNING id
	`
	var ids []string
	if err := sqlExec.SelectContext(ctx, &ids, query, ownerID); err != nil {
		return nil, fmt.Errorf("releasing leases for owner %s: %w", ownerID, err)
	}
	return ids, nil
}

// GetSlowSweepBatch returns up to batchSize PENDING transactions eligible for
// the SlowSweeper tick: verificationStartedAt older than fastPollCutoff (the
// buffered window past FastPoller's own window), not polled within
// checkCutoff, not expired, and lease-free. Ordered oldest
// verificationStartedAt first for FIFO fairness, locked FOR UPDATE SKIP
// LOCKED so concurrent engine instances never double-pick a row.
func (m *TransactionModel) GetSlowSweepBatch(ctx context.Context, sqlExec db.SQLExecuter, now time.Time, fastPollCutoff, checkCutoff time.Time, staleLeaseCutoff time.Time, batchSize int) ([]*Transaction, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be greater than 0")
	}

	query := baseTransactionQuery + `
		WHERE state = 'PENDING'
		  AND expires_at > $1
		  AND verification_started_at < $2
		  AND (last_verification_check < $3 OR last_verification_check IS NULL)
		  AND (processing_owner IS NULL OR processing_started_at < $4)
		ORDER BY verification_started_at ASC
		LIMIT $5
		FOR UPDATE SKIP LOCKED
	`
	var txs []*Transaction
	err := sqlExec.SelectContext(ctx, &txs, query, now, fastPollCutoff, checkCutoff, staleLeaseCutoff, batchSize)
	if err != nil {
		return nil, fmt.Errorf("getting slow sweep batch: %w", err)
	}
	return txs, nil
}

// GetExpiredBatch returns up to batchSize PENDING transactions whose
// expiresAt deadline has passed, for the ExpirySweeper.
func (m *TransactionModel) GetExpiredBatch(ctx context.Context, sqlExec db.SQLExecuter, now time.Time, batchSize int) ([]*Transaction, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be greater than 0")
	}

	query := baseTransactionQuery + `
		WHERE state = 'PENDING' AND expires_at <= $1
		ORDER BY expires_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`
	var txs []*Transaction
	if err := sqlExec.SelectContext(ctx, &txs, query, now, batchSize); err != nil {
		return nil, fmt.Errorf("getting expired batch: %w", err)
	}
	return txs, nil
}

// ErrLeaseNotAcquired is returned by AcquireLease when the CAS loses: the row
// is no longer PENDING, or another owner holds a fresh (non-stale) lease.
// This is normal control flow (§7 "Transient store"), never logged as an
// error by callers.
var ErrLeaseNotAcquired = errors.New("lease not acquired")
