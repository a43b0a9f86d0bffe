package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramp-payments/verification-engine/db"
	"github.com/ramp-payments/verification-engine/db/dbtest"
)

func Test_TransactionModel_Get(t *testing.T) {
	dbt := dbtest.Open(t)
	defer dbt.Close()

	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()
	m := TransactionModel{}

	t.Run("returns ErrRecordNotFound for an unknown reference", func(t *testing.T) {
		_, err := m.Get(ctx, dbConnectionPool, "does-not-exist")
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})

	t.Run("returns the transaction by reference", func(t *testing.T) {
		tx := CreateTransactionFixture(t, ctx, dbConnectionPool, func(ti *TransactionInsert) {
			ti.Reference = "ref-get-1"
		})

		got, err := m.Get(ctx, dbConnectionPool, tx.Reference)
		require.NoError(t, err)
		assert.Equal(t, tx.ID, got.ID)
		assert.Equal(t, TxStatePending, got.State)
	})
}

func Test_TransactionModel_StartVerification(t *testing.T) {
	dbt := dbtest.Open(t)
	defer dbt.Close()

	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()
	m := TransactionModel{}

	email := "payer@example.com"
	name := "Ada Lovelace"

	t.Run("stamps providerRef/verificationStartedAt and patches payer fields without changing state", func(t *testing.T) {
		tx := CreateTransactionFixture(t, ctx, dbConnectionPool)

		got, err := m.StartVerification(ctx, dbConnectionPool, tx.Reference, StartVerificationParams{
			ProviderTxID: "provider-123",
			SenderEmail:  &email,
			SenderName:   &name,
			PaymentType:  PaymentTypeCard,
		})
		require.NoError(t, err)
		assert.Equal(t, TxStatePending, got.State)
		assert.Equal(t, "provider-123", got.ProviderRef.String)
		assert.Equal(t, email, got.PayerEmail.String)
		assert.Equal(t, PaymentTypeCard, got.PaymentType)
		assert.True(t, got.VerificationStartedAt.Valid)
	})

	t.Run("is idempotent while still PENDING", func(t *testing.T) {
		tx := CreateTransactionFixture(t, ctx, dbConnectionPool)

		_, err := m.StartVerification(ctx, dbConnectionPool, tx.Reference, StartVerificationParams{ProviderTxID: "p1"})
		require.NoError(t, err)

		got, err := m.StartVerification(ctx, dbConnectionPool, tx.Reference, StartVerificationParams{ProviderTxID: "p2"})
		require.NoError(t, err)
		assert.Equal(t, TxStatePending, got.State)
		assert.Equal(t, "p2", got.ProviderRef.String)
	})

	t.Run("returns ErrRecordNotFound once the transaction left PENDING", func(t *testing.T) {
		tx := CreateTransactionFixture(t, ctx, dbConnectionPool)
		_, err := m.StartVerification(ctx, dbConnectionPool, tx.Reference, StartVerificationParams{ProviderTxID: "p1"})
		require.NoError(t, err)

		_, err = m.ConfirmPayment(ctx, dbConnectionPool, tx.ID, time.Now())
		require.NoError(t, err)

		_, err = m.StartVerification(ctx, dbConnectionPool, tx.Reference, StartVerificationParams{ProviderTxID: "p3"})
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})
}

func Test_TransactionModel_AcquireLease(t *testing.T) {
	dbt := dbtest.Open(t)
	defer dbt.Close()

	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()
	m := TransactionModel{}
	now := time.Now()

	t.Run("second owner fails the CAS while the first lease is fresh", func(t *testing.T) {
		tx := CreateTransactionFixture(t, ctx, dbConnectionPool)

		_, err := m.AcquireLease(ctx, dbConnectionPool, tx.ID, "owner-a", now, time.Minute)
		require.NoError(t, err)

		_, err = m.AcquireLease(ctx, dbConnectionPool, tx.ID, "owner-b", now, time.Minute)
		assert.ErrorIs(t, err, ErrLeaseNotAcquired)
	})

	t.Run("a stale lease can be stolen", func(t *testing.T) {
		tx := CreateTransactionFixture(t, ctx, dbConnectionPool)

		_, err := m.AcquireLease(ctx, dbConnectionPool, tx.ID, "owner-a", now.Add(-2*time.Minute), time.Minute)
		require.NoError(t, err)

		got, err := m.AcquireLease(ctx, dbConnectionPool, tx.ID, "owner-b", now, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, "owner-b", got.ProcessingOwner.String)
	})
}

func Test_TransactionModel_ConfirmPayment(t *testing.T) {
	dbt := dbtest.Open(t)
	defer dbt.Close()

	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()
	m := TransactionModel{}
	now := time.Now()

	t.Run("transitions PENDING to PAID exactly once", func(t *testing.T) {
		tx := CreateTransactionFixture(t, ctx, dbConnectionPool)

		got, err := m.ConfirmPayment(ctx, dbConnectionPool, tx.ID, now)
		require.NoError(t, err)
		assert.Equal(t, TxStatePaid, got.State)
		assert.True(t, got.PaidAt.Valid)
		assert.False(t, got.ProcessingOwner.Valid)

		_, err = m.ConfirmPayment(ctx, dbConnectionPool, tx.ID, now)
		assert.ErrorIs(t, err, ErrRecordNotFound)
	})
}

func Test_TransactionModel_ExpireTransaction(t *testing.T) {
	dbt := dbtest.Open(t)
	defer dbt.Close()

	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()
	m := TransactionModel{}

	t.Run("transitions PENDING to PAYOUT_FAILED", func(t *testing.T) {
		tx := CreateTransactionFixture(t, ctx, dbConnectionPool, func(ti *TransactionInsert) {
			ti.ExpiresAt = time.Now().Add(-time.Hour)
		})

		got, err := m.ExpireTransaction(ctx, dbConnectionPool, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, TxStatePayoutFailed, got.State)
	})
}

func Test_TransactionModel_ReclaimStaleLeases(t *testing.T) {
	dbt := dbtest.Open(t)
	defer dbt.Close()

	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()
	m := TransactionModel{}
	now := time.Now()

	tx := CreateTransactionFixture(t, ctx, dbConnectionPool)
	_, err = m.AcquireLease(ctx, dbConnectionPool, tx.ID, "owner-a", now.Add(-2*time.Minute), time.Minute)
	require.NoError(t, err)

	ids, err := m.ReclaimStaleLeases(ctx, dbConnectionPool, now, time.Minute)
	require.NoError(t, err)
	assert.Contains(t, ids, tx.ID)

	got, err := m.GetByID(ctx, dbConnectionPool, tx.ID)
	require.NoError(t, err)
	assert.False(t, got.ProcessingOwner.Valid)
}

func Test_TransactionModel_GetSlowSweepBatch(t *testing.T) {
	dbt := dbtest.Open(t)
	defer dbt.Close()

	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()
	m := TransactionModel{}
	now := time.Now()

	tx := CreateTransactionFixture(t, ctx, dbConnectionPool)
	_, err = m.StartVerification(ctx, dbConnectionPool, tx.Reference, StartVerificationParams{ProviderTxID: "p1"})
	require.NoError(t, err)

	// Simulate a verificationStartedAt old enough to clear the 16-minute buffer.
	_, err = dbConnectionPool.ExecContext(ctx, `UPDATE transactions SET verification_started_at = $1 WHERE id = $2`, now.Add(-20*time.Minute), tx.ID)
	require.NoError(t, err)

	batch, err := m.GetSlowSweepBatch(ctx, dbConnectionPool, now, now.Add(-16*time.Minute), now.Add(-5*time.Minute), now.Add(-time.Minute), 100)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, tx.ID, batch[0].ID)
}

func Test_TransactionModel_GetExpiredBatch(t *testing.T) {
	dbt := dbtest.Open(t)
	defer dbt.Close()

	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()
	m := TransactionModel{}
	now := time.Now()

	t.Run("includes a transaction whose expiresAt is exactly now", func(t *testing.T) {
		tx := CreateTransactionFixture(t, ctx, dbConnectionPool, func(ti *TransactionInsert) {
			ti.ExpiresAt = now
		})

		batch, err := m.GetExpiredBatch(ctx, dbConnectionPool, now, 100)
		require.NoError(t, err)
		ids := make([]string, 0, len(batch))
		for _, b := range batch {
			ids = append(ids, b.ID)
		}
		assert.Contains(t, ids, tx.ID)
	})

	t.Run("excludes a transaction that has not yet expired", func(t *testing.T) {
		tx := CreateTransactionFixture(t, ctx, dbConnectionPool, func(ti *TransactionInsert) {
			ti.ExpiresAt = now.Add(time.Hour)
		})

		batch, err := m.GetExpiredBatch(ctx, dbConnectionPool, now, 100)
		require.NoError(t, err)
		for _, b := range batch {
			assert.NotEqual(t, tx.ID, b.ID)
		}
	})

	t.Run("excludes a transaction that is not PENDING", func(t *testing.T) {
		tx := CreateTransactionFixture(t, ctx, dbConnectionPool, func(ti *TransactionInsert) {
			ti.ExpiresAt = now
		})
		_, err := m.ConfirmPayment(ctx, dbConnectionPool, tx.ID, now)
		require.NoError(t, err)

		batch, err := m.GetExpiredBatch(ctx, dbConnectionPool, now, 100)
		require.NoError(t, err)
		for _, b := range batch {
			assert.NotEqual(t, tx.ID, b.ID)
		}
	})

	t.Run("rejects a non-positive batch size", func(t *testing.T) {
		_, err := m.GetExpiredBatch(ctx, dbConnectionPool, now, 0)
		assert.Error(t, err)
	})
}
