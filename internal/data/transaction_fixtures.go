package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ramp-payments/verification-engine/db"
)

// CreateTransactionFixture inserts a PENDING transaction with sane defaults,
// overridable via opts, returning the persisted row.
func CreateTransactionFixture(t *testing.T, ctx context.Context, sqlExec db.SQLExecuter, opts ...func(*TransactionInsert)) *Transaction {
	insert := TransactionInsert{
		Reference:     "ref-" + randomSuffix(),
		PaymentLinkID: "link-" + randomSuffix(),
		Amount:        "100.00",
		Currency:      CurrencyUSD,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&insert)
	}

	m := &TransactionModel{}
	tx, err := m.Create(ctx, sqlExec, insert)
	require.NoError(t, err)
	return tx
}

func randomSuffix() string {
	return time.Now().Format("150405.000000000")
}
