package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramp-payments/verification-engine/db"
	"github.com/ramp-payments/verification-engine/db/dbtest"
)

func Test_AuditEventModel_InsertAndGetByEntityID(t *testing.T) {
	dbt := dbtest.Open(t)
	defer dbt.Close()

	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	ctx := context.Background()
	auditModel := AuditEventModel{}

	tx := CreateTransactionFixture(t, ctx, dbConnectionPool)

	err = auditModel.Insert(ctx, dbConnectionPool, tx.ID, ActionVerificationStarted, nil, map[string]string{"providerRef": "p1"}, "corr-1")
	require.NoError(t, err)

	err = auditModel.Insert(ctx, dbConnectionPool, tx.ID, ActionPaymentConfirmed, nil, nil, "corr-1")
	require.NoError(t, err)

	events, err := auditModel.GetByEntityID(ctx, dbConnectionPool, tx.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ActionVerificationStarted, events[0].Action)
	assert.Equal(t, ActionPaymentConfirmed, events[1].Action)
	assert.Equal(t, "corr-1", events[0].CorrelationID)
}
