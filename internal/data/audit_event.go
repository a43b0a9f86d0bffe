package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ramp-payments/verification-engine/db"
)

// AuditAction enumerates the engine events recorded in the append-only
// audit log.
type AuditAction string

const (
	ActionVerificationStarted     AuditAction = "VERIFICATION_STARTED"
	ActionProviderQueryOK         AuditAction = "PROVIDER_QUERY_OK"
	ActionProviderQueryFail       AuditAction = "PROVIDER_QUERY_FAIL"
	ActionPaymentConfirmed        AuditAction = "PAYMENT_CONFIRMED"
	ActionTransactionExpired      AuditAction = "TRANSACTION_EXPIRED"
	ActionWebhookSent             AuditAction = "WEBHOOK_SENT"
	ActionWebhookFailed           AuditAction = "WEBHOOK_FAILED"
	ActionEmailSent               AuditAction = "EMAIL_SENT"
	ActionEmailFailed             AuditAction = "EMAIL_FAILED"
	ActionLeaseAcquired           AuditAction = "LEASE_ACQUIRED"
	ActionLeaseReleased           AuditAction = "LEASE_RELEASED"
	ActionLeaseStolen             AuditAction = "LEASE_STOLEN"
	ActionStateTransition         AuditAction = "STATE_TRANSITION"
	ActionStateTransitionRejected AuditAction = "STATE_TRANSITION_REJECTED"
)

// EntityType names what kind of row an AuditEvent is about. The engine only
// ever audits transactions, but the column is free-form so future entities
// can share the log.
const EntityTypeTransaction = "transaction"

// AuditEvent is an append-only record of an engine event.
type AuditEvent struct {
	ID            int64           `db:"id"`
	EntityType    string          `db:"entity_type"`
	EntityID      string          `db:"entity_id"`
	Action        AuditAction     `db:"action"`
	Changes       json.RawMessage `db:"changes"`
	Metadata      json.RawMessage `db:"metadata"`
	Timestamp     time.Time       `db:"timestamp"`
	CorrelationID string          `db:"correlation_id"`
}

// AuditEventModel persists AuditEvent rows.
type AuditEventModel struct {
	dbConnectionPool db.DBConnectionPool
}

// Insert appends a new audit event. changes and metadata, when non-nil, are
// marshaled to JSON; pass nil for either when there is nothing to record.
func (m *AuditEventModel) Insert(ctx context.Context, sqlExec db.SQLExecuter, entityID string, action AuditAction, changes, metadata interface{}, correlationID string) error {
	changesJSON, err := marshalAuditField(changes)
	if err != nil {
		return fmt.Errorf("marshaling audit changes: %w", err)
	}
	metadataJSON, err := marshalAuditField(metadata)
	if err != nil {
		return fmt.Errorf("marshaling audit metadata: %w", err)
	}

	const query = `
		INSERT INTO audit_events
			(entity_type, entity_id, action, changes, metadata, timestamp, correlation_id)
		VALUES
			($1, $2, $3, $4, $5, NOW(), $6)
	`
	_, err = sqlExec.ExecContext(ctx, query, EntityTypeTransaction, entityID, action, changesJSON, metadataJSON, correlationID)
	if err != nil {
		return fmt.Errorf("inserting audit event for entity %s action %s: %w", entityID, action, err)
	}
	return nil
}

// GetByEntityID returns every audit event for entityID, oldest first.
func (m *AuditEventModel) GetByEntityID(ctx context.Context, sqlExec db.SQLExecuter, entityID string) ([]AuditEvent, error) {
	const query = `
		SELECT id, entity_type, entity_id, action, changes, metadata, timestamp, correlation_id
		FROM audit_events
		WHERE entity_id = $1
		ORDER BY timestamp ASC
	`
	events := make([]AuditEvent, 0)
	if err := sqlExec.SelectContext(ctx, &events, query, entityID); err != nil {
		return nil, fmt.Errorf("getting audit events for entity %s: %w", entityID, err)
	}
	return events, nil
}

func marshalAuditField(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage("null"), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
