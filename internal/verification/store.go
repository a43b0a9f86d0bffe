package verification

import (
	"context"
	"time"

	"github.com/ramp-payments/verification-engine/internal/data"
)

// TxStore is the engine's view of transaction persistence: every
// compare-and-swap mutation path named in the component design, with the
// store's own connection pool already bound so engine code never threads a
// db.SQLExecuter through the call sites.
//
//go:generate mockery --name=TxStore --case=underscore --structname=MockTxStore --filename=tx_store_mock.go --inpackage
type TxStore interface {
	Get(ctx context.Context, reference string) (*data.Transaction, error)
	StartVerification(ctx context.Context, reference string, params data.StartVerificationParams) (*data.Transaction, error)
	AcquireLease(ctx context.Context, id, ownerID string, now time.Time, staleAfter time.Duration) (*data.Transaction, error)
	ReleaseLease(ctx context.Context, id, ownerID string) error
	UpdateLastVerificationCheck(ctx context.Context, id string, now time.Time) error
	ConfirmPayment(ctx context.Context, id string, now time.Time) (*data.Transaction, error)
	ExpireTransaction(ctx context.Context, id string) (*data.Transaction, error)
	ReclaimStaleLeases(ctx context.Context, now time.Time, staleAfter time.Duration) ([]string, error)
	ReleaseAllLeasesForOwner(ctx context.Context, ownerID string) ([]string, error)
	GetSlowSweepBatch(ctx context.Context, now, fastPollCutoff, checkCutoff, staleLeaseCutoff time.Time, batchSize int) ([]*data.Transaction, error)
	GetExpiredBatch(ctx context.Context, now time.Time, batchSize int) ([]*data.Transaction, error)
}

// AuditLog is the engine's view of the append-only audit trail.
//
//go:generate mockery --name=AuditLog --case=underscore --structname=MockAuditLog --filename=audit_log_mock.go --inpackage
type AuditLog interface {
	Insert(ctx context.Context, entityID string, action data.AuditAction, changes, metadata interface{}, correlationID string) error
}

// modelsTxStore adapts *data.Models onto TxStore by binding its
// DBConnectionPool as the db.SQLExecuter every TransactionModel method
// expects.
type modelsTxStore struct {
	models *data.Models
}

var _ TxStore = (*modelsTxStore)(nil)

func newModelsTxStore(models *data.Models) *modelsTxStore {
	return &modelsTxStore{models: models}
}

func (s *modelsTxStore) Get(ctx context.Context, reference string) (*data.Transaction, error) {
	return s.models.Transactions.Get(ctx, s.models.DBConnectionPool, reference)
}

func (s *modelsTxStore) StartVerification(ctx context.Context, reference string, params data.StartVerificationParams) (*data.Transaction, error) {
	return s.models.Transactions.StartVerification(ctx, s.models.DBConnectionPool, reference, params)
}

func (s *modelsTxStore) AcquireLease(ctx context.Context, id, ownerID string, now time.Time, staleAfter time.Duration) (*data.Transaction, error) {
	return s.models.Transactions.AcquireLease(ctx, s.models.DBConnectionPool, id, ownerID, now, staleAfter)
}

func (s *modelsTxStore) ReleaseLease(ctx context.Context, id, ownerID string) error {
	return s.models.Transactions.ReleaseLease(ctx, s.models.DBConnectionPool, id, ownerID)
}

func (s *modelsTxStore) UpdateLastVerificationCheck(ctx context.Context, id string, now time.Time) error {
	return s.models.Transactions.UpdateLastVerificationCheck(ctx, s.models.DBConnectionPool, id, now)
}

func (s *modelsTxStore) ConfirmPayment(ctx context.Context, id string, now time.Time) (*data.Transaction, error) {
	return s.models.Transactions.ConfirmPayment(ctx, s.models.DBConnectionPool, id, now)
}

func (s *modelsTxStore) ExpireTransaction(ctx context.Context, id string) (*data.Transaction, error) {
	return s.models.Transactions.ExpireTransaction(ctx, s.models.DBConnectionPool, id)
}

func (s *modelsTxStore) ReclaimStaleLeases(ctx context.Context, now time.Time, staleAfter time.Duration) ([]string, error) {
	return s.models.Transactions.ReclaimStaleLeases(ctx, s.models.DBConnectionPool, now, staleAfter)
}

func (s *modelsTxStore) ReleaseAllLeasesForOwner(ctx context.Context, ownerID string) ([]string, error) {
	return s.models.Transactions.ReleaseAllLeasesForOwner(ctx, s.models.DBConnectionPool, ownerID)
}

func (s *modelsTxStore) GetSlowSweepBatch(ctx context.Context, now, fastPollCutoff, checkCutoff, staleLeaseCutoff time.Time, batchSize int) ([]*data.Transaction, error) {
	return s.models.Transactions.GetSlowSweepBatch(ctx, s.models.DBConnectionPool, now, fastPollCutoff, checkCutoff, staleLeaseCutoff, batchSize)
}

func (s *modelsTxStore) GetExpiredBatch(ctx context.Context, now time.Time, batchSize int) ([]*data.Transaction, error) {
	return s.models.Transactions.GetExpiredBatch(ctx, s.models.DBConnectionPool, now, batchSize)
}

// modelsAuditLog adapts *data.Models onto AuditLog.
type modelsAuditLog struct {
	models *data.Models
}

var _ AuditLog = (*modelsAuditLog)(nil)

func newModelsAuditLog(models *data.Models) *modelsAuditLog {
	return &modelsAuditLog{models: models}
}

func (a *modelsAuditLog) Insert(ctx context.Context, entityID string, action data.AuditAction, changes, metadata interface{}, correlationID string) error {
	return a.models.AuditEvents.Insert(ctx, a.models.DBConnectionPool, entityID, action, changes, metadata, correlationID)
}
