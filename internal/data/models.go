package data

import (
	"errors"

	"github.com/ramp-payments/verification-engine/db"
)

var (
	ErrRecordNotFound          = errors.New("record not found")
	ErrRecordAlreadyExists     = errors.New("record already exists")
	ErrMismatchNumRowsAffected = errors.New("mismatch number of rows affected")
	ErrMissingInput            = errors.New("missing input")
)

// Models bundles every persistence-layer model the engine depends on.
type Models struct {
	Transactions     *TransactionModel
	AuditEvents      *AuditEventModel
	DBConnectionPool db.DBConnectionPool
}

func NewModels(dbConnectionPool db.DBConnectionPool) (*Models, error) {
	if dbConnectionPool == nil {
		return nil, errors.New("dbConnectionPool is required for NewModels")
	}
	return &Models{
		Transactions:     &TransactionModel{dbConnectionPool: dbConnectionPool},
		AuditEvents:      &AuditEventModel{dbConnectionPool: dbConnectionPool},
		DBConnectionPool: dbConnectionPool,
	}, nil
}
