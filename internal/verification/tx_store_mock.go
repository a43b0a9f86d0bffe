package verification

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ramp-payments/verification-engine/internal/data"
)

// MockTxStore is a hand-authored mockery v2.27.1-style mock for TxStore.
type MockTxStore struct {
	mock.Mock
}

var _ TxStore = (*MockTxStore)(nil)

func (m *MockTxStore) Get(ctx context.Context, reference string) (*data.Transaction, error) {
	args := m.Called(ctx, reference)
	tx, _ := args.Get(0).(*data.Transaction)
	return tx, args.Error(1)
}

func (m *MockTxStore) StartVerification(ctx context.Context, reference string, params data.StartVerificationParams) (*data.Transaction, error) {
	args := m.Called(ctx, reference, params)
	tx, _ := args.Get(0).(*data.Transaction)
	return tx, args.Error(1)
}

func (m *MockTxStore) AcquireLease(ctx context.Context, id, ownerID string, now time.Time, staleAfter time.Duration) (*data.Transaction, error) {
	args := m.Called(ctx, id, ownerID, now, staleAfter)
	tx, _ := args.Get(0).(*data.Transaction)
	return tx, args.Error(1)
}

func (m *MockTxStore) ReleaseLease(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *MockTxStore) UpdateLastVerificationCheck(ctx context.Context, id string, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

func (m *MockTxStore) ConfirmPayment(ctx context.Context, id string, now time.Time) (*data.Transaction, error) {
	args := m.Called(ctx, id, now)
	tx, _ := args.Get(0).(*data.Transaction)
	return tx, args.Error(1)
}

func (m *MockTxStore) ExpireTransaction(ctx context.Context, id string) (*data.Transaction, error) {
	args := m.Called(ctx, id)
	tx, _ := args.Get(0).(*data.Transaction)
	return tx, args.Error(1)
}

func (m *MockTxStore) ReclaimStaleLeases(ctx context.Context, now time.Time, staleAfter time.Duration) ([]string, error) {
	args := m.Called(ctx, now, staleAfter)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockTxStore) ReleaseAllLeasesForOwner(ctx context.Context, ownerID string) ([]string, error) {
	args := m.Called(ctx, ownerID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockTxStore) GetSlowSweepBatch(ctx context.Context, now, fastPollCutoff, checkCutoff, staleLeaseCutoff time.Time, batchSize int) ([]*data.Transaction, error) {
	args := m.Called(ctx, now, fastPollCutoff, checkCutoff, staleLeaseCutoff, batchSize)
	txs, _ := args.Get(0).([]*data.Transaction)
	return txs, args.Error(1)
}

func (m *MockTxStore) GetExpiredBatch(ctx context.Context, now time.Time, batchSize int) ([]*data.Transaction, error) {
	args := m.Called(ctx, now, batchSize)
	txs, _ := args.Get(0).([]*data.Transaction)
	return txs, args.Error(1)
}

type mockConstructorTestingTNewMockTxStore interface {
	mock.TestingT
	Cleanup(func())
}

// NewMockTxStore creates a new MockTxStore and registers a cleanup function
// to assert the mock's expectations.
func NewMockTxStore(t mockConstructorTestingTNewMockTxStore) *MockTxStore {
	m := &MockTxStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
