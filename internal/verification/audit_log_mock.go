package verification

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ramp-payments/verification-engine/internal/data"
)

// MockAuditLog is a hand-authored mockery v2.27.1-style mock for AuditLog.
type MockAuditLog struct {
	mock.Mock
}

var _ AuditLog = (*MockAuditLog)(nil)

func (m *MockAuditLog) Insert(ctx context.Context, entityID string, action data.AuditAction, changes, metadata interface{}, correlationID string) error {
	args := m.Called(ctx, entityID, action, changes, metadata, correlationID)
	return args.Error(0)
}

type mockConstructorTestingTNewMockAuditLog interface {
	mock.TestingT
	Cleanup(func())
}

// NewMockAuditLog creates a new MockAuditLog and registers a cleanup
// function to assert the mock's expectations.
func NewMockAuditLog(t mockConstructorTestingTNewMockAuditLog) *MockAuditLog {
	m := &MockAuditLog{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
