package provider

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ramp-payments/verification-engine/internal/data"
)

// MockClient is a hand-authored mockery v2.27.1-style mock for
// ClientInterface.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) QueryClearance(ctx context.Context, tx *data.Transaction) (ClearanceResult, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(ClearanceResult), args.Error(1)
}

var _ ClientInterface = (*MockClient)(nil)

type mockConstructorTestingTNewMockClient interface {
	mock.TestingT
	Cleanup(func())
}

// NewMockClient creates a new MockClient and registers a cleanup function to
// assert the mock's expectations.
func NewMockClient(t mockConstructorTestingTNewMockClient) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
