package notify

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ramp-payments/verification-engine/internal/data"
)

// MockNotifySink is a hand-authored mockery v2.27.1-style mock for
// NotifySink.
type MockNotifySink struct {
	mock.Mock
}

func (m *MockNotifySink) Email(ctx context.Context, kind EmailKind, tx *data.Transaction) error {
	args := m.Called(ctx, kind, tx)
	return args.Error(0)
}

func (m *MockNotifySink) Webhook(ctx context.Context, url string, payload WebhookPayload) error {
	args := m.Called(ctx, url, payload)
	return args.Error(0)
}

var _ NotifySink = (*MockNotifySink)(nil)

type mockConstructorTestingTNewMockNotifySink interface {
	mock.TestingT
	Cleanup(func())
}

// NewMockNotifySink creates a new MockNotifySink and registers a cleanup
// function to assert the mock's expectations.
func NewMockNotifySink(t mockConstructorTestingTNewMockNotifySink) *MockNotifySink {
	m := &MockNotifySink{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
