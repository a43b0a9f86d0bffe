package httpclient

import (
	"net/http"
	"net/url"

	"github.com/stretchr/testify/mock"
)

// MockHTTPClient is a hand-authored mockery v2.27.1-style mock for
// HTTPClientInterface.
type MockHTTPClient struct {
	mock.Mock
}

func (h *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := h.Called(req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

func (h *MockHTTPClient) Get(u string) (*http.Response, error) {
	args := h.Called(u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

func (h *MockHTTPClient) PostForm(u string, data url.Values) (*http.Response, error) {
	args := h.Called(u, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*http.Response), args.Error(1)
}

var _ HTTPClientInterface = (*MockHTTPClient)(nil)

type mockConstructorTestingTNewMockHTTPClient interface {
	mock.TestingT
	Cleanup(func())
}

// NewMockHTTPClient creates a new MockHTTPClient and registers a cleanup
// function to assert the mock's expectations.
func NewMockHTTPClient(t mockConstructorTestingTNewMockHTTPClient) *MockHTTPClient {
	m := &MockHTTPClient{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
