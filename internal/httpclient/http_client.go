package httpclient

import (
	"net/http"
	"net/url"
	"time"
)

// HTTPClientInterface is the minimal surface the engine needs from an HTTP
// client, narrow enough that a plain *http.Client, a retrying wrapper, or a
// test double can all satisfy it.
//
//go:generate mockery --name=HTTPClientInterface --case=underscore --structname=MockHTTPClient --filename=http_client_mock.go --inpackage
type HTTPClientInterface interface {
	Do(*http.Request) (*http.Response, error)
	Get(url string) (resp *http.Response, err error)
	PostForm(url string, data url.Values) (resp *http.Response, err error)
}

const TimeoutClientInSeconds = 40

// DefaultClient returns a default HTTP client with a generous timeout; call
// sites that need a tighter bound (provider queries, webhook POSTs) carry
// their own context deadline instead of relying on this default.
func DefaultClient() HTTPClientInterface {
	return &http.Client{Timeout: TimeoutClientInSeconds * time.Second}
}

var _ HTTPClientInterface = DefaultClient()
