package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_WebhookSender_Send(t *testing.T) {
	t.Run("2xx is success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "verification-engine-Webhook/1.0", r.Header.Get("User-Agent"))
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		sender := NewWebhookSender(time.Second, "verification-engine")
		err := sender.Send(context.Background(), srv.URL, WebhookPayload{Event: "payment.confirmed"})
		require.NoError(t, err)
	})

	t.Run("non-2xx is a WebhookStatusError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("boom"))
		}))
		defer srv.Close()

		sender := NewWebhookSender(time.Second, "verification-engine")
		err := sender.Send(context.Background(), srv.URL, WebhookPayload{Event: "payment.confirmed"})
		require.Error(t, err)

		var statusErr *WebhookStatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	})

	t.Run("no retries on failure", func(t *testing.T) {
		attempts := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts++
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		sender := NewWebhookSender(time.Second, "verification-engine")
		_ = sender.Send(context.Background(), srv.URL, WebhookPayload{})
		assert.Equal(t, 1, attempts)
	})
}
