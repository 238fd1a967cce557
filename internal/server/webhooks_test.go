package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/marketpay/internal/metrics"
	"github.com/smallbiznis/marketpay/internal/notify"
	"github.com/smallbiznis/marketpay/internal/webhook"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test"

func signPayload(payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func newWebhookTestServer(t *testing.T, register func(*webhook.Router)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := webhook.NewRouter(zap.NewNop(), metrics.New(), notify.NoOpSink{})
	if register != nil {
		register(router)
	}
	s := &Server{
		log:      zap.NewNop(),
		verifier: webhook.NewVerifier(testWebhookSecret, 5*time.Minute),
		router:   router,
		metrics:  metrics.New(),
	}

	r := gin.New()
	r.POST("/webhooks/stripe", s.HandleProcessorWebhook)
	return r
}

func postWebhook(r *gin.Engine, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookEndpointAcknowledgesUnknownType(t *testing.T) {
	r := newWebhookTestServer(t, nil)
	payload := []byte(`{"id":"evt_1","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`)

	w := postWebhook(r, payload, signPayload(payload))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for unhandled event type, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"received":true`) {
		t.Fatalf("expected acknowledgment body, got %s", w.Body.String())
	}
}

func TestWebhookEndpointRejectsBadSignature(t *testing.T) {
	r := newWebhookTestServer(t, nil)
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)

	w := postWebhook(r, payload, "t=1,v1=deadbeef")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad signature, got %d", w.Code)
	}
}

func TestWebhookEndpointRejectsMissingSignature(t *testing.T) {
	r := newWebhookTestServer(t, nil)

	w := postWebhook(r, []byte(`{}`), "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a missing signature, got %d", w.Code)
	}
}

func TestWebhookEndpointAsksForRedelivery(t *testing.T) {
	r := newWebhookTestServer(t, func(router *webhook.Router) {
		router.Handle("payment_intent.succeeded", func(ctx context.Context, event *webhook.Event) error {
			return errors.New("transient failure")
		})
	})
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)

	w := postWebhook(r, payload, signPayload(payload))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when the handler fails, got %d", w.Code)
	}
}

func TestWebhookEndpointProcessesRegisteredType(t *testing.T) {
	handled := 0
	r := newWebhookTestServer(t, func(router *webhook.Router) {
		router.Handle("payment_intent.succeeded", func(ctx context.Context, event *webhook.Event) error {
			handled++
			return nil
		})
	})
	payload := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`)

	w := postWebhook(r, payload, signPayload(payload))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if handled != 1 {
		t.Fatalf("expected the handler to run once, got %d", handled)
	}
}
