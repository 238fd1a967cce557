package processor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(srv *httptest.Server) *stripeClient {
	return &stripeClient{
		apiKey:  "sk_test",
		baseURL: srv.URL,
		client:  &http.Client{Timeout: 2 * time.Second},
	}
}

func TestCreatePaymentIntentRequestShape(t *testing.T) {
	var gotAuth, gotIdempotency string
	var gotForm map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotIdempotency = r.Header.Get("Idempotency-Key")
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret","status":"requires_payment_method","amount":2500,"currency":"usd"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv)
	intent, err := client.CreatePaymentIntent(context.Background(), CreatePaymentIntentParams{
		Amount:             2500,
		Currency:           "USD",
		Customer:           "cus_1",
		DestinationAccount: "acct_1",
		ApplicationFee:     62,
		Metadata:           map[string]string{"transaction_id": "42"},
	})
	if err != nil {
		t.Fatalf("create payment intent: %v", err)
	}
	if intent.ID != "pi_1" || intent.ClientSecret != "pi_1_secret" {
		t.Fatalf("unexpected intent %+v", intent)
	}

	if gotAuth != "Bearer sk_test" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotIdempotency != "txn:42" {
		t.Fatalf("expected idempotency key txn:42, got %q", gotIdempotency)
	}
	expect := map[string]string{
		"amount":                     "2500",
		"currency":                   "usd",
		"customer":                   "cus_1",
		"transfer_data[destination]": "acct_1",
		"application_fee_amount":     "62",
		"metadata[transaction_id]":   "42",
	}
	for key, want := range expect {
		if got := gotForm[key]; len(got) != 1 || got[0] != want {
			t.Fatalf("expected form %s=%s, got %v", key, want, got)
		}
	}
}

func TestGetSubscriptionParsesItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/subscriptions/sub_1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "sub_1",
			"status": "active",
			"customer": "cus_1",
			"current_period_end": 1770000000,
			"items": {"data": [{"price": {"id": "price_premium"}}]}
		}`))
	}))
	defer srv.Close()

	sub, err := newTestClient(srv).GetSubscription(context.Background(), "sub_1")
	if err != nil {
		t.Fatalf("get subscription: %v", err)
	}
	if sub.PriceID != "price_premium" {
		t.Fatalf("expected price_premium, got %s", sub.PriceID)
	}
	if sub.CustomerID != "cus_1" || sub.Status != "active" {
		t.Fatalf("unexpected subscription %+v", sub)
	}
	if sub.CurrentPeriodEnd != 1770000000 {
		t.Fatalf("expected period end 1770000000, got %d", sub.CurrentPeriodEnd)
	}
}

func TestErrorEnvelopeMapsResourceMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"resource_missing","message":"No such subscription: sub_gone"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).GetSubscription(context.Background(), "sub_gone")
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !errors.Is(err, ErrResourceMissing) {
		t.Fatalf("expected ErrResourceMissing, got %v", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message == "" {
		t.Fatalf("expected upstream detail preserved, got %+v", apiErr)
	}
}

func TestUnconfiguredClient(t *testing.T) {
	client := &stripeClient{baseURL: "http://unused.invalid"}
	if _, err := client.GetSubscription(context.Background(), "sub_1"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
