package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"
)

func buildSignatureHeader(secret string, payload []byte, timestamp int64) string {
	signedPayload := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyValidSignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_123","type":"payment_intent.succeeded","livemode":false,"data":{"object":{"id":"pi_1"}}}`)
	header := buildSignatureHeader(secret, payload, time.Now().Unix())

	v := NewVerifier(secret, 5*time.Minute)
	event, err := v.Verify(payload, header)
	if err != nil {
		t.Fatalf("expected valid signature, got error: %v", err)
	}
	if event.ID != "evt_123" {
		t.Fatalf("expected event id evt_123, got %s", event.ID)
	}
	if event.Type != "payment_intent.succeeded" {
		t.Fatalf("expected event type payment_intent.succeeded, got %s", event.Type)
	}
}

func TestVerifyTamperedPayload(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_123","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","amount":2500}}}`)
	header := buildSignatureHeader(secret, payload, time.Now().Unix())

	tampered := make([]byte, len(payload))
	copy(tampered, payload)
	tampered[len(tampered)-10] ^= 0x01

	v := NewVerifier(secret, 5*time.Minute)
	if _, err := v.Verify(tampered, header); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyMissingHeader(t *testing.T) {
	v := NewVerifier("whsec_test", 5*time.Minute)
	if _, err := v.Verify([]byte(`{}`), ""); err != ErrMissingSignature {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_123","type":"charge.succeeded","data":{"object":{}}}`)
	header := buildSignatureHeader("whsec_other", payload, time.Now().Unix())

	v := NewVerifier("whsec_test", 5*time.Minute)
	if _, err := v.Verify(payload, header); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyStaleTimestamp(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_123","type":"payment_intent.succeeded","data":{"object":{}}}`)
	stale := time.Now().Add(-30 * time.Minute).Unix()
	header := buildSignatureHeader(secret, payload, stale)

	v := NewVerifier(secret, 5*time.Minute)
	if _, err := v.Verify(payload, header); err != ErrSignatureExpired {
		t.Fatalf("expected ErrSignatureExpired, got %v", err)
	}
}

func TestVerifyInvalidPayload(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`not-json`)
	header := buildSignatureHeader(secret, payload, time.Now().Unix())

	v := NewVerifier(secret, 5*time.Minute)
	if _, err := v.Verify(payload, header); err != ErrInvalidPayload {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestVerifyMissingEnvelopeFields(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_123","data":{"object":{}}}`)
	header := buildSignatureHeader(secret, payload, time.Now().Unix())

	v := NewVerifier(secret, 5*time.Minute)
	if _, err := v.Verify(payload, header); err != ErrInvalidPayload {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}
