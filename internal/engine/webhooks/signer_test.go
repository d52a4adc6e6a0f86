package webhooks

import (
	"testing"
)

func TestSign(t *testing.T) {
	secret := "secret"
	payload := []byte("payload")

	// Calculated using: echo -n "payload" | openssl dgst -sha256 -hmac "secret"
	expected := "b82fcb791acec57859b989b430a826488ce2e479fdf92326bd0a2e8375a42ba4"

	got := Sign(secret, payload)

	if got != expected {
		t.Errorf("Sign() = %v, want %v", got, expected)
	}
}

func TestVerify(t *testing.T) {
	payload := []byte(`{"event":"post.created"}`)
	sig := Sign("s3cret", payload)

	if !Verify("s3cret", payload, sig) {
		t.Error("expected signature to verify")
	}
	if Verify("other", payload, sig) {
		t.Error("expected wrong secret to fail")
	}
	if Verify("s3cret", []byte(`{"event":"post.voted"}`), sig) {
		t.Error("expected altered body to fail")
	}
	if Verify("s3cret", payload, "zz-not-hex") {
		t.Error("expected malformed signature to fail")
	}
}
