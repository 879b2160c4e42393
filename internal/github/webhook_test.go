package github

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func signPayload(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"action":"opened","number":42}`)
	secret := "hunter2"

	if !VerifySignature(payload, signPayload(payload, secret), secret) {
		t.Error("valid signature rejected")
	}
	if VerifySignature([]byte(`{"action":"opened","number":43}`), signPayload(payload, secret), secret) {
		t.Error("signature accepted for tampered payload")
	}
	if VerifySignature(payload, signPayload(payload, "wrong-secret"), secret) {
		t.Error("signature accepted for wrong secret")
	}
}

func TestVerifySignature_MalformedHeader(t *testing.T) {
	payload := []byte(`{}`)
	secret := "hunter2"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	bare := hex.EncodeToString(mac.Sum(nil))

	if VerifySignature(payload, bare, secret) {
		t.Error("signature without sha256= prefix accepted")
	}
	if VerifySignature(payload, "sha1="+bare, secret) {
		t.Error("sha1-prefixed signature accepted")
	}
	if VerifySignature(payload, "", secret) {
		t.Error("empty signature accepted")
	}
}

func TestVerifySignature_NoSecret(t *testing.T) {
	// Without a configured secret, verification is disabled.
	if !VerifySignature([]byte(`{}`), "", "") {
		t.Error("payload rejected with no secret configured")
	}
	if !VerifySignature([]byte(`{}`), "sha256=garbage", "") {
		t.Error("payload rejected with no secret configured and bogus header")
	}
}
