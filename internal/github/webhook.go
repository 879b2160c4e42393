package github

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// VerifySignature reports whether sig is a valid X-Hub-Signature-256 header
// value for payload under the shared webhook secret. An empty secret disables
// verification and accepts every payload; the caller decides whether running
// without a secret is acceptable.
func VerifySignature(payload []byte, sig, secret string) bool {
	if secret == "" {
		return true
	}
	if !strings.HasPrefix(sig, signaturePrefix) {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	want := signaturePrefix + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(sig), []byte(want))
}
