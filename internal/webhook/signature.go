package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CanonicalJSON serializes a payload deterministically: sorted keys, no
// extraneous whitespace. encoding/json already emits map keys in sorted
// order, so the canonical form is a plain compact marshal.
func CanonicalJSON(payload map[string]any) ([]byte, error) {
	return json.Marshal(payload)
}

// Sign computes the payload signature as
// "sha256=" + hex(HMAC-SHA256(secret, "<timestamp>.<canonical-json>")).
func Sign(payload map[string]any, timestamp int64, secret string) (string, error) {
	body, err := CanonicalJSON(payload)
	if err != nil {
		return "", err
	}
	return signBody(body, timestamp, secret), nil
}

func signBody(body []byte, timestamp int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the expected signature for a received payload
// and compares it in constant time.
func VerifySignature(payload map[string]any, timestamp int64, signature string, secret string) bool {
	expected, err := Sign(payload, timestamp, secret)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(signature), []byte(expected))
}

// VerifyBody is the raw-body variant of VerifySignature for HTTP receivers
// that should verify the exact bytes they were sent.
func VerifyBody(body []byte, timestamp int64, signature string, secret string) bool {
	expected := signBody(body, timestamp, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}
