package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

// ErrInvalidSignature means the delivery's HMAC header did not match
// the configured webhook secret.
var ErrInvalidSignature = errors.New("webhook signature mismatch")

// verifySignature checks an HMAC-SHA256 hex digest of the raw body
// against the provided header value. The "sha256=" prefix some
// providers prepend is tolerated.
func verifySignature(secret string, body []byte, signature string) bool {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
