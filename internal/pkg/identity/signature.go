package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// Clerk signs webhooks with the Svix scheme: HMAC-SHA256 over
// "<id>.<timestamp>.<body>" keyed with the base64 part of a whsec_ secret.
// The signature header carries space-separated "v1,<base64>" candidates.

const signatureTolerance = 5 * time.Minute

// SignatureHeaders carries the three required Svix headers.
type SignatureHeaders struct {
	ID        string
	Timestamp string
	Signature string
}

// Complete reports whether all three headers are present.
func (h SignatureHeaders) Complete() bool {
	return h.ID != "" && h.Timestamp != "" && h.Signature != ""
}

// VerifySignature checks the payload against the webhook secret. The
// timestamp must fall within the tolerance window to bound replay.
func VerifySignature(payload []byte, headers SignatureHeaders, secret string) bool {
	return verifyAt(payload, headers, secret, time.Now())
}

func verifyAt(payload []byte, headers SignatureHeaders, secret string, now time.Time) bool {
	secret = strings.TrimSpace(secret)
	if secret == "" || !headers.Complete() {
		return false
	}

	ts, err := strconv.ParseInt(strings.TrimSpace(headers.Timestamp), 10, 64)
	if err != nil {
		return false
	}
	sent := time.Unix(ts, 0)
	if sent.Before(now.Add(-signatureTolerance)) || sent.After(now.Add(signatureTolerance)) {
		return false
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, "whsec_"))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(headers.ID))
	mac.Write([]byte("."))
	mac.Write([]byte(headers.Timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	// The header may list several versioned signatures; any v1 match passes.
	for _, candidate := range strings.Fields(headers.Signature) {
		parts := strings.SplitN(candidate, ",", 2)
		if len(parts) != 2 || parts[0] != "v1" {
			continue
		}
		sig, err := base64.StdEncoding.DecodeString(parts[1])
		if err != nil {
			continue
		}
		if hmac.Equal(sig, expected) {
			return true
		}
	}
	return false
}

// Sign computes the v1 signature value for the given message parts. Exported
// for tooling and tests that need to produce valid headers.
func Sign(id, timestamp string, payload []byte, secret string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(strings.TrimSpace(secret), "whsec_"))
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id + "." + timestamp + "."))
	mac.Write(payload)
	return "v1," + base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
