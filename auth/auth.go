// Package auth derives the caller identity from headers set by the fronting
// identity provider (an OAuth proxy terminating the login flow). This service
// never participates in the OAuth exchange; it receives a verified email,
// derives the opaque owner hash, and decides admin status from an allowlist.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/voxlog/audioblog/backend/config"
	"github.com/voxlog/audioblog/backend/crypto"
)

const (
	// EmailHeader carries the verified email forwarded by the auth proxy.
	EmailHeader = "X-Auth-Email"
	// SignatureHeader carries the hex HMAC-SHA256 of the email, keyed by
	// AUTH_HMAC_SECRET, so the backend can reject spoofed headers when it is
	// reachable without the proxy in front.
	SignatureHeader = "X-Auth-Signature"
)

// Identity is the resolved caller.
type Identity struct {
	Email     string
	OwnerHash string
	Admin     bool
}

// Sign computes the expected signature for an email under the given secret.
func Sign(secret, email string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(email))
	return hex.EncodeToString(mac.Sum(nil))
}

// FromRequest resolves the caller identity. It returns ok=false when no
// identity is present or, with AUTH_HMAC_SECRET configured, when the
// signature does not verify. Without a secret the email header is trusted
// as-is (proxy-only deployments).
func FromRequest(r *http.Request, cfg *config.Config) (Identity, bool) {
	email := r.Header.Get(EmailHeader)
	if email == "" {
		return Identity{}, false
	}
	if cfg.AuthHMACSecret != "" {
		sig := r.Header.Get(SignatureHeader)
		want := Sign(cfg.AuthHMACSecret, email)
		if sig == "" || !hmac.Equal([]byte(sig), []byte(want)) {
			return Identity{}, false
		}
	}
	return Identity{
		Email:     email,
		OwnerHash: crypto.HashEmail(email),
		Admin:     cfg.IsAdmin(email),
	}, true
}
