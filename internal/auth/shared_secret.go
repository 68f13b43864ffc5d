// Package auth implements the relay's optional shared-secret gate. It is a
// deliberately simple pre-shared credential check, not an account system:
// deployments that expose the relay publicly set SYNC_SHARED_SECRET and give
// the value to their own clients.
package auth

import "crypto/subtle"

type Gate struct {
	secret string
}

func NewGate(secret string) *Gate {
	return &Gate{secret: secret}
}

// Enabled reports whether a shared secret is configured. When false, Allow
// accepts every request.
func (g *Gate) Enabled() bool {
	return g.secret != ""
}

// Allow checks the presented secret in constant time.
func (g *Gate) Allow(presented string) bool {
	if !g.Enabled() {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(g.secret), []byte(presented)) == 1
}
