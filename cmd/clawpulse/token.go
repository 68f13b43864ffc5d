package main

import (
	"fmt"
	"strings"

	"github.com/rodrigocava/clawpulse/internal/relay"
)

// resolveToken finds the sync token: --token flag, then CLAWPULSE_TOKEN,
// then an interactive hidden prompt. The token doubles as the encryption
// secret, so it is read like a password and never echoed.
func resolveToken(pa parsedArgs, deps Deps) (string, error) {
	token := strings.TrimSpace(pa.token)
	if token == "" {
		token = strings.TrimSpace(deps.Getenv("CLAWPULSE_TOKEN"))
	}
	if token == "" {
		if deps.ReadPass == nil || !deps.IsTTY() {
			return "", fmt.Errorf("no token: use --token or set CLAWPULSE_TOKEN")
		}
		p, err := deps.ReadPass("Sync token: ", deps.Stderr)
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		token = strings.TrimSpace(p)
	}

	if err := relay.ValidateToken(token); err != nil {
		return "", err
	}
	return token, nil
}
