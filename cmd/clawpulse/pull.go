package main

import (
	"encoding/json"
	"fmt"

	"github.com/rodrigocava/clawpulse/internal/envelope"
)

func runPull(args []string, deps Deps) int {
	pa, err := parseFlags(args)
	if err == errShowHelp {
		printPullHelp(deps)
		return 0
	}
	if err != nil {
		writeError(deps.Stderr, pa.json, err.Error())
		return 2
	}
	resolveGlobals(&pa, deps)

	token, err := resolveToken(pa, deps)
	if err != nil {
		writeError(deps.Stderr, pa.json, err.Error())
		return 2
	}

	resp, err := newClient(pa, deps).Pull(token)
	if err != nil {
		writeError(deps.Stderr, pa.json, err.Error())
		return 1
	}

	type decrypted struct {
		Data      string `json:"data"`
		CreatedAt string `json:"created_at"`
		ExpiresAt string `json:"expires_at"`
	}

	var out []decrypted
	skipped := 0
	for _, dp := range resp.Datapoints {
		plaintext, err := envelope.Open(dp.Payload, token)
		if err != nil {
			// A token can address rows sealed by another client build;
			// report and keep going rather than losing the rest.
			fmt.Fprintf(deps.Stderr, "warning: skipping undecryptable datapoint from %s: %v\n", dp.CreatedAt, err)
			skipped++
			continue
		}
		out = append(out, decrypted{
			Data:      string(plaintext),
			CreatedAt: dp.CreatedAt,
			ExpiresAt: dp.ExpiresAt,
		})
	}

	if len(out) == 0 && skipped > 0 {
		writeError(deps.Stderr, pa.json, "no datapoint could be decrypted with this token")
		return 1
	}

	if pa.json {
		enc := json.NewEncoder(deps.Stdout)
		enc.Encode(map[string]interface{}{
			"count":      len(out),
			"datapoints": out,
		})
	} else {
		for _, d := range out {
			fmt.Fprintln(deps.Stdout, d.Data)
		}
	}

	return 0
}
