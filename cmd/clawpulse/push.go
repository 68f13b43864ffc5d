package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rodrigocava/clawpulse/internal/envelope"
	"github.com/rodrigocava/clawpulse/internal/relay"
)

func runPush(args []string, deps Deps) int {
	pa, err := parseFlags(args)
	if err == errShowHelp {
		printPushHelp(deps)
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

	// Read plaintext from exactly one source
	plaintext, err := readPlaintext(pa, deps)
	if err != nil {
		writeError(deps.Stderr, pa.json, err.Error())
		return 2
	}

	// Parse TTL; 0 defers to the server default.
	ttlHours := 0
	if pa.ttl != "" {
		ttlHours, err = strconv.Atoi(pa.ttl)
		if err != nil || ttlHours < relay.MinTTLHours || ttlHours > relay.MaxTTLHours {
			writeError(deps.Stderr, pa.json,
				fmt.Sprintf("invalid TTL %q: want hours between %d and %d", pa.ttl, relay.MinTTLHours, relay.MaxTTLHours))
			return 2
		}
	}

	// Seal before anything leaves the device.
	payload, err := envelope.Seal(envelope.SealParams{
		Plaintext: plaintext,
		Token:     token,
		Rand:      deps.Rand,
	})
	if err != nil {
		writeError(deps.Stderr, pa.json, fmt.Sprintf("encryption failed: %v", err))
		return 1
	}

	resp, err := newClient(pa, deps).Push(token, payload, ttlHours)
	if err != nil {
		writeError(deps.Stderr, pa.json, err.Error())
		return 1
	}

	if pa.json {
		out := map[string]interface{}{
			"status":     resp.Status,
			"ttl_hours":  resp.TTLHours,
			"expires_at": resp.ExpiresAt,
		}
		enc := json.NewEncoder(deps.Stdout)
		enc.Encode(out)
	} else {
		fmt.Fprintf(deps.Stdout, "pushed (expires %s)\n", resp.ExpiresAt)
	}

	return 0
}

func readPlaintext(pa parsedArgs, deps Deps) ([]byte, error) {
	if pa.text != "" && pa.file != "" {
		return nil, fmt.Errorf("specify exactly one input source (stdin, --text, or --file)")
	}

	if pa.text != "" {
		return []byte(pa.text), nil
	}

	if pa.file != "" {
		data, err := os.ReadFile(pa.file)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		if len(data) == 0 {
			return nil, fmt.Errorf("file is empty")
		}
		return data, nil
	}

	// stdin
	if deps.IsTTY() {
		fmt.Fprint(deps.Stderr, "Enter datapoint (Ctrl+D to finish):\n")
	}

	data, err := io.ReadAll(deps.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("input is empty")
	}
	return data, nil
}
