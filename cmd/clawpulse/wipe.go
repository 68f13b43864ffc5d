package main

import (
	"encoding/json"
	"fmt"
)

func runWipe(args []string, deps Deps) int {
	pa, err := parseFlags(args)
	if err == errShowHelp {
		printWipeHelp(deps)
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

	resp, err := newClient(pa, deps).Wipe(token)
	if err != nil {
		writeError(deps.Stderr, pa.json, err.Error())
		return 1
	}

	if pa.json {
		enc := json.NewEncoder(deps.Stdout)
		enc.Encode(resp)
	} else {
		fmt.Fprintf(deps.Stdout, "wiped %d datapoints\n", resp.Deleted)
	}
	return 0
}
