package main

import (
	"encoding/json"
	"fmt"
)

func runStatus(args []string, deps Deps) int {
	pa, err := parseFlags(args)
	if err == errShowHelp {
		printStatusHelp(deps)
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

	resp, err := newClient(pa, deps).Status(token)
	if err != nil {
		writeError(deps.Stderr, pa.json, err.Error())
		return 1
	}

	if pa.json {
		enc := json.NewEncoder(deps.Stdout)
		enc.Encode(resp)
		return 0
	}

	fmt.Fprintf(deps.Stdout, "datapoints: %d\n", resp.Count)
	if resp.Oldest != "" {
		fmt.Fprintf(deps.Stdout, "oldest:     %s\n", resp.Oldest)
	}
	if resp.Newest != "" {
		fmt.Fprintf(deps.Stdout, "newest:     %s\n", resp.Newest)
	}
	return 0
}
