package main

import (
	"fmt"
	"io"
	"strings"
)

const defaultBaseURL = "https://sync.clawpulse.dev"

var version = "dev"

// Deps holds injectable dependencies for testing.
type Deps struct {
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
	HTTPClient  HTTPDoer
	IsTTY       func() bool // stdin is a terminal
	IsStdoutTTY func() bool // stdout is a terminal (controls color)
	Getenv      func(string) string
	Rand        io.Reader
	ReadPass    func(prompt string, w io.Writer) (string, error)
}

// parsedArgs holds parsed global and command-specific flags.
type parsedArgs struct {
	args []string // positional args after flags

	// Global
	baseURL string
	secret  string
	token   string
	json    bool

	// Push
	ttl  string
	text string
	file string
}

// run is the main entry point. Returns exit code.
func run(args []string, deps Deps) int {
	if len(args) < 2 {
		printUsage(deps)
		return 2
	}

	// Check for top-level flags
	switch args[1] {
	case "--version", "-v":
		fmt.Fprintf(deps.Stdout, "clawpulse %s\n", version)
		return 0
	case "--help", "-h":
		printHelp(deps)
		return 0
	}

	command := args[1]
	remaining := args[2:]

	switch command {
	case "version":
		fmt.Fprintf(deps.Stdout, "clawpulse %s\n", version)
		return 0
	case "help":
		return runHelp(remaining, deps)
	case "completion":
		return runCompletion(remaining, deps)
	case "push":
		return runPush(remaining, deps)
	case "pull":
		return runPull(remaining, deps)
	case "status":
		return runStatus(remaining, deps)
	case "wipe":
		return runWipe(remaining, deps)
	default:
		fmt.Fprintf(deps.Stderr, "error: unknown command %q\n", command)
		printUsage(deps)
		return 2
	}
}

func runHelp(args []string, deps Deps) int {
	if len(args) == 0 {
		printHelp(deps)
		return 0
	}
	switch args[0] {
	case "push":
		printPushHelp(deps)
	case "pull":
		printPullHelp(deps)
	case "status":
		printStatusHelp(deps)
	case "wipe":
		printWipeHelp(deps)
	default:
		fmt.Fprintf(deps.Stderr, "error: unknown command %q\n", args[0])
		return 2
	}
	return 0
}

func runCompletion(args []string, deps Deps) int {
	if len(args) != 1 {
		fmt.Fprintf(deps.Stderr, "error: specify a shell (supported: bash, zsh, fish)\n")
		return 2
	}
	switch args[0] {
	case "bash":
		fmt.Fprint(deps.Stdout, bashCompletion)
	case "zsh":
		fmt.Fprint(deps.Stdout, zshCompletion)
	case "fish":
		fmt.Fprint(deps.Stdout, fishCompletion)
	default:
		fmt.Fprintf(deps.Stderr, "error: unsupported shell %q (supported: bash, zsh, fish)\n", args[0])
		return 2
	}
	return 0
}

// parseFlags parses command-specific flags from args.
func parseFlags(args []string) (parsedArgs, error) {
	var pa parsedArgs
	var positional []string

	i := 0
	for i < len(args) {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			positional = append(positional, arg)
			i++
			continue
		}

		switch arg {
		case "--help", "-h":
			pa.args = nil
			return pa, errShowHelp
		case "--json":
			pa.json = true
		case "--base-url":
			if i+1 >= len(args) {
				return pa, fmt.Errorf("--base-url requires a value")
			}
			i++
			pa.baseURL = args[i]
		case "--secret":
			if i+1 >= len(args) {
				return pa, fmt.Errorf("--secret requires a value")
			}
			i++
			pa.secret = args[i]
		case "--token":
			if i+1 >= len(args) {
				return pa, fmt.Errorf("--token requires a value")
			}
			i++
			pa.token = args[i]
		case "--ttl":
			if i+1 >= len(args) {
				return pa, fmt.Errorf("--ttl requires a value")
			}
			i++
			pa.ttl = args[i]
		case "--text":
			if i+1 >= len(args) {
				return pa, fmt.Errorf("--text requires a value")
			}
			i++
			pa.text = args[i]
		case "--file":
			if i+1 >= len(args) {
				return pa, fmt.Errorf("--file requires a value")
			}
			i++
			pa.file = args[i]
		default:
			return pa, fmt.Errorf("unknown flag: %s", arg)
		}
		i++
	}

	pa.args = positional
	return pa, nil
}

var errShowHelp = fmt.Errorf("show help")

// resolveGlobals fills in defaults from env vars.
func resolveGlobals(pa *parsedArgs, deps Deps) {
	if pa.baseURL == "" {
		if env := deps.Getenv("CLAWPULSE_BASE_URL"); env != "" {
			pa.baseURL = env
		} else {
			pa.baseURL = defaultBaseURL
		}
	}
	if pa.secret == "" {
		if env := deps.Getenv("CLAWPULSE_SECRET"); env != "" {
			pa.secret = env
		}
	}
}

func newClient(pa parsedArgs, deps Deps) *APIClient {
	return &APIClient{
		BaseURL:      pa.baseURL,
		SharedSecret: pa.secret,
		HTTPClient:   deps.HTTPClient,
	}
}

func writeError(w io.Writer, jsonMode bool, msg string) {
	if jsonMode {
		fmt.Fprintf(w, `{"error":%q}`+"\n", msg)
	} else {
		fmt.Fprintf(w, "error: %s\n", msg)
	}
}

// --- Help text ---

func printUsage(deps Deps) {
	c := colorFunc(deps.IsStdoutTTY())
	fmt.Fprintf(deps.Stderr, "%s — encrypted device sync\n\nRun '%s' for usage.\n",
		c("36", "clawpulse"), c("36", "clawpulse help"))
}

func printHelp(deps Deps) {
	c := colorFunc(deps.IsStdoutTTY())
	fmt.Fprintf(deps.Stderr, `%s — encrypted device sync

%s
  %s %s %s

%s
  %s        Encrypt and upload a datapoint
  %s        Fetch and decrypt this token's datapoints
  %s      Show datapoint count and timestamps
  %s        Delete everything stored under the token
  %s     Show version
  %s        Show this help
  %s  Output shell completion script

%s
  %s %s    Server URL (default: %s)
  %s %s     Sync token (or CLAWPULSE_TOKEN, or prompt)
  %s %s  Deployment shared secret (or CLAWPULSE_SECRET)
  %s                Output as JSON
  %s            Show help
  %s         Show version

%s
  echo '{"pulse":42}' | %s %s
  %s %s
`,
		c("36", "clawpulse"),
		c("1", "USAGE"),
		c("36", "clawpulse"), c("36", "<command>"), c("2", "[options]"),
		c("1", "COMMANDS"),
		c("36", "push"),
		c("36", "pull"),
		c("36", "status"),
		c("36", "wipe"),
		c("36", "version"),
		c("36", "help"),
		c("36", "completion"),
		c("1", "GLOBAL OPTIONS"),
		c("33", "--base-url"), c("2", "<url>"), defaultBaseURL,
		c("33", "--token"), c("2", "<token>"),
		c("33", "--secret"), c("2", "<secret>"),
		c("33", "--json"),
		c("33", "-h, --help"),
		c("33", "-v, --version"),
		c("1", "EXAMPLES"),
		c("36", "clawpulse"), c("36", "push"),
		c("36", "clawpulse"), c("36", "pull"),
	)
}

func printPushHelp(deps Deps) {
	c := colorFunc(deps.IsStdoutTTY())
	fmt.Fprintf(deps.Stderr, `%s %s — Encrypt and upload a datapoint

%s
  %s %s %s

%s
  %s %s    Retention in hours, 1-168 (server default: 48)
  %s %s   Datapoint text (visible in shell history)
  %s %s   Read datapoint from file
  %s %s  Sync token
  %s %s     Server URL
  %s              Output as JSON
  %s          Show help

%s
  Reads from stdin by default. Use %s or %s for alternatives.
  Exactly one input source must be selected.

%s
  echo '{"pulse":42}' | %s %s
  %s %s %s backup.json %s 168
`,
		c("36", "clawpulse"), c("36", "push"),
		c("1", "USAGE"),
		c("36", "clawpulse"), c("36", "push"), c("2", "[options]"),
		c("1", "OPTIONS"),
		c("33", "--ttl"), c("2", "<hours>"),
		c("33", "--text"), c("2", "<value>"),
		c("33", "--file"), c("2", "<path>"),
		c("33", "--token"), c("2", "<token>"),
		c("33", "--base-url"), c("2", "<url>"),
		c("33", "--json"),
		c("33", "-h, --help"),
		c("1", "INPUT"),
		c("33", "--text"), c("33", "--file"),
		c("1", "EXAMPLES"),
		c("36", "clawpulse"), c("36", "push"),
		c("36", "clawpulse"), c("36", "push"), c("33", "--file"), c("33", "--ttl"),
	)
}

func printPullHelp(deps Deps) {
	c := colorFunc(deps.IsStdoutTTY())
	fmt.Fprintf(deps.Stderr, `%s %s — Fetch and decrypt this token's datapoints

%s
  %s %s %s

%s
  %s %s  Sync token
  %s %s     Server URL
  %s              Output as JSON
  %s          Show help

%s
  Datapoints print oldest first, one per line. Entries sealed with a
  different token are reported on stderr and skipped.

%s
  %s %s
`,
		c("36", "clawpulse"), c("36", "pull"),
		c("1", "USAGE"),
		c("36", "clawpulse"), c("36", "pull"), c("2", "[options]"),
		c("1", "OPTIONS"),
		c("33", "--token"), c("2", "<token>"),
		c("33", "--base-url"), c("2", "<url>"),
		c("33", "--json"),
		c("33", "-h, --help"),
		c("1", "OUTPUT"),
		c("1", "EXAMPLES"),
		c("36", "clawpulse"), c("36", "pull"),
	)
}

func printStatusHelp(deps Deps) {
	c := colorFunc(deps.IsStdoutTTY())
	fmt.Fprintf(deps.Stderr, `%s %s — Show datapoint count and timestamps

%s
  %s %s %s

%s
  %s %s  Sync token
  %s %s     Server URL
  %s              Output as JSON
  %s          Show help
`,
		c("36", "clawpulse"), c("36", "status"),
		c("1", "USAGE"),
		c("36", "clawpulse"), c("36", "status"), c("2", "[options]"),
		c("1", "OPTIONS"),
		c("33", "--token"), c("2", "<token>"),
		c("33", "--base-url"), c("2", "<url>"),
		c("33", "--json"),
		c("33", "-h, --help"),
	)
}

func printWipeHelp(deps Deps) {
	c := colorFunc(deps.IsStdoutTTY())
	fmt.Fprintf(deps.Stderr, `%s %s — Delete everything stored under the token

%s
  %s %s %s

%s
  %s %s  Sync token
  %s %s     Server URL
  %s              Output as JSON
  %s          Show help
`,
		c("36", "clawpulse"), c("36", "wipe"),
		c("1", "USAGE"),
		c("36", "clawpulse"), c("36", "wipe"), c("2", "[options]"),
		c("1", "OPTIONS"),
		c("33", "--token"), c("2", "<token>"),
		c("33", "--base-url"), c("2", "<url>"),
		c("33", "--json"),
		c("33", "-h, --help"),
	)
}
