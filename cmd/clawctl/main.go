// Command clawctl is the operator tool for a clawpulse deployment. It talks
// directly to Postgres, so it runs where the database is reachable, not
// through the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rodrigocava/clawpulse/internal/config"
	"github.com/rodrigocava/clawpulse/internal/database"
	"github.com/rodrigocava/clawpulse/internal/relay"
	"github.com/rodrigocava/clawpulse/internal/storage"
	"github.com/rodrigocava/clawpulse/internal/storage/postgres"
)

func main() {
	if os.Getenv("ENV") != "production" {
		_ = config.LoadDotEnvIfPresent(".env")
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	dbURL, err := cfg.PostgresURL()
	if err != nil {
		fmt.Fprintf(os.Stderr, "db url error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, err := database.OpenPostgres(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db connection error: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	switch os.Args[1] {
	case "migrate":
		runMigrate(ctx, conn)
	case "purge":
		runPurge(ctx, postgres.New(conn.DB()))
	case "stats":
		if len(os.Args) < 3 {
			usage()
			os.Exit(2)
		}
		runStats(ctx, postgres.New(conn.DB()), os.Args[2])
	case "wipe":
		if len(os.Args) < 3 {
			usage()
			os.Exit(2)
		}
		runWipe(ctx, postgres.New(conn.DB()), os.Args[2])
	default:
		usage()
		os.Exit(2)
	}
}

func runMigrate(ctx context.Context, conn *database.Connection) {
	applied, err := database.NewMigrator(conn).Migrate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	if len(applied) == 0 {
		fmt.Println("up to date")
		return
	}
	for _, name := range applied {
		fmt.Println("applied", name)
	}
}

func runPurge(ctx context.Context, store storage.DatapointStore) {
	deleted, err := store.PurgeAllExpired(ctx, time.Now().UTC())
	if err != nil {
		fmt.Fprintf(os.Stderr, "purge: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("deleted %d expired datapoints\n", deleted)
}

// runStats accepts either a raw token or a 64-char hex token key, so an
// operator can inspect a row from the database without knowing the token.
func runStats(ctx context.Context, store storage.DatapointStore, tokenOrKey string) {
	stats, err := store.CountLive(ctx, resolveTokenKey(tokenOrKey), time.Now().UTC())
	if err != nil {
		fmt.Fprintf(os.Stderr, "stats: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("live datapoints: %d\n", stats.Count)
	if stats.Oldest != nil {
		fmt.Printf("oldest: %s\n", stats.Oldest.Format(time.RFC3339))
	}
	if stats.Newest != nil {
		fmt.Printf("newest: %s\n", stats.Newest.Format(time.RFC3339))
	}
}

func runWipe(ctx context.Context, store storage.DatapointStore, tokenOrKey string) {
	deleted, err := store.DeleteAll(ctx, resolveTokenKey(tokenOrKey))
	if err != nil {
		fmt.Fprintf(os.Stderr, "wipe: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("deleted %d datapoints\n", deleted)
}

func resolveTokenKey(tokenOrKey string) string {
	s := strings.TrimSpace(tokenOrKey)
	if isTokenKey(s) {
		return strings.ToLower(s)
	}
	return relay.DeriveTokenKey(s)
}

func isTokenKey(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  clawctl migrate")
	fmt.Fprintln(os.Stderr, "  clawctl purge")
	fmt.Fprintln(os.Stderr, "  clawctl stats <token|token-key>")
	fmt.Fprintln(os.Stderr, "  clawctl wipe <token|token-key>")
}
