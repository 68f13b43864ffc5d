package database

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"
)

// clawpulse-shaped DSN for tests that never reach a live server.
const unreachableDSN = "postgres://clawpulse_app:pw@127.0.0.1:1/clawpulse?sslmode=disable"

func TestConnection_CloseIsNilSafe(t *testing.T) {
	t.Parallel()

	var nilConn *Connection
	if err := nilConn.Close(); err != nil {
		t.Fatalf("Close on nil connection: %v", err)
	}
	if err := (&Connection{}).Close(); err != nil {
		t.Fatalf("Close on empty connection: %v", err)
	}
}

func TestConnection_DBReturnsPooledHandle(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("pgx", unreachableDSN)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	conn := &Connection{db: db}
	if conn.DB() != db {
		t.Fatal("DB() should hand back the pooled handle, not a copy")
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Closing through the wrapper closes the pool itself.
	if err := db.Ping(); err == nil || !strings.Contains(err.Error(), "closed") {
		t.Fatalf("ping after Close: got %v, want database-closed error", err)
	}
}

func TestOpenPostgres_UnreachableServer(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	conn, err := OpenPostgres(ctx, unreachableDSN)
	if err == nil {
		conn.Close()
		t.Fatal("expected error for unreachable server")
	}
	if !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("expected wrapped ping error, got %v", err)
	}
}

func TestOpenPostgres_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn, err := OpenPostgres(ctx, unreachableDSN)
	if err == nil {
		conn.Close()
		t.Fatal("expected error with cancelled context")
	}
	if !strings.Contains(err.Error(), "ping postgres") {
		t.Fatalf("expected wrapped ping error, got %v", err)
	}
}
