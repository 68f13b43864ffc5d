package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config holds everything the relay reads from the environment. All values
// have working defaults for local development except the database password.
type Config struct {
	Env        string
	ListenAddr string
	LogLevel   string

	DatabaseURL   string
	DBHost        string
	DBPort        int
	DBName        string
	DBUser        string
	DBPassword    string
	DBSSLMode     string
	DBSSLRootCert string

	// DataTTLHours is the default retention for uploaded datapoints when a
	// request carries no TTL override.
	DataTTLHours int
	// MaxPayloadBytes caps a single uploaded payload.
	MaxPayloadBytes int64
	// MaxTotalBytes caps the live payload bytes stored per token key.
	// Zero disables the quota.
	MaxTotalBytes int64
	// SharedSecret, when set, must be presented by sync clients in the
	// X-Sync-Secret header. Cleanup and health stay open.
	SharedSecret string
}

func Load() (Config, error) {
	cfg := Config{
		Env:        getenvDefault("ENV", "development"),
		ListenAddr: getenvDefault("LISTEN_ADDR", ":8080"),
		LogLevel:   getenvDefault("LOG_LEVEL", "info"),

		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBHost:        getenvDefault("DB_HOST", "127.0.0.1"),
		DBName:        getenvDefault("DB_NAME", "clawpulse"),
		DBUser:        getenvDefault("DB_USER", "clawpulse_app"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBSSLMode:     getenvDefault("DB_SSLMODE", "disable"),
		DBSSLRootCert: strings.TrimSpace(os.Getenv("DB_SSLROOTCERT")),

		SharedSecret: strings.TrimSpace(os.Getenv("SYNC_SHARED_SECRET")),
	}

	dbPortStr := getenvDefault("DB_PORT", "5432")
	dbPort, err := strconv.Atoi(dbPortStr)
	if err != nil || dbPort <= 0 || dbPort > 65535 {
		return Config{}, fmt.Errorf("invalid DB_PORT %q", dbPortStr)
	}
	cfg.DBPort = dbPort

	ttlStr := getenvDefault("DATA_TTL_HOURS", "48")
	ttl, err := strconv.Atoi(ttlStr)
	if err != nil || ttl < 1 || ttl > 168 {
		return Config{}, fmt.Errorf("invalid DATA_TTL_HOURS %q (want 1..168)", ttlStr)
	}
	cfg.DataTTLHours = ttl

	maxPayload, err := parseByteSize("MAX_PAYLOAD_BYTES", 10*1024*1024)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxPayloadBytes = maxPayload

	maxTotal, err := parseByteSize("MAX_TOTAL_BYTES", 50*1024*1024)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxTotalBytes = maxTotal

	if cfg.MaxTotalBytes > 0 && cfg.MaxPayloadBytes > cfg.MaxTotalBytes {
		return Config{}, fmt.Errorf("MAX_PAYLOAD_BYTES (%d) exceeds MAX_TOTAL_BYTES (%d)",
			cfg.MaxPayloadBytes, cfg.MaxTotalBytes)
	}

	return cfg, nil
}

func parseByteSize(key string, def int64) (int64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}

func (c Config) PostgresURL() (string, error) {
	if c.DatabaseURL != "" {
		return c.DatabaseURL, nil
	}

	missing := make([]string, 0, 4)
	if c.DBHost == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.DBName == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.DBUser == "" {
		missing = append(missing, "DB_USER")
	}
	if c.DBSSLMode == "" {
		missing = append(missing, "DB_SSLMODE")
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("missing env vars: %s", strings.Join(missing, ", "))
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:   c.DBName,
	}

	q := u.Query()
	q.Set("sslmode", c.DBSSLMode)
	if c.DBSSLRootCert != "" {
		q.Set("sslrootcert", c.DBSSLRootCert)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func getenvDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
