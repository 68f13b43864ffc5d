// Package api implements the HTTP boundary of the sync relay.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rodrigocava/clawpulse/internal/auth"
	"github.com/rodrigocava/clawpulse/internal/config"
	"github.com/rodrigocava/clawpulse/internal/ratelimit"
	"github.com/rodrigocava/clawpulse/internal/relay"
	"github.com/rodrigocava/clawpulse/internal/storage"
)

// sharedSecretHeader carries the optional deployment-wide secret; see
// auth.Gate. ttlHeader carries the optional per-upload TTL override.
const (
	sharedSecretHeader = "X-Sync-Secret"
	ttlHeader          = "X-TTL-Hours"
)

type Server struct {
	cfg   config.Config
	store storage.DatapointStore
	gate  *auth.Gate

	uploadLimiter *ratelimit.Limiter
	fetchLimiter  *ratelimit.Limiter

	now func() time.Time

	mux *http.ServeMux
}

func NewServer(cfg config.Config, store storage.DatapointStore, gate *auth.Gate) *Server {
	mux := http.NewServeMux()

	s := &Server{
		cfg:   cfg,
		store: store,
		gate:  gate,
		// Single-instance rate limits per IP, mirroring the write/read
		// split: uploads and deletes ~10/min, fetches ~30/min.
		uploadLimiter: ratelimit.New(1.0/6, 5),
		fetchLimiter:  ratelimit.New(0.5, 10),
		now:           func() time.Time { return time.Now().UTC() },
		mux:           mux,
	}

	// Sweep idle per-IP buckets so the maps do not grow unbounded.
	s.uploadLimiter.StartGC(2*time.Minute, 10*time.Minute)
	s.fetchLimiter.StartGC(2*time.Minute, 10*time.Minute)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	mux.HandleFunc("POST /api/v1/sync", s.handleUpload)
	mux.HandleFunc("GET /api/v1/sync/{token}", s.handleFetch)
	mux.HandleFunc("GET /api/v1/sync/{token}/status", s.handleStatus)
	mux.HandleFunc("DELETE /api/v1/sync/{token}", s.handleDelete)

	// Global expiry sweep. Deliberately unauthenticated: it only removes
	// rows already past their own declared expiry and cannot read or
	// target any token's live data.
	mux.HandleFunc("POST /api/v1/cleanup", s.handleCleanup)

	return s
}

func (s *Server) Handler() http.Handler {
	return withMiddleware(s.mux)
}

// Close stops background goroutines (rate limiter GC). Safe to call multiple times.
func (s *Server) Close() {
	s.uploadLimiter.Stop()
	s.fetchLimiter.Stop()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": s.now().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "clawpulse-sync",
		"privacy": "stores only client-encrypted blobs keyed by a one-way token hash",
		"endpoints": []string{
			"POST /api/v1/sync",
			"GET /api/v1/sync/{token}",
			"GET /api/v1/sync/{token}/status",
			"DELETE /api/v1/sync/{token}",
			"POST /api/v1/cleanup",
			"GET /healthz",
		},
	})
}

// requireSharedSecret enforces the optional deployment secret on sync
// endpoints. Returns false after writing a 401 if the check fails.
func (s *Server) requireSharedSecret(w http.ResponseWriter, r *http.Request) bool {
	if s.gate.Allow(strings.TrimSpace(r.Header.Get(sharedSecretHeader))) {
		return true
	}
	unauthorized(w)
	return false
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !s.uploadLimiter.Allow(clientIP(r)) {
		rateLimited(w)
		return
	}
	if !s.requireSharedSecret(w, r) {
		return
	}
	if !isJSONContentType(r) {
		badRequest(w, "content-type must be application/json")
		return
	}

	// Allow JSON overhead on top of the payload cap; the exact payload
	// limit is enforced after decoding.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxPayloadBytes+16*1024)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req UploadRequest
	if err := dec.Decode(&req); err != nil {
		// A body past the reader cap can only mean an oversized payload;
		// report it as such rather than as a decode failure.
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			payloadTooLarge(w, s.cfg.MaxPayloadBytes)
			return
		}
		badRequest(w, mapDecodeError(err))
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		badRequest(w, "invalid json")
		return
	}

	if err := relay.ValidateToken(req.Token); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := relay.ValidatePayload(req.Payload, s.cfg.MaxPayloadBytes); err != nil {
		if errors.Is(err, relay.ErrPayloadTooLarge) {
			payloadTooLarge(w, s.cfg.MaxPayloadBytes)
			return
		}
		badRequest(w, err.Error())
		return
	}

	rawTTL := r.Header.Get(ttlHeader)
	hours, usedDefault := relay.ResolveTTL(rawTTL, s.cfg.DataTTLHours)
	if usedDefault && strings.TrimSpace(rawTTL) != "" {
		slog.Debug("ttl override unparseable, using default", "ttl_hours", hours)
	}

	now := s.now()
	dp := storage.Datapoint{
		TokenKey:  relay.DeriveTokenKey(req.Token),
		Payload:   req.Payload,
		CreatedAt: now,
		ExpiresAt: relay.ExpiryTime(now, hours),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.Insert(ctx, dp, s.cfg.MaxTotalBytes); err != nil {
		if errors.Is(err, storage.ErrQuotaExceeded) {
			quotaExceeded(w)
			return
		}
		slog.Error("insert datapoint error", "err", err)
		internalServerError(w)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		Status:    "ok",
		TTLHours:  hours,
		ExpiresAt: dp.ExpiresAt,
	})
}

// tokenKeyFromPath validates the {token} path segment and returns its
// storage key. Returns false after writing the response on failure.
func (s *Server) tokenKeyFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := r.PathValue("token")
	if err := relay.ValidateToken(token); err != nil {
		badRequest(w, err.Error())
		return "", false
	}
	return relay.DeriveTokenKey(token), true
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if !s.fetchLimiter.Allow(clientIP(r)) {
		rateLimited(w)
		return
	}
	if !s.requireSharedSecret(w, r) {
		return
	}
	tokenKey, ok := s.tokenKeyFromPath(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	now := s.now()
	if _, err := s.store.PurgeExpired(ctx, tokenKey, now); err != nil {
		slog.Error("purge expired error", "err", err)
		internalServerError(w)
		return
	}

	live, err := s.store.ListLive(ctx, tokenKey, now)
	if err != nil {
		slog.Error("list datapoints error", "err", err)
		internalServerError(w)
		return
	}
	if len(live) == 0 {
		notFound(w)
		return
	}

	resp := FetchResponse{
		Count:      len(live),
		Datapoints: make([]DatapointJSON, 0, len(live)),
	}
	for _, dp := range live {
		resp.Datapoints = append(resp.Datapoints, DatapointJSON{
			Payload:   dp.Payload,
			CreatedAt: dp.CreatedAt,
			ExpiresAt: dp.ExpiresAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.fetchLimiter.Allow(clientIP(r)) {
		rateLimited(w)
		return
	}
	if !s.requireSharedSecret(w, r) {
		return
	}
	tokenKey, ok := s.tokenKeyFromPath(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	now := s.now()
	if _, err := s.store.PurgeExpired(ctx, tokenKey, now); err != nil {
		slog.Error("purge expired error", "err", err)
		internalServerError(w)
		return
	}

	stats, err := s.store.CountLive(ctx, tokenKey, now)
	if err != nil {
		slog.Error("count datapoints error", "err", err)
		internalServerError(w)
		return
	}
	if stats.Count == 0 {
		notFound(w)
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Count:  stats.Count,
		Oldest: stats.Oldest,
		Newest: stats.Newest,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.uploadLimiter.Allow(clientIP(r)) {
		rateLimited(w)
		return
	}
	if !s.requireSharedSecret(w, r) {
		return
	}
	tokenKey, ok := s.tokenKeyFromPath(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Removes everything for the token, expired rows included.
	deleted, err := s.store.DeleteAll(ctx, tokenKey)
	if err != nil {
		slog.Error("delete datapoints error", "err", err)
		internalServerError(w)
		return
	}
	if deleted == 0 {
		notFound(w)
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Status: "ok", Deleted: deleted})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	deleted, err := s.store.PurgeAllExpired(ctx, s.now())
	if err != nil {
		slog.Error("cleanup error", "err", err)
		internalServerError(w)
		return
	}
	if deleted > 0 {
		slog.Info("expired datapoints deleted", "count", deleted)
	}

	writeJSON(w, http.StatusOK, CleanupResponse{Status: "ok", Deleted: deleted})
}

func clientIP(r *http.Request) string {
	// Behind Cloudflare the connecting IP arrives in its own header.
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	// Trust proxy headers only from loopback (nginx/reverse proxy on same host).
	if host == "127.0.0.1" || host == "::1" {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Leftmost IP is the original client.
			if i := strings.IndexByte(xff, ','); i > 0 {
				return strings.TrimSpace(xff[:i])
			}
			return strings.TrimSpace(xff)
		}
	}

	return host
}
