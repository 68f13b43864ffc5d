package api

import "time"

// UploadRequest stores one client-encrypted payload under a secret token.
//
// The relay never sees plaintext: the payload is encrypted on the client and
// stored exactly as uploaded. Only a one-way hash of the token is persisted.
type UploadRequest struct {
	// Token is the client-held secret (min 8 chars). It is hashed before
	// storage and never written anywhere in raw form.
	Token string `json:"token"`

	// Payload is the base64-encoded encrypted blob. Opaque to the server.
	Payload string `json:"payload"`
}

type UploadResponse struct {
	Status string `json:"status"`
	// TTLHours is the effective retention applied to this upload, after
	// defaulting and clamping.
	TTLHours  int       `json:"ttl_hours"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DatapointJSON is one stored payload as returned to clients. The surrogate
// row id stays internal.
type DatapointJSON struct {
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FetchResponse lists a token's live datapoints, oldest first.
type FetchResponse struct {
	Count      int             `json:"count"`
	Datapoints []DatapointJSON `json:"datapoints"`
}

// StatusResponse summarizes a token's live datapoints without payload bytes.
type StatusResponse struct {
	Count  int64      `json:"count"`
	Oldest *time.Time `json:"oldest_created_at,omitempty"`
	Newest *time.Time `json:"newest_created_at,omitempty"`
}

type DeleteResponse struct {
	Status  string `json:"status"`
	Deleted int64  `json:"deleted"`
}

type CleanupResponse struct {
	Status  string `json:"status"`
	Deleted int64  `json:"deleted"`
}
