package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rodrigocava/clawpulse/internal/config"
)

// Quota behavior at the HTTP boundary: a single oversized payload is a 413,
// while a payload that would push the token's live total over the quota is a
// 429, and space frees up again as old datapoints expire.
func TestUpload_QuotaLifecycle(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, config.Config{
		MaxPayloadBytes: 64,
		MaxTotalBytes:   100,
	})
	const token = "aaaaaaaa"

	// Fill the quota exactly: 64 + 36 = 100 bytes live.
	if rec := ts.upload(t, token, strings.Repeat("A", 64), map[string]string{"X-TTL-Hours": "1"}); rec.Code != http.StatusCreated {
		t.Fatalf("first upload: got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := ts.upload(t, token, strings.Repeat("B", 36), nil); rec.Code != http.StatusCreated {
		t.Fatalf("fill-exact upload: got %d: %s", rec.Code, rec.Body.String())
	}

	// One more byte over the line is refused and nothing is written.
	rec := ts.upload(t, token, "C", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over-quota upload: got %d, want 429", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "quota") {
		t.Fatalf("over-quota body: %s", rec.Body.String())
	}
	fetch := decodeBody[FetchResponse](t, ts.do(t, http.MethodGet, "/api/v1/sync/"+token, "", nil))
	if fetch.Count != 2 {
		t.Fatalf("count after refused upload: got %d, want 2", fetch.Count)
	}

	// Quota is independent per token.
	if rec := ts.upload(t, "bbbbbbbb", strings.Repeat("D", 64), nil); rec.Code != http.StatusCreated {
		t.Fatalf("other token upload: got %d", rec.Code)
	}

	// Once the 1h datapoint expires its bytes stop counting, so the same
	// upload now fits.
	ts.now = ts.now.Add(2 * time.Hour)
	if rec := ts.upload(t, token, "C", nil); rec.Code != http.StatusCreated {
		t.Fatalf("upload after expiry: got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpload_SinglePayloadCapIs413NotQuota(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, config.Config{
		MaxPayloadBytes: 32,
		MaxTotalBytes:   1000,
	})

	rec := ts.upload(t, "aaaaaaaa", strings.Repeat("A", 33), nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized payload: got %d, want 413", rec.Code)
	}
	if rec := ts.upload(t, "aaaaaaaa", strings.Repeat("A", 32), nil); rec.Code != http.StatusCreated {
		t.Fatalf("payload at cap: got %d", rec.Code)
	}
}

func TestUpload_BodyBeyondReaderCapIs413(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, config.Config{MaxPayloadBytes: 64})

	// The request body reader allows 16 KiB of JSON slack on top of the
	// payload cap. A payload far past that aborts mid-decode and must still
	// surface as an oversized payload, not as a generic decode failure.
	rec := ts.upload(t, "aaaaaaaa", strings.Repeat("A", 20*1024), nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("payload beyond reader cap: got %d (%s), want 413", rec.Code, rec.Body.String())
	}
}

func TestUpload_QuotaDisabledWhenUnset(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, config.Config{MaxPayloadBytes: 64, MaxTotalBytes: 0})

	for i := 0; i < 10; i++ {
		if rec := ts.upload(t, "aaaaaaaa", strings.Repeat("A", 64), nil); rec.Code != http.StatusCreated {
			t.Fatalf("upload %d with quota disabled: got %d", i, rec.Code)
		}
	}
}
