// Package cache is a best-effort read-through cache for catalog records and
// document binaries. No operation ever fails the caller: backend trouble is
// logged and reported as a miss (reads) or a no-op (writes and deletes).
package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultTTL applies to every key class: list, detail, pdf and cover.
const DefaultTTL = 24 * time.Hour

// Cache is the capability every backend provides.
type Cache interface {
	// Get returns the stored value and true, or nil and false on miss or backend failure.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value for ttl. It reports whether the write reached the backend.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool
	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string)
}

// Key templates.
func ListKey() string            { return "books:list:all" }
func DetailKey(id string) string { return "books:detail:" + id }
func PDFKey(id string) string    { return "books:pdf:" + id }
func CoverKey(id string) string  { return "books:cover:" + id }

// DocumentKeys lists every key derived from a document id.
func DocumentKeys(id string) []string {
	return []string{DetailKey(id), PDFKey(id), CoverKey(id)}
}

var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Cache lookups by result (hit, miss, error).",
	},
	[]string{"result"},
)

func observe(result string) { requestsTotal.WithLabelValues(result).Inc() }

// GetJSON decodes a cached JSON value into dst. An undecodable entry counts as a miss.
func GetJSON(ctx context.Context, c Cache, key string, dst any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

// SetJSON stores v as JSON.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) bool {
	raw, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return c.Set(ctx, key, raw, ttl)
}

// GetBytes returns a binary payload stored with SetBytes.
func GetBytes(ctx context.Context, c Cache, key string) ([]byte, bool) {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return nil, false
	}
	out, err := base64.StdEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, false
	}
	return out, true
}

// SetBytes stores a binary payload base64-encoded so text-oriented backends can hold it.
func SetBytes(ctx context.Context, c Cache, key string, data []byte, ttl time.Duration) bool {
	return c.Set(ctx, key, []byte(base64.StdEncoding.EncodeToString(data)), ttl)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool) {
	observe("miss")
	return nil, false
}
func (Nop) Set(context.Context, string, []byte, time.Duration) bool { return false }
func (Nop) Delete(context.Context, ...string)                       {}
