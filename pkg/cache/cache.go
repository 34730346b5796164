// Package cache stores rendered artifact bytes keyed by their inputs.
//
// A render is a pure function of the prepared diagram text, the output
// format, the pixel width and the renderer configuration. When all of those
// match a previous render, the cached bytes are written out instead of
// launching the external renderer again.
//
// Two implementations are provided:
//   - [FileCache]: JSON entries on disk under the XDG cache directory
//   - [NullCache]: never stores anything (used with --no-cache)
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long artifact entries stay valid.
const DefaultTTL = 30 * 24 * time.Hour

// Cache is a byte store with expiring entries.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// ArtifactKeyOpts identifies one rendered artifact.
type ArtifactKeyOpts struct {
	SourceHash string   `json:"source_hash"` // hash of the prepared diagram text
	Format     string   `json:"format"`      // "svg" or "png"
	Width      int      `json:"width"`       // pixel width, 0 for the renderer default
	Renderer   []string `json:"renderer"`    // renderer command line
}

// ArtifactKey returns the cache key for an artifact.
func ArtifactKey(opts ArtifactKeyOpts) string {
	return hashKey("artifact", opts)
}
