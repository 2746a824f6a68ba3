// Package interfaces provides the dependency-injected service boundaries
// the engines are built against, in place of the teacher's document/job/auth
// storage surfaces.
package interfaces

import (
	"context"
	"time"
)

// Blob is a single listed object returned by ObjectStore.List.
type Blob struct {
	Path string
	Size int64
}

// PutResult reports whether PutIfAbsent actually created the object.
type PutResult struct {
	Created bool
}

// ObjectStore is the Storage Gateway contract (spec §4.1): a uniform
// content-addressed store over either an object store or a local
// filesystem fallback. All writes are whole-object; there is no
// partial-write surface.
type ObjectStore interface {
	// Put replaces path unconditionally.
	Put(ctx context.Context, path string, data []byte, contentType string) error

	// PutIfAbsent creates path only when absent. On conflict it returns
	// (PutResult{Created:false}, nil) rather than raising — an idempotent
	// create, not an error.
	PutIfAbsent(ctx context.Context, path string, data []byte, contentType string) (PutResult, error)

	// Get returns the object's bytes, or common.ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)

	// List returns every blob whose path starts with prefix.
	List(ctx context.Context, prefix string) ([]Blob, error)

	// Age returns now minus the object's stored discovered_at/fetched_at
	// field (not filesystem mtime), or common.ErrNotFound.
	Age(ctx context.Context, path string, now time.Time) (time.Duration, error)
}
