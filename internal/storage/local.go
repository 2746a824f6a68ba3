// Package storage implements the Storage Gateway (spec §4.1): a
// content-addressed object store with a local-filesystem backend and a
// stub for the out-of-scope GCS backend.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/westinedu/ai-courses-gcp/internal/common"
	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
)

// discoveredAtEnvelope is the subset of fields Age() needs to read back out
// of a stored JSON object. Per spec §4.1, age is derived from the object's
// own discovered_at/fetched_at field, never from filesystem mtime.
type discoveredAtEnvelope struct {
	DiscoveredAt *time.Time `json:"discovered_at"`
	FetchedAt    *time.Time `json:"fetched_at"`
}

// LocalGateway is the local-filesystem ObjectStore implementation, rooted at
// a configured directory. Writes are atomic via temp-file-then-os.Rename in
// the same directory — the standard Go idiom for atomic file replace,
// equivalent to the teacher's single-writer embedded-store guarantee.
type LocalGateway struct {
	root   string
	logger arbor.ILogger
}

var _ interfaces.ObjectStore = (*LocalGateway)(nil)

// NewLocalGateway creates a gateway rooted at root. The directory is created
// if missing.
func NewLocalGateway(root string, logger arbor.ILogger) (*LocalGateway, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", root, err)
	}
	return &LocalGateway{root: root, logger: logger}, nil
}

func (g *LocalGateway) resolve(path string) (string, error) {
	if path == "" || strings.Contains(path, "..") {
		return "", fmt.Errorf("%w: illegal path %q", common.ErrInvalidInput, path)
	}
	return filepath.Join(g.root, filepath.FromSlash(path)), nil
}

// Put replaces path unconditionally via temp-file-then-rename.
func (g *LocalGateway) Put(ctx context.Context, path string, data []byte, contentType string) error {
	full, err := g.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place for %s: %w", path, err)
	}
	return nil
}

// PutIfAbsent creates path only when absent, using O_CREATE|O_EXCL to detect
// the precondition-failure race without a lock service.
func (g *LocalGateway) PutIfAbsent(ctx context.Context, path string, data []byte, contentType string) (interfaces.PutResult, error) {
	full, err := g.resolve(path)
	if err != nil {
		return interfaces.PutResult{}, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return interfaces.PutResult{}, fmt.Errorf("mkdir for %s: %w", path, err)
	}

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return interfaces.PutResult{Created: false}, nil
		}
		return interfaces.PutResult{}, fmt.Errorf("create-if-absent %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return interfaces.PutResult{}, fmt.Errorf("write create-if-absent %s: %w", path, err)
	}
	return interfaces.PutResult{Created: true}, nil
}

// Get returns the object's bytes, or common.ErrNotFound.
func (g *LocalGateway) Get(ctx context.Context, path string) ([]byte, error) {
	full, err := g.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, common.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// List returns every blob whose path starts with prefix, sorted by path.
func (g *LocalGateway) List(ctx context.Context, prefix string) ([]interfaces.Blob, error) {
	root, err := g.resolve(prefix)
	if err != nil {
		return nil, err
	}

	var blobs []interfaces.Blob
	walkRoot := root
	// prefix may name a partial filename, not just a directory; walk the
	// parent directory in that case.
	if info, statErr := os.Stat(root); statErr != nil || !info.IsDir() {
		walkRoot = filepath.Dir(root)
	}

	err = filepath.WalkDir(walkRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasPrefix(p, root) {
			return nil
		}
		rel, err := filepath.Rel(g.root, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		blobs = append(blobs, interfaces.Blob{Path: filepath.ToSlash(rel), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	sort.Slice(blobs, func(i, j int) bool { return blobs[i].Path < blobs[j].Path })
	return blobs, nil
}

// Age returns now minus the object's own discovered_at/fetched_at field.
func (g *LocalGateway) Age(ctx context.Context, path string, now time.Time) (time.Duration, error) {
	data, err := g.Get(ctx, path)
	if err != nil {
		return 0, err
	}
	var env discoveredAtEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return 0, fmt.Errorf("parse timestamp envelope for %s: %w", path, err)
	}
	var t time.Time
	switch {
	case env.DiscoveredAt != nil:
		t = *env.DiscoveredAt
	case env.FetchedAt != nil:
		t = *env.FetchedAt
	default:
		return 0, fmt.Errorf("%s: no discovered_at/fetched_at field: %w", path, common.ErrInvalidInput)
	}
	return now.Sub(t), nil
}
