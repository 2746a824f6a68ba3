package storage

import (
	"context"
	"time"

	"github.com/westinedu/ai-courses-gcp/internal/common"
	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
)

// GCSGateway marks the GCS backend as a named configuration choice without
// importing a cloud SDK (spec §4.1 non-goal: "concrete storage SDKs beyond
// the local filesystem are a deployment concern, not part of this design").
// Every method fails closed with ErrNotConfigured until a real backend is
// wired in.
type GCSGateway struct {
	bucket string
}

var _ interfaces.ObjectStore = (*GCSGateway)(nil)

// NewGCSGateway returns a gateway that reports the configured bucket name
// but cannot actually serve reads or writes.
func NewGCSGateway(bucket string) *GCSGateway {
	return &GCSGateway{bucket: bucket}
}

func (g *GCSGateway) Put(ctx context.Context, path string, data []byte, contentType string) error {
	return common.ErrNotConfigured
}

func (g *GCSGateway) PutIfAbsent(ctx context.Context, path string, data []byte, contentType string) (interfaces.PutResult, error) {
	return interfaces.PutResult{}, common.ErrNotConfigured
}

func (g *GCSGateway) Get(ctx context.Context, path string) ([]byte, error) {
	return nil, common.ErrNotConfigured
}

func (g *GCSGateway) List(ctx context.Context, prefix string) ([]interfaces.Blob, error) {
	return nil, common.ErrNotConfigured
}

func (g *GCSGateway) Age(ctx context.Context, path string, now time.Time) (time.Duration, error) {
	return 0, common.ErrNotConfigured
}
