package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/westinedu/ai-courses-gcp/internal/common"
	"github.com/westinedu/ai-courses-gcp/internal/interfaces"
)

// New selects the configured ObjectStore backend. "gcs" returns the stub
// (spec non-goal: no cloud SDK), "" or "local" the local filesystem
// gateway, and any other name is an error.
func New(cfg common.StorageConfig, logger arbor.ILogger) (interfaces.ObjectStore, error) {
	switch cfg.Backend {
	case "gcs":
		return NewGCSGateway(cfg.GCSBucketName), nil
	case "", "local":
		return NewLocalGateway(cfg.LocalRoot, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
