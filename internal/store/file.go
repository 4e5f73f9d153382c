package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileSink is the degraded mode used when no database is configured: each
// cycle's validated batch is serialized to one timestamped JSON artifact
// instead of touching a store.
type FileSink struct {
	dir string
}

// NewFileSink creates a sink writing artifacts into dir ("." if empty).
func NewFileSink(dir string) *FileSink {
	if dir == "" {
		dir = "."
	}
	return &FileSink{dir: dir}
}

// WriteBatch serializes batch to <dir>/<prefix>_<timestamp>.json,
// human-readable, and returns the artifact path.
func (f *FileSink) WriteBatch(prefix string, batch any, ts time.Time) (string, error) {
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize %s batch: %w", prefix, err)
	}

	name := fmt.Sprintf("%s_%s.json", prefix, ts.UTC().Format("20060102T150405Z"))
	path := filepath.Join(f.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s artifact: %w", prefix, err)
	}
	return path, nil
}
