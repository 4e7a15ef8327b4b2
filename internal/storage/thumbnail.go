package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aquilora/songferry/internal/model"
)

// ThumbnailMemoryLimit is the largest cover-art payload kept in memory.
// Thumbnails at or above this size spill to disk.
const ThumbnailMemoryLimit = 5 << 20

// ThumbnailBuffer holds one downloaded cover-art image, backed by memory or
// by a file in the cache directory. Unlike AudioBuffer it is created from
// already-complete bytes and carries no tag logic.
//
// Thumbnails prefer memory: only ModeDisk or a payload of
// ThumbnailMemoryLimit bytes and up forces a file.
type ThumbnailBuffer struct {
	filename string
	path     string
	inMemory bool
	data     []byte
	cleaned  bool
}

// NewThumbnail creates a ThumbnailBuffer from downloaded cover bytes.
func NewThumbnail(mode Mode, data []byte, filename, dir string) (*ThumbnailBuffer, error) {
	if mode != ModeDisk && uint64(len(data)) < ThumbnailMemoryLimit {
		return &ThumbnailBuffer{
			inMemory: true,
			filename: filename,
			data:     data,
		}, nil
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("creating thumbnail file %s: %w", path, err)
	}
	return &ThumbnailBuffer{
		filename: filename,
		path:     path,
	}, nil
}

// InMemory reports whether the thumbnail is memory-backed.
func (t *ThumbnailBuffer) InMemory() bool {
	return t.inMemory
}

// Path returns the backing file path, empty for a memory-backed thumbnail.
func (t *ThumbnailBuffer) Path() string {
	return t.path
}

// Bytes returns the complete image content.
func (t *ThumbnailBuffer) Bytes() ([]byte, error) {
	if t.inMemory {
		return t.data, nil
	}
	return os.ReadFile(t.path)
}

// Payload converts the thumbnail into an outbound transfer payload.
func (t *ThumbnailBuffer) Payload() *model.Payload {
	if t.inMemory {
		return &model.Payload{Data: t.data, Filename: t.filename}
	}
	return &model.Payload{Path: t.path, Filename: t.filename}
}

// Cleanup releases the backing resource. Safe to call more than once;
// deletion errors are logged, never propagated.
func (t *ThumbnailBuffer) Cleanup() {
	if t.cleaned {
		return
	}
	t.cleaned = true

	if t.inMemory {
		t.data = nil
		return
	}
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		slog.Warn("removing thumbnail file failed", "path", t.path, "error", err)
	}
}
