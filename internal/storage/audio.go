package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aquilora/songferry/internal/model"
)

// DefaultMemoryCapacity is the capacity pre-allocated for a memory-backed
// buffer when the content length is unknown.
const DefaultMemoryCapacity = 10 << 20

// AudioBuffer accumulates one downloading audio file, backed either by a
// file in the cache directory or by an in-memory byte slice. The backing is
// fixed at creation and never converted.
//
// A buffer is owned by exactly one download task: chunks are written
// sequentially, Finish is called once before any read-back or tag embedding,
// and Cleanup runs after the payload has been handed off, on success and
// failure alike.
//
// Example:
//
//	dec := storage.Decide(mode, length, availableMB, thresholdMB, bufferMB)
//	buf, err := storage.New(dec, "12345.mp3", cacheDir, length)
//	if err != nil {
//	    return err
//	}
//	defer buf.Cleanup()
//
//	if _, err := io.Copy(buf, resp.Body); err != nil {
//	    return err
//	}
//	if err := buf.Finish(); err != nil {
//	    return err
//	}
type AudioBuffer struct {
	filename string

	// Disk variant.
	file *os.File
	path string

	// Memory variant.
	inMemory bool
	data     []byte

	cleaned bool
}

// New creates an AudioBuffer backed according to the policy decision.
//
// For UseDisk, a file named filename is created (truncating any previous
// one) under dir; creation failures are returned to the caller. For
// UseMemory, a slice is pre-allocated to contentLength bytes, or to
// DefaultMemoryCapacity when the length is unknown (0).
func New(decision Decision, filename, dir string, contentLength uint64) (*AudioBuffer, error) {
	if decision == UseMemory {
		capacity := contentLength
		if capacity == 0 {
			capacity = DefaultMemoryCapacity
		}
		return &AudioBuffer{
			inMemory: true,
			filename: filename,
			data:     make([]byte, 0, capacity),
		}, nil
	}
	return NewDisk(filename, dir)
}

// NewDisk creates a disk-backed AudioBuffer regardless of policy.
func NewDisk(filename, dir string) (*AudioBuffer, error) {
	path := filepath.Join(dir, filename)
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating buffer file %s: %w", path, err)
	}
	return &AudioBuffer{
		filename: filename,
		file:     file,
		path:     path,
	}, nil
}

// InMemory reports whether the buffer is memory-backed.
func (b *AudioBuffer) InMemory() bool {
	return b.inMemory
}

// Filename returns the logical file name the buffer was created with.
func (b *AudioBuffer) Filename() string {
	return b.filename
}

// Path returns the backing file path, empty for memory-backed buffers.
func (b *AudioBuffer) Path() string {
	return b.path
}

// Write appends a chunk, implementing io.Writer so response bodies can be
// streamed in with io.Copy. Disk write errors are propagated.
func (b *AudioBuffer) Write(p []byte) (int, error) {
	if b.inMemory {
		b.data = append(b.data, p...)
		return len(p), nil
	}
	return b.file.Write(p)
}

// Finish finalizes the buffer after the last chunk. For the disk variant it
// flushes and closes the handle, leaving the file on disk for read-back and
// tag embedding; for the memory variant it is a no-op.
func (b *AudioBuffer) Finish() error {
	if b.inMemory || b.file == nil {
		return nil
	}
	if err := b.file.Sync(); err != nil {
		b.file.Close()
		b.file = nil
		return fmt.Errorf("flushing buffer file %s: %w", b.path, err)
	}
	err := b.file.Close()
	b.file = nil
	if err != nil {
		return fmt.Errorf("closing buffer file %s: %w", b.path, err)
	}
	return nil
}

// Size returns the buffer's current length in bytes. The disk variant reads
// the length from the filesystem rather than a cached counter, so it stays
// accurate after tag rewriting.
func (b *AudioBuffer) Size() uint64 {
	if b.inMemory {
		return uint64(len(b.data))
	}
	info, err := os.Stat(b.path)
	if err != nil {
		return 0
	}
	return uint64(info.Size())
}

// Bytes returns the complete buffer content. The disk variant reads the file
// back; the memory variant returns a copy, leaving the buffer untouched.
func (b *AudioBuffer) Bytes() ([]byte, error) {
	if b.inMemory {
		out := make([]byte, len(b.data))
		copy(out, b.data)
		return out, nil
	}
	return os.ReadFile(b.path)
}

// Payload converts the buffer into an outbound transfer payload: a file path
// for the disk variant (read lazily by the transport), or the owned bytes
// for the memory variant.
func (b *AudioBuffer) Payload() *model.Payload {
	if b.inMemory {
		return &model.Payload{Data: b.data, Filename: b.filename}
	}
	return &model.Payload{Path: b.path, Filename: b.filename}
}

// Cleanup releases whichever resource the buffer owns: the memory variant
// drops its bytes, the disk variant closes any open handle and deletes the
// file. Safe to call more than once and after partial failures; deletion
// errors are logged, never propagated.
func (b *AudioBuffer) Cleanup() {
	if b.cleaned {
		return
	}
	b.cleaned = true

	if b.inMemory {
		b.data = nil
		return
	}

	if b.file != nil {
		b.file.Close()
		b.file = nil
	}
	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		slog.Warn("removing buffer file failed", "path", b.path, "error", err)
	}
}

// contents returns the full byte sequence without copying where possible.
// Used by the tag embedders, which replace the content wholesale afterwards.
func (b *AudioBuffer) contents() ([]byte, error) {
	if b.inMemory {
		return b.data, nil
	}
	return os.ReadFile(b.path)
}

// setContents replaces the buffer's full content: the memory variant swaps
// its slice, the disk variant rewrites the file in place at the same path.
func (b *AudioBuffer) setContents(data []byte) error {
	if b.inMemory {
		b.data = data
		return nil
	}
	if err := os.WriteFile(b.path, data, 0644); err != nil {
		return fmt.Errorf("rewriting buffer file %s: %w", b.path, err)
	}
	return nil
}
