package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestAudioBuffer_RoundTrip(t *testing.T) {
	chunks := [][]byte{[]byte("first-"), []byte("second-"), []byte("third")}
	want := []byte("first-second-third")

	tests := []struct {
		name     string
		decision Decision
	}{
		{"memory", UseMemory},
		{"disk", UseDisk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := New(tt.decision, "roundtrip.mp3", t.TempDir(), uint64(len(want)))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer buf.Cleanup()

			for _, chunk := range chunks {
				if _, err := buf.Write(chunk); err != nil {
					t.Fatalf("Write() error = %v", err)
				}
			}
			if err := buf.Finish(); err != nil {
				t.Fatalf("Finish() error = %v", err)
			}

			if got := buf.Size(); got != uint64(len(want)) {
				t.Errorf("Size() = %d, want %d", got, len(want))
			}

			got, err := buf.Bytes()
			if err != nil {
				t.Fatalf("Bytes() error = %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("Bytes() = %q, want %q", got, want)
			}
		})
	}
}

func TestNew_MemoryVariant(t *testing.T) {
	buf, err := New(UseMemory, "song.mp3", "", 0)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer buf.Cleanup()

	if !buf.InMemory() {
		t.Error("UseMemory decision produced a disk buffer")
	}
	if buf.Path() != "" {
		t.Errorf("memory buffer has path %q", buf.Path())
	}
	if cap(buf.data) != DefaultMemoryCapacity {
		t.Errorf("unknown length capacity = %d, want %d", cap(buf.data), DefaultMemoryCapacity)
	}
}

func TestNewDisk_MissingDirectory(t *testing.T) {
	if _, err := NewDisk("song.mp3", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error creating buffer in missing directory")
	}
}

func TestAudioBuffer_Payload(t *testing.T) {
	dir := t.TempDir()

	mem, err := New(UseMemory, "song.mp3", dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer mem.Cleanup()
	mem.Write([]byte("audio"))

	p := mem.Payload()
	if !p.InMemory() {
		t.Error("memory buffer payload not in-memory")
	}
	if !bytes.Equal(p.Data, []byte("audio")) {
		t.Errorf("payload data = %q, want %q", p.Data, "audio")
	}
	if p.Filename != "song.mp3" {
		t.Errorf("payload filename = %q, want %q", p.Filename, "song.mp3")
	}

	disk, err := New(UseDisk, "song.mp3", dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer disk.Cleanup()
	disk.Write([]byte("audio"))
	if err := disk.Finish(); err != nil {
		t.Fatal(err)
	}

	p = disk.Payload()
	if p.InMemory() {
		t.Error("disk buffer payload reported as in-memory")
	}
	if p.Path != filepath.Join(dir, "song.mp3") {
		t.Errorf("payload path = %q", p.Path)
	}
}

func TestAudioBuffer_CleanupRemovesFile(t *testing.T) {
	dir := t.TempDir()

	buf, err := New(UseDisk, "song.mp3", dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	buf.Write([]byte("audio"))
	if err := buf.Finish(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "song.mp3")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("buffer file missing before cleanup: %v", err)
	}

	buf.Cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("buffer file still present after cleanup: %v", err)
	}

	// A second cleanup is a no-op, not an error.
	buf.Cleanup()
}

func TestAudioBuffer_CleanupBeforeFinish(t *testing.T) {
	dir := t.TempDir()

	buf, err := New(UseDisk, "song.mp3", dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	buf.Write([]byte("partial"))

	// Simulates an abandoned download: the handle is still open.
	buf.Cleanup()

	if _, err := os.Stat(filepath.Join(dir, "song.mp3")); !os.IsNotExist(err) {
		t.Errorf("buffer file still present after cleanup: %v", err)
	}
}

func TestAudioBuffer_CleanupMemory(t *testing.T) {
	buf, err := New(UseMemory, "song.mp3", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	buf.Write([]byte("audio"))

	buf.Cleanup()
	buf.Cleanup()

	if buf.data != nil {
		t.Error("memory buffer still holds data after cleanup")
	}
}
