package transport

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aquilora/songferry/internal/model"
)

func TestDirectorySender_MemoryPayload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	sender, err := NewDirectorySender(dir)
	if err != nil {
		t.Fatalf("NewDirectorySender() error = %v", err)
	}

	receipt, err := sender.SendAudio(context.Background(), &AudioMessage{
		Payload: &model.Payload{Data: []byte("audio"), Filename: "Artist - Song.mp3"},
	})
	if err != nil {
		t.Fatalf("SendAudio() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "Artist - Song.mp3"))
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if !bytes.Equal(got, []byte("audio")) {
		t.Errorf("written content = %q", got)
	}
	if receipt.FileID == "" {
		t.Error("receipt has empty file id")
	}
}

func TestDirectorySender_DiskPayloadAndThumb(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "cached.mp3")
	if err := os.WriteFile(src, []byte("cached-audio"), 0644); err != nil {
		t.Fatal(err)
	}

	outDir := t.TempDir()
	sender, err := NewDirectorySender(outDir)
	if err != nil {
		t.Fatal(err)
	}

	receipt, err := sender.SendAudio(context.Background(), &AudioMessage{
		Payload: &model.Payload{Path: src, Filename: "song.mp3"},
		Thumb:   &model.Payload{Data: []byte("thumb"), Filename: "cover.jpg"},
	})
	if err != nil {
		t.Fatalf("SendAudio() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "song.mp3"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("cached-audio")) {
		t.Errorf("written content = %q", got)
	}
	if receipt.ThumbFileID == "" {
		t.Error("receipt has empty thumb file id")
	}
	if _, err := os.Stat(filepath.Join(outDir, "cover.jpg")); err != nil {
		t.Errorf("thumbnail not written: %v", err)
	}
}

func TestDirectorySender_SendCached(t *testing.T) {
	dir := t.TempDir()
	sender, err := NewDirectorySender(dir)
	if err != nil {
		t.Fatal(err)
	}

	receipt, err := sender.SendAudio(context.Background(), &AudioMessage{
		Payload: &model.Payload{Data: []byte("audio"), Filename: "song.mp3"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := sender.SendCached(context.Background(), receipt.FileID, ""); err != nil {
		t.Errorf("SendCached() error = %v", err)
	}

	os.Remove(receipt.FileID)
	if err := sender.SendCached(context.Background(), receipt.FileID, ""); err == nil {
		t.Error("expected error for removed cached file")
	}
}

func TestDirectorySender_SanitizesFilename(t *testing.T) {
	dir := t.TempDir()
	sender, err := NewDirectorySender(dir)
	if err != nil {
		t.Fatal(err)
	}

	_, err = sender.SendAudio(context.Background(), &AudioMessage{
		Payload: &model.Payload{Data: []byte("audio"), Filename: "Song: Part 1/2.mp3"},
	})
	if err != nil {
		t.Fatalf("SendAudio() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "Song_ Part 1_2.mp3")); err != nil {
		t.Errorf("sanitized file not written: %v", err)
	}
}
