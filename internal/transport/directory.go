package transport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	ioutils "github.com/aquilora/songferry/internal/io"
	"github.com/aquilora/songferry/internal/model"
)

// DirectorySender "delivers" payloads by writing them into a local
// directory. It backs the command-line front-end, where the destination is
// the user's music folder rather than a remote gateway.
type DirectorySender struct {
	dir string
}

// NewDirectorySender creates a sender that writes into dir, creating it if
// needed.
func NewDirectorySender(dir string) (*DirectorySender, error) {
	if err := ioutils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}
	return &DirectorySender{dir: dir}, nil
}

// SendAudio writes the audio payload into the output directory. The receipt
// file id is the written path.
func (s *DirectorySender) SendAudio(ctx context.Context, msg *AudioMessage) (*Receipt, error) {
	path, err := s.write(ctx, msg.Payload)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{FileID: path}
	if msg.Thumb != nil {
		thumbPath, err := s.write(ctx, msg.Thumb)
		if err != nil {
			return nil, err
		}
		receipt.ThumbFileID = thumbPath
	}
	return receipt, nil
}

// SendDocument behaves identically to SendAudio for a directory target.
func (s *DirectorySender) SendDocument(ctx context.Context, msg *AudioMessage) (*Receipt, error) {
	return s.SendAudio(ctx, msg)
}

// SendCached succeeds when the previously written file still exists.
func (s *DirectorySender) SendCached(ctx context.Context, fileID, caption string) error {
	if _, err := os.Stat(fileID); err != nil {
		return fmt.Errorf("cached file unavailable: %w", err)
	}
	return nil
}

func (s *DirectorySender) write(ctx context.Context, payload *model.Payload) (string, error) {
	dest := filepath.Join(s.dir, ioutils.SanitizeFileName(payload.Filename))

	if payload.InMemory() {
		if err := ioutils.WriteFile(ctx, dest, payload.Data); err != nil {
			return "", err
		}
		return dest, nil
	}

	if err := ioutils.CopyFile(ctx, payload.Path, dest); err != nil {
		return "", err
	}
	return dest, nil
}
