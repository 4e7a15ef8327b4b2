package transport

import (
	"context"

	"github.com/aquilora/songferry/internal/model"
)

// AudioMessage is one outbound song transfer: the audio payload plus the
// display metadata the receiving side shows alongside it.
type AudioMessage struct {
	// Payload is the audio to transmit, as a file path or in-memory bytes.
	Payload *model.Payload

	// Caption is the message text shown with the audio.
	Caption string

	// Title and Performer label the audio in the receiver's player.
	Title     string
	Performer string

	// DurationSeconds is the track length in whole seconds, 0 if unknown.
	DurationSeconds uint64

	// Thumb is an optional cover-art thumbnail.
	Thumb *model.Payload
}

// Receipt identifies a delivered payload on the receiving side, so a later
// request for the same song can re-send it without re-uploading.
type Receipt struct {
	FileID      string
	ThumbFileID string
}

// Sender delivers finished payloads to the outbound transport.
//
// SendAudio transmits the payload as a playable audio message. SendDocument
// is the fallback used when the audio form is rejected (oversized payloads,
// unsupported containers): the same payload goes out as a plain file.
type Sender interface {
	SendAudio(ctx context.Context, msg *AudioMessage) (*Receipt, error)
	SendDocument(ctx context.Context, msg *AudioMessage) (*Receipt, error)

	// SendCached re-sends an already-delivered payload by its receipt file
	// id, skipping the upload entirely. An error means the cached id is no
	// longer valid and the caller should fall back to a fresh delivery.
	SendCached(ctx context.Context, fileID, caption string) error
}
