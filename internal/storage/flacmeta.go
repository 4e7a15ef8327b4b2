package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-flac/flacpicture"
	flac "github.com/go-flac/go-flac"

	"github.com/aquilora/songferry/internal/imaging"
)

// flacMagic is the fixed stream marker every FLAC container starts with.
var flacMagic = []byte("fLaC")

var (
	// ErrNotFLAC is returned when a buffer does not start with the FLAC
	// stream marker.
	ErrNotFLAC = errors.New("missing fLaC stream marker")

	// ErrTruncatedMetadata is returned when the metadata chain ends before
	// a block with the last-block flag.
	ErrTruncatedMetadata = errors.New("unexpected end of FLAC metadata")
)

// AddFLACPicture embeds cover art as a front-cover PICTURE block.
//
// The metadata chain is parsed up to the last-block flag, any existing
// front-cover picture block is removed, a new one is appended, and the
// rebuilt metadata is reassembled with the untouched audio frames. The disk
// variant rewrites the file in place; the memory variant replaces its bytes.
//
// An absent or empty cover is a no-op. Parsing failures (ErrNotFLAC,
// ErrTruncatedMetadata) are surfaced to the caller, whose policy is to log
// and ship the file without the cover.
func (b *AudioBuffer) AddFLACPicture(cover []byte) error {
	if len(cover) == 0 {
		return nil
	}

	data, err := b.contents()
	if err != nil {
		return err
	}

	audioStart, err := findFLACAudioStart(data)
	if err != nil {
		return err
	}

	// Existing metadata is best-effort: if it will not parse, rebuild the
	// chain from scratch rather than refuse the cover.
	file, err := flac.ParseMetadata(bytes.NewReader(data))
	if err != nil {
		file = new(flac.File)
	}

	blocks := make([]*flac.MetaDataBlock, 0, len(file.Meta)+1)
	for _, block := range file.Meta {
		if block.Type == flac.Picture && isFrontCover(block) {
			continue
		}
		blocks = append(blocks, block)
	}
	blocks = append(blocks, coverPictureBlock(cover))

	var out bytes.Buffer
	out.Grow(len(data))
	out.Write(flacMagic)
	for i, block := range blocks {
		out.Write(block.Marshal(i == len(blocks)-1))
	}
	out.Write(data[audioStart:])

	if err := b.setContents(out.Bytes()); err != nil {
		return fmt.Errorf("writing rebuilt metadata: %w", err)
	}
	return nil
}

// findFLACAudioStart walks the metadata-block chain and returns the byte
// offset where audio frames begin.
//
// Each block header is 4 bytes: bit 7 of byte 0 is the last-block flag, and
// bytes 1-3 hold the big-endian 24-bit body length. The walk stops after the
// block whose last flag is set.
func findFLACAudioStart(data []byte) (int, error) {
	if len(data) < len(flacMagic) || !bytes.Equal(data[:len(flacMagic)], flacMagic) {
		return 0, ErrNotFLAC
	}

	offset := len(flacMagic)
	for {
		if offset+4 > len(data) {
			return 0, ErrTruncatedMetadata
		}
		last := data[offset]&0x80 != 0
		length := int(data[offset+1])<<16 | int(data[offset+2])<<8 | int(data[offset+3])
		offset += 4 + length
		if offset > len(data) {
			return 0, ErrTruncatedMetadata
		}
		if last {
			return offset, nil
		}
	}
}

// isFrontCover reports whether a picture block carries the front-cover type.
func isFrontCover(block *flac.MetaDataBlock) bool {
	pic, err := flacpicture.ParseFromMetaDataBlock(*block)
	return err == nil && pic.PictureType == flacpicture.PictureTypeFrontCover
}

// coverPictureBlock builds a front-cover PICTURE block from raw JPEG bytes.
// Undecodable image dimensions degrade to 0x0 rather than blocking the
// embed.
func coverPictureBlock(cover []byte) *flac.MetaDataBlock {
	width, height := imaging.Dimensions(cover)
	pic := &flacpicture.MetadataBlockPicture{
		PictureType: flacpicture.PictureTypeFrontCover,
		MIME:        "image/jpeg",
		Description: "Album Cover",
		Width:       uint32(width),
		Height:      uint32(height),
		ColorDepth:  24,
		ImageData:   cover,
	}
	block := pic.Marshal()
	return &block
}
