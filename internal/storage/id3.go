package storage

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/bogem/id3v2"

	"github.com/aquilora/songferry/internal/model"
)

// id3HeaderSize is the fixed size of an ID3v2 tag header.
const id3HeaderSize = 10

// AddID3Tags embeds ID3v2.4 metadata into an MP3 buffer: title, album
// (falling back to model.UnknownAlbum), the combined artist string, track
// length in whole seconds, and optionally a front-cover picture.
//
// The disk variant writes the tag through the file at its head; the memory
// variant serializes a fresh tag and splices it in front of the audio
// frames, discarding any previous tag. Either way the audio frames are left
// byte-for-byte untouched.
//
// Errors are recoverable from the download's point of view: the caller logs
// them and ships the file untagged.
func (b *AudioBuffer) AddID3Tags(song *model.Song, cover []byte) error {
	if b.inMemory {
		return b.addID3TagsMemory(song, cover)
	}
	return b.addID3TagsDisk(song, cover)
}

func (b *AudioBuffer) addID3TagsDisk(song *model.Song, cover []byte) error {
	tag, err := id3v2.Open(b.path, id3v2.Options{Parse: true})
	if err != nil {
		// Unparseable existing tag: start fresh and overwrite it.
		tag, err = id3v2.Open(b.path, id3v2.Options{Parse: false})
		if err != nil {
			return fmt.Errorf("opening %s for tagging: %w", b.path, err)
		}
	}
	defer tag.Close()

	applyID3Frames(tag, song, cover)

	if err := tag.Save(); err != nil {
		return fmt.Errorf("saving tags to %s: %w", b.path, err)
	}
	return nil
}

func (b *AudioBuffer) addID3TagsMemory(song *model.Song, cover []byte) error {
	tag := id3v2.NewEmptyTag()
	applyID3Frames(tag, song, cover)

	var head bytes.Buffer
	if _, err := tag.WriteTo(&head); err != nil {
		return fmt.Errorf("encoding tag: %w", err)
	}

	audio := b.data[mp3AudioStart(b.data):]
	out := make([]byte, 0, head.Len()+len(audio))
	out = append(out, head.Bytes()...)
	out = append(out, audio...)
	b.data = out
	return nil
}

// applyID3Frames fills a tag from song metadata.
func applyID3Frames(tag *id3v2.Tag, song *model.Song, cover []byte) {
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(song.Name)
	tag.SetAlbum(song.AlbumName())
	tag.SetArtist(song.ArtistLine())
	tag.AddTextFrame("TLEN", id3v2.EncodingUTF8, strconv.FormatUint(song.DurationSeconds(), 10))

	if len(cover) > 0 {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Album Cover",
			Picture:     cover,
		})
	}
}

// mp3AudioStart returns the offset where MP3 audio frames begin. Data
// starting with an "ID3" marker carries a tag of 10 header bytes plus the
// syncsafe 28-bit size stored at offset 6, four 7-bit groups with the most
// significant first. Without the marker the audio starts at 0.
func mp3AudioStart(data []byte) int {
	if len(data) < id3HeaderSize || data[0] != 'I' || data[1] != 'D' || data[2] != '3' {
		return 0
	}
	size := int(data[6]&0x7F)<<21 |
		int(data[7]&0x7F)<<14 |
		int(data[8]&0x7F)<<7 |
		int(data[9]&0x7F)
	start := id3HeaderSize + size
	if start > len(data) {
		// Declared size runs past the end; treat everything as tag.
		return len(data)
	}
	return start
}
