package storage

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"testing"

	"github.com/go-flac/flacpicture"
	flac "github.com/go-flac/go-flac"
)

func encodeTestJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatalf("encoding test jpeg: %v", err)
	}
	return buf.Bytes()
}

// minimalFLAC builds a container with a single last STREAMINFO block of 34
// zero bytes, followed by the given audio tail.
func minimalFLAC(audio []byte) []byte {
	data := []byte("fLaC")
	data = append(data, 0x80, 0x00, 0x00, 0x22)
	data = append(data, make([]byte, 34)...)
	return append(data, audio...)
}

func TestFindFLACAudioStart(t *testing.T) {
	twoBlocks := []byte("fLaC")
	twoBlocks = append(twoBlocks, 0x00, 0x00, 0x00, 0x22)
	twoBlocks = append(twoBlocks, make([]byte, 34)...)
	twoBlocks = append(twoBlocks, 0x84, 0x00, 0x00, 0x04)
	twoBlocks = append(twoBlocks, 1, 2, 3, 4)

	tests := []struct {
		name    string
		data    []byte
		want    int
		wantErr error
	}{
		{"single last block", minimalFLAC(nil), 42, nil},
		{"single last block with audio", minimalFLAC([]byte("AUDIO")), 42, nil},
		{"two blocks", twoBlocks, 50, nil},
		{"wrong magic", []byte("MP3!\x00\x00\x00\x00"), 0, ErrNotFLAC},
		{"too short", []byte("fL"), 0, ErrNotFLAC},
		{"no block header", []byte("fLaC"), 0, ErrTruncatedMetadata},
		{"body past end", []byte{'f', 'L', 'a', 'C', 0x80, 0x00, 0x01, 0x00}, 0, ErrTruncatedMetadata},
		{"never last", []byte{'f', 'L', 'a', 'C', 0x00, 0x00, 0x00, 0x00}, 0, ErrTruncatedMetadata},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := findFLACAudioStart(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("findFLACAudioStart() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("findFLACAudioStart() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAddFLACPicture_EmptyCoverIsNoop(t *testing.T) {
	original := minimalFLAC([]byte("AUDIO"))

	buf, err := New(UseMemory, "song.flac", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Cleanup()
	buf.Write(original)

	if err := buf.AddFLACPicture(nil); err != nil {
		t.Fatalf("AddFLACPicture(nil) error = %v", err)
	}

	got, _ := buf.Bytes()
	if !bytes.Equal(got, original) {
		t.Error("empty cover modified the buffer")
	}
}

func TestAddFLACPicture_NotFLAC(t *testing.T) {
	buf, err := New(UseMemory, "song.flac", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Cleanup()
	buf.Write([]byte("\xff\xfbAUDIOFRAMES"))

	err = buf.AddFLACPicture(encodeTestJPEG(t, 2, 2))
	if !errors.Is(err, ErrNotFLAC) {
		t.Errorf("AddFLACPicture() error = %v, want ErrNotFLAC", err)
	}
}

func TestAddFLACPicture_Memory(t *testing.T) {
	audio := []byte("AUDIOFRAMES")
	cover := encodeTestJPEG(t, 2, 3)

	buf, err := New(UseMemory, "song.flac", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Cleanup()
	buf.Write(minimalFLAC(audio))

	if err := buf.AddFLACPicture(cover); err != nil {
		t.Fatalf("AddFLACPicture() error = %v", err)
	}

	got, _ := buf.Bytes()
	if !bytes.HasSuffix(got, audio) {
		t.Fatal("audio tail was not preserved")
	}

	file, err := flac.ParseMetadata(bytes.NewReader(got))
	if err != nil {
		t.Fatalf("parsing rebuilt metadata: %v", err)
	}
	if len(file.Meta) != 2 {
		t.Fatalf("metadata blocks = %d, want 2", len(file.Meta))
	}
	if file.Meta[0].Type != flac.StreamInfo {
		t.Errorf("first block type = %v, want StreamInfo", file.Meta[0].Type)
	}
	if file.Meta[1].Type != flac.Picture {
		t.Fatalf("second block type = %v, want Picture", file.Meta[1].Type)
	}

	pic, err := flacpicture.ParseFromMetaDataBlock(*file.Meta[1])
	if err != nil {
		t.Fatalf("parsing picture block: %v", err)
	}
	if pic.PictureType != flacpicture.PictureTypeFrontCover {
		t.Errorf("picture type = %v, want front cover", pic.PictureType)
	}
	if pic.Description != "Album Cover" {
		t.Errorf("description = %q, want %q", pic.Description, "Album Cover")
	}
	if pic.Width != 2 || pic.Height != 3 {
		t.Errorf("dimensions = %dx%d, want 2x3", pic.Width, pic.Height)
	}
	if pic.ColorDepth != 24 {
		t.Errorf("color depth = %d, want 24", pic.ColorDepth)
	}
	if !bytes.Equal(pic.ImageData, cover) {
		t.Error("picture payload does not match cover bytes")
	}

	// The rebuilt container still has a well-formed metadata chain.
	offset, err := findFLACAudioStart(got)
	if err != nil {
		t.Fatalf("findFLACAudioStart() on rebuilt container: %v", err)
	}
	if !bytes.Equal(got[offset:], audio) {
		t.Error("audio region does not start at the computed offset")
	}
}

func TestAddFLACPicture_ReplacesExistingCover(t *testing.T) {
	oldCover := encodeTestJPEG(t, 4, 4)
	newCover := encodeTestJPEG(t, 8, 8)
	audio := []byte("AUDIOFRAMES")

	oldPic := &flacpicture.MetadataBlockPicture{
		PictureType: flacpicture.PictureTypeFrontCover,
		MIME:        "image/jpeg",
		Description: "Album Cover",
		ColorDepth:  24,
		ImageData:   oldCover,
	}
	oldBlock := oldPic.Marshal()

	container := []byte("fLaC")
	container = append(container, 0x00, 0x00, 0x00, 0x22)
	container = append(container, make([]byte, 34)...)
	container = append(container, oldBlock.Marshal(true)...)
	container = append(container, audio...)

	buf, err := New(UseMemory, "song.flac", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Cleanup()
	buf.Write(container)

	if err := buf.AddFLACPicture(newCover); err != nil {
		t.Fatalf("AddFLACPicture() error = %v", err)
	}

	got, _ := buf.Bytes()
	file, err := flac.ParseMetadata(bytes.NewReader(got))
	if err != nil {
		t.Fatalf("parsing rebuilt metadata: %v", err)
	}

	var pictures []*flacpicture.MetadataBlockPicture
	for _, block := range file.Meta {
		if block.Type != flac.Picture {
			continue
		}
		pic, err := flacpicture.ParseFromMetaDataBlock(*block)
		if err != nil {
			t.Fatalf("parsing picture block: %v", err)
		}
		pictures = append(pictures, pic)
	}

	if len(pictures) != 1 {
		t.Fatalf("picture blocks = %d, want 1", len(pictures))
	}
	if !bytes.Equal(pictures[0].ImageData, newCover) {
		t.Error("remaining picture is not the new cover")
	}
	if !bytes.HasSuffix(got, audio) {
		t.Error("audio tail was not preserved")
	}
}

func TestAddFLACPicture_Disk(t *testing.T) {
	audio := []byte("AUDIOFRAMES")
	cover := encodeTestJPEG(t, 2, 2)

	buf, err := New(UseDisk, "song.flac", t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Cleanup()
	buf.Write(minimalFLAC(audio))
	if err := buf.Finish(); err != nil {
		t.Fatal(err)
	}

	path := buf.Path()
	if err := buf.AddFLACPicture(cover); err != nil {
		t.Fatalf("AddFLACPicture() error = %v", err)
	}

	if buf.Path() != path {
		t.Errorf("path changed from %q to %q", path, buf.Path())
	}

	got, err := buf.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasSuffix(got, audio) {
		t.Error("audio tail was not preserved in the rewritten file")
	}
	if _, err := findFLACAudioStart(got); err != nil {
		t.Errorf("rewritten file has invalid metadata chain: %v", err)
	}
}
