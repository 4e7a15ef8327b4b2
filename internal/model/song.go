package model

import (
	"fmt"
	"strings"
)

// UnknownAlbum is the album title used when the catalog omits album info.
const UnknownAlbum = "Unknown Album"

// Artist is a single performing artist as reported by the catalog.
type Artist struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Album is the album a song belongs to.
type Album struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	PicURL string `json:"picUrl"`
}

// Song is a read-only snapshot of catalog metadata for one track.
//
// Song is produced by the catalog client and passed unchanged through the
// download pipeline; nothing downstream mutates it.
type Song struct {
	// ID is the catalog's numeric song id.
	ID uint64

	// Name is the track title.
	Name string

	// DurationMS is the track length in milliseconds. Zero if unknown.
	DurationMS uint64

	// Artists lists the performing artists, possibly empty.
	Artists []Artist

	// Album is the containing album, nil if the catalog omitted it.
	Album *Album
}

// ArtistLine joins all artist names with "/" into a single display string.
func (s *Song) ArtistLine() string {
	return FormatArtists(s.Artists)
}

// AlbumName returns the album title, falling back to UnknownAlbum.
func (s *Song) AlbumName() string {
	if s.Album == nil || s.Album.Name == "" {
		return UnknownAlbum
	}
	return s.Album.Name
}

// DurationSeconds returns the track length in whole seconds.
func (s *Song) DurationSeconds() uint64 {
	return s.DurationMS / 1000
}

// FormatArtists joins artist names with "/".
func FormatArtists(artists []Artist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, "/")
}

// StreamSource describes a resolved, downloadable audio stream.
type StreamSource struct {
	// URL is the direct download URL. Empty means the song is unavailable
	// at the requested quality.
	URL string

	// Bitrate is the stream bitrate in bits per second.
	Bitrate uint64

	// Size is the expected payload size in bytes, 0 if unknown.
	Size uint64

	// MD5 is the catalog-reported checksum of the payload, may be empty.
	MD5 string

	// Format is the container format reported by the catalog ("mp3", "flac").
	Format string
}

// Ext returns the file extension for the stream, derived from the URL with
// the reported format as fallback. Defaults to "mp3".
func (ss *StreamSource) Ext() string {
	if strings.Contains(ss.URL, ".flac") {
		return "flac"
	}
	if ss.Format != "" {
		return strings.ToLower(ss.Format)
	}
	return "mp3"
}

// Payload is the thing handed to an outbound transport. Exactly one of Path
// or Data is set: a disk-backed payload carries the file path and the
// transport reads the file lazily; a memory-backed payload carries the bytes
// directly.
type Payload struct {
	// Path is the absolute path of a disk-backed payload.
	Path string

	// Data is the content of a memory-backed payload.
	Data []byte

	// Filename is the logical file name used for display and upload.
	Filename string
}

// InMemory reports whether the payload carries its bytes directly.
func (p *Payload) InMemory() bool {
	return p.Path == ""
}

// Caption builds the message caption attached to a relayed song:
//
//	「Title」- Artists
//	Album: Album Name
//	#songferry #mp3 3.45MB 320.00kbps
//	via @BotName
func Caption(song *Song, ext string, sizeBytes, bitrateBPS uint64, botName string) string {
	sizeMB := float64(sizeBytes) / 1024.0 / 1024.0
	kbps := float64(bitrateBPS) / 1000.0
	return fmt.Sprintf("「%s」- %s\nAlbum: %s\n#songferry #%s %.2fMB %.2fkbps\nvia @%s",
		song.Name, song.ArtistLine(), song.AlbumName(), strings.ToLower(ext), sizeMB, kbps, botName)
}
