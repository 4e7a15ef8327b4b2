// Package model defines the core data structures shared across
// the songferry packages.
//
// # Song
//
// Song is a read-only snapshot of catalog metadata for one track:
//
//	song := &model.Song{ID: 12345, Name: "Title", Artists: artists}
//	fmt.Println(song.ArtistLine()) // "Artist A/Artist B"
//	fmt.Println(song.AlbumName())  // album title, or "Unknown Album"
//
// # StreamSource
//
// StreamSource describes a resolved, downloadable audio stream for a song:
// its URL, bitrate, expected size, md5 and container format.
//
// # Payload
//
// Payload is what gets handed to an outbound transport: either a path to a
// file on disk, or an owned byte slice plus a filename. Exactly one of the
// two forms is populated.
package model
