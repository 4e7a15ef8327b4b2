package model

import (
	"strings"
	"testing"
)

func TestFormatArtists(t *testing.T) {
	tests := []struct {
		name    string
		artists []Artist
		want    string
	}{
		{"empty", nil, ""},
		{"single", []Artist{{Name: "Solo"}}, "Solo"},
		{"multiple", []Artist{{Name: "A"}, {Name: "B"}, {Name: "C"}}, "A/B/C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatArtists(tt.artists); got != tt.want {
				t.Errorf("FormatArtists() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSong_AlbumName(t *testing.T) {
	song := &Song{Name: "Track"}
	if got := song.AlbumName(); got != UnknownAlbum {
		t.Errorf("AlbumName() with nil album = %q, want %q", got, UnknownAlbum)
	}

	song.Album = &Album{Name: ""}
	if got := song.AlbumName(); got != UnknownAlbum {
		t.Errorf("AlbumName() with empty title = %q, want %q", got, UnknownAlbum)
	}

	song.Album = &Album{Name: "Record"}
	if got := song.AlbumName(); got != "Record" {
		t.Errorf("AlbumName() = %q, want %q", got, "Record")
	}
}

func TestSong_DurationSeconds(t *testing.T) {
	tests := []struct {
		ms   uint64
		want uint64
	}{
		{0, 0},
		{999, 0},
		{1000, 1},
		{245678, 245},
	}

	for _, tt := range tests {
		song := &Song{DurationMS: tt.ms}
		if got := song.DurationSeconds(); got != tt.want {
			t.Errorf("DurationSeconds(%d ms) = %d, want %d", tt.ms, got, tt.want)
		}
	}
}

func TestStreamSource_Ext(t *testing.T) {
	tests := []struct {
		name string
		ss   StreamSource
		want string
	}{
		{"flac url", StreamSource{URL: "http://m7.example.com/a.flac?x=1"}, "flac"},
		{"mp3 url with format", StreamSource{URL: "http://m7.example.com/a.mp3", Format: "mp3"}, "mp3"},
		{"format fallback", StreamSource{URL: "http://m7.example.com/a", Format: "FLAC"}, "flac"},
		{"default", StreamSource{URL: "http://m7.example.com/a"}, "mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ss.Ext(); got != tt.want {
				t.Errorf("Ext() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPayload_InMemory(t *testing.T) {
	disk := &Payload{Path: "/tmp/a.mp3", Filename: "a.mp3"}
	if disk.InMemory() {
		t.Error("disk payload reported as in-memory")
	}

	mem := &Payload{Data: []byte{1, 2, 3}, Filename: "a.mp3"}
	if !mem.InMemory() {
		t.Error("memory payload not reported as in-memory")
	}
}

func TestCaption(t *testing.T) {
	song := &Song{
		Name:    "Song",
		Artists: []Artist{{Name: "A"}, {Name: "B"}},
		Album:   &Album{Name: "Record"},
	}

	caption := Caption(song, "mp3", 3*1024*1024, 320000, "songferrybot")

	for _, want := range []string{
		"「Song」- A/B",
		"Album: Record",
		"#mp3 3.00MB 320.00kbps",
		"via @songferrybot",
	} {
		if !strings.Contains(caption, want) {
			t.Errorf("Caption() missing %q in:\n%s", want, caption)
		}
	}
}
