package catalog

import "github.com/aquilora/songferry/internal/model"

// Response envelopes for the catalog API. Every endpoint wraps its payload
// in a "code" field where 200 means success. Older API revisions use long
// field names ("duration", "artists", "album") where newer ones abbreviate
// ("dt", "ar", "al"), so both spellings are decoded.

type artistDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type albumDTO struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	PicURL string `json:"picUrl"`
}

type songDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`

	DT       uint64 `json:"dt"`
	Duration uint64 `json:"duration"`

	Ar      []artistDTO `json:"ar"`
	Artists []artistDTO `json:"artists"`

	Al    *albumDTO `json:"al"`
	Album *albumDTO `json:"album"`
}

func (d *songDTO) toSong() *model.Song {
	song := &model.Song{
		ID:         d.ID,
		Name:       d.Name,
		DurationMS: d.DT,
	}
	if song.DurationMS == 0 {
		song.DurationMS = d.Duration
	}

	artists := d.Ar
	if len(artists) == 0 {
		artists = d.Artists
	}
	for _, a := range artists {
		song.Artists = append(song.Artists, model.Artist{ID: a.ID, Name: a.Name})
	}

	album := d.Al
	if album == nil {
		album = d.Album
	}
	if album != nil {
		song.Album = &model.Album{ID: album.ID, Name: album.Name, PicURL: album.PicURL}
	}

	return song
}

type songDetailResponse struct {
	Code  int       `json:"code"`
	Songs []songDTO `json:"songs"`
}

type streamDTO struct {
	ID     uint64 `json:"id"`
	URL    string `json:"url"`
	Br     uint64 `json:"br"`
	Size   uint64 `json:"size"`
	MD5    string `json:"md5"`
	Format string `json:"type"`
}

func (d *streamDTO) toStreamSource() *model.StreamSource {
	return &model.StreamSource{
		URL:     d.URL,
		Bitrate: d.Br,
		Size:    d.Size,
		MD5:     d.MD5,
		Format:  d.Format,
	}
}

type songURLResponse struct {
	Code int         `json:"code"`
	Data []streamDTO `json:"data"`
}

type lyricContent struct {
	Lyric string `json:"lyric"`
}

type lyricResponse struct {
	Code int           `json:"code"`
	Lrc  *lyricContent `json:"lrc"`
}

type searchResponse struct {
	Code   int `json:"code"`
	Result struct {
		Songs     []songDTO `json:"songs"`
		SongCount uint64    `json:"songCount"`
	} `json:"result"`
}
