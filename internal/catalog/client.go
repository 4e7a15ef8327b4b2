package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aquilora/songferry/internal/model"
)

// browserUserAgent is sent on media downloads; the CDN rejects bare clients.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ErrSongNotFound is returned when the catalog has no entry for a song id.
var ErrSongNotFound = errors.New("song not found")

// Client wraps HTTP operations against the music-catalog API.
//
// Client provides:
//   - Song metadata, stream URL, lyric and search lookups
//   - Session-cookie authentication for member-only quality levels
//   - Streaming media download with the CDN headers and mirror-host
//     rewrites the download servers require
//
// Example usage:
//
//	client := catalog.NewClient("https://music.163.com", sessionCookie)
//
//	song, err := client.SongDetail(ctx, 12345)
//	stream, err := client.SongURL(ctx, 12345, 320000)
//
//	body, length, err := client.Download(ctx, stream.URL)
//	defer body.Close()
type Client struct {
	httpClient *http.Client
	baseURL    string
	cookie     string
}

// NewClient creates a catalog client for the given API base URL.
// sessionCookie is the MUSIC_U session value, empty for anonymous access.
func NewClient(baseURL, sessionCookie string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		cookie:  sessionCookie,
	}
}

// SongDetail fetches metadata for one song.
//
// Returns ErrSongNotFound if the catalog has no entry for the id.
func (c *Client) SongDetail(ctx context.Context, songID uint64) (*model.Song, error) {
	form := url.Values{
		"id":  {strconv.FormatUint(songID, 10)},
		"ids": {fmt.Sprintf("[%d]", songID)},
	}

	var resp songDetailResponse
	if err := c.postForm(ctx, "/api/song/detail", form, &resp); err != nil {
		return nil, err
	}
	if resp.Code != http.StatusOK {
		return nil, fmt.Errorf("song detail: API returned code %d", resp.Code)
	}
	if len(resp.Songs) == 0 {
		return nil, ErrSongNotFound
	}

	return resp.Songs[0].toSong(), nil
}

// SongURL resolves the download stream for a song at the requested bitrate
// in bits per second. An empty StreamSource.URL means the song is not
// available at that bitrate; callers fall back to a lower one.
func (c *Client) SongURL(ctx context.Context, songID, bitrate uint64) (*model.StreamSource, error) {
	form := url.Values{
		"ids": {fmt.Sprintf("[%d]", songID)},
		"br":  {strconv.FormatUint(bitrate, 10)},
	}

	var resp songURLResponse
	if err := c.postForm(ctx, "/api/song/enhance/player/url", form, &resp); err != nil {
		return nil, err
	}
	if resp.Code != http.StatusOK {
		return nil, fmt.Errorf("song url: API returned code %d", resp.Code)
	}
	if len(resp.Data) == 0 {
		return nil, ErrSongNotFound
	}

	return resp.Data[0].toStreamSource(), nil
}

// Lyric fetches the LRC-format lyric text for a song. Returns an empty
// string when the song has no lyrics.
func (c *Client) Lyric(ctx context.Context, songID uint64) (string, error) {
	endpoint := fmt.Sprintf("%s/api/song/lyric?id=%d&lv=1&tv=1", c.baseURL, songID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	c.setSessionCookie(req)

	var resp lyricResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.Code != http.StatusOK {
		return "", fmt.Errorf("lyric: API returned code %d", resp.Code)
	}
	if resp.Lrc == nil {
		return "", nil
	}

	return resp.Lrc.Lyric, nil
}

// Search looks up songs by keyword and returns up to limit matches.
func (c *Client) Search(ctx context.Context, keyword string, limit int) ([]*model.Song, error) {
	if limit < 1 {
		limit = 1
	}
	form := url.Values{
		"s":      {keyword},
		"type":   {"1"},
		"limit":  {strconv.Itoa(limit)},
		"offset": {"0"},
	}

	var resp searchResponse
	if err := c.postForm(ctx, "/api/search/get", form, &resp); err != nil {
		return nil, err
	}
	if resp.Code != http.StatusOK {
		return nil, fmt.Errorf("search: API returned code %d", resp.Code)
	}

	songs := make([]*model.Song, 0, len(resp.Result.Songs))
	for i := range resp.Result.Songs {
		songs = append(songs, resp.Result.Songs[i].toSong())
	}
	return songs, nil
}

// Download opens a streaming GET against a media URL, returning the body and
// the Content-Length (-1 if unknown). The caller owns closing the body.
//
// Some mirror hosts reject direct requests, so known-bad ones are rewritten
// to their working siblings before the request is made.
func (c *Client) Download(ctx context.Context, mediaURL string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rewriteMirrorHost(mediaURL), nil)
	if err != nil {
		return nil, 0, err
	}
	c.setSessionCookie(req)

	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Referer", "https://music.163.com/")
	req.Header.Set("Accept", "audio/mpeg, audio/*, */*")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return resp.Body, resp.ContentLength, nil
}

// FetchArtwork downloads album art into memory. Covers are small enough that
// streaming to disk is never worth it.
func (c *Client) FetchArtwork(ctx context.Context, picURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, picURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Referer", "https://music.163.com/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// postForm sends a form-encoded POST to an API path and decodes the JSON
// response into out.
func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.setSessionCookie(req)

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) setSessionCookie(req *http.Request) {
	if c.cookie != "" {
		req.Header.Set("Cookie", "MUSIC_U="+c.cookie)
	}
}

// mirrorRewrites maps download hosts that reject direct requests to their
// working siblings.
var mirrorRewrites = [][2]string{
	{"m8.", "m7."},
	{"m801.", "m701."},
	{"m804.", "m701."},
	{"m704.", "m701."},
}

func rewriteMirrorHost(mediaURL string) string {
	for _, r := range mirrorRewrites {
		mediaURL = strings.Replace(mediaURL, r[0], r[1], 1)
	}
	return mediaURL
}
