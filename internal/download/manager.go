package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/aquilora/songferry/internal/catalog"
	"github.com/aquilora/songferry/internal/config"
	"github.com/aquilora/songferry/internal/imaging"
	ioutils "github.com/aquilora/songferry/internal/io"
	"github.com/aquilora/songferry/internal/model"
	"github.com/aquilora/songferry/internal/storage"
	"github.com/aquilora/songferry/internal/store"
	"github.com/aquilora/songferry/internal/transport"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a delivery progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// MinViableSize is the smallest payload accepted as a real media file.
// Anything under it is treated as a failed or truncated download.
const MinViableSize = 1024

// thumbnailEdge is the square thumbnail size sent alongside audio.
const thumbnailEdge = 320

// Bitrate tiers. Lossless requires a session cookie; anonymous requests get
// the standard MP3 tiers.
var (
	cookieQualityLadder = []uint64{bitrateLossless, bitrateHigh}
	anonQualityLadder   = []uint64{bitrateHigh, bitrateStandard}
)

const (
	bitrateLossless = 999000
	bitrateHigh     = 320000
	bitrateStandard = 128000
)

// ErrNoStream is returned when no bitrate tier yields a playable URL.
var ErrNoStream = errors.New("no playable stream available")

// Catalog is the slice of the catalog client the manager depends on.
type Catalog interface {
	SongDetail(ctx context.Context, songID uint64) (*model.Song, error)
	SongURL(ctx context.Context, songID, bitrate uint64) (*model.StreamSource, error)
	Lyric(ctx context.Context, songID uint64) (string, error)
	Download(ctx context.Context, mediaURL string) (io.ReadCloser, int64, error)
	FetchArtwork(ctx context.Context, picURL string) ([]byte, error)
}

// Origin identifies who asked for a song, recorded with the cache entry.
type Origin struct {
	UserID   int64
	UserName string
	ChatID   int64
	ChatName string
}

// Manager coordinates song deliveries: catalog lookups, the storage-policy
// buffered download, tag embedding, transport and the record cache.
//
// A process-wide admission gate bounds how many deliveries run at once;
// Deliver blocks until a slot is free and releases it on every path.
type Manager struct {
	settings *config.Settings
	catalog  Catalog
	sender   transport.Sender
	records  store.Store
	images   *imaging.Service

	mode  storage.Mode
	probe storage.MemoryProbe
	gate  *semaphore.Weighted

	onProgress func(ProgressEvent)
}

// NewManager creates a delivery Manager.
//
// records may be nil to disable the song cache. onProgress may be nil.
func NewManager(settings *config.Settings, cat Catalog, sender transport.Sender, records store.Store, onProgress func(ProgressEvent)) (*Manager, error) {
	mode, err := storage.ParseMode(settings.StorageMode)
	if err != nil {
		return nil, err
	}
	if err := ioutils.EnsureDir(settings.CacheDir); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	return &Manager{
		settings:   settings,
		catalog:    cat,
		sender:     sender,
		records:    records,
		images:     imaging.NewService(),
		mode:       mode,
		probe:      storage.SystemMemoryProbe,
		gate:       semaphore.NewWeighted(settings.MaxConcurrentDownloads),
		onProgress: onProgress,
	}, nil
}

// SetMemoryProbe replaces the live system probe, for deterministic tests.
func (m *Manager) SetMemoryProbe(probe storage.MemoryProbe) {
	m.probe = probe
}

// Deliver downloads one song and sends it through the transport.
//
// The full sequence: cache check, metadata lookup, stream resolution with
// quality fallback, policy-buffered download with concurrent artwork fetch,
// size and checksum validation, tag embedding, send (with document
// fallback), record upsert. Buffer cleanup runs on every path.
func (m *Manager) Deliver(ctx context.Context, songID uint64, origin *Origin) error {
	if err := m.gate.Acquire(ctx, 1); err != nil {
		return err
	}
	defer m.gate.Release(1)

	if m.settings.DownloadTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.settings.DownloadTimeoutSeconds)*time.Second)
		defer cancel()
	}

	if m.sendFromCache(ctx, songID) {
		return nil
	}

	song, err := m.catalog.SongDetail(ctx, songID)
	if err != nil {
		return fmt.Errorf("looking up song %d: %w", songID, err)
	}
	m.progress(ProgressEvent{Message: fmt.Sprintf("Found: %s - %s", song.ArtistLine(), song.Name), Level: LevelInfo})

	stream, err := m.resolveStream(ctx, songID)
	if err != nil {
		return err
	}

	ext := stream.Ext()
	filename := ioutils.SanitizeFileName(fmt.Sprintf("%s - %s.%s", song.ArtistLine(), song.Name, ext))

	buf, err := m.createBuffer(stream, filename)
	if err != nil {
		return err
	}
	defer buf.Cleanup()

	artwork, err := m.downloadStreams(ctx, song, stream, buf)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", filename, err)
	}

	if err := buf.Finish(); err != nil {
		return err
	}

	size := buf.Size()
	if size < MinViableSize {
		return fmt.Errorf("downloaded file invalid: %d bytes", size)
	}

	if m.settings.CheckMD5 && stream.MD5 != "" {
		if err := m.verifyChecksum(buf, stream.MD5); err != nil {
			return err
		}
	}

	m.embedTags(buf, song, ext, artwork)

	thumb, thumbPayload := m.makeThumbnail(songID, artwork)
	if thumb != nil {
		defer thumb.Cleanup()
	}

	caption := model.Caption(song, ext, size, stream.Bitrate, m.settings.BotName)
	msg := &transport.AudioMessage{
		Payload:         buf.Payload(),
		Caption:         caption,
		Title:           song.Name,
		Performer:       song.ArtistLine(),
		DurationSeconds: song.DurationSeconds(),
		Thumb:           thumbPayload,
	}

	receipt, err := m.sender.SendAudio(ctx, msg)
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Audio send failed, retrying as document: %v", err), Level: LevelWarning})
		receipt, err = m.sender.SendDocument(ctx, msg)
		if err != nil {
			return fmt.Errorf("sending %s: %w", filename, err)
		}
	}

	m.saveRecord(song, stream, ext, size, receipt, origin, len(artwork))

	m.progress(ProgressEvent{Message: fmt.Sprintf("Delivered: %s (%s)", filename, ioutils.FormatFileSize(size)), Level: LevelSuccess})
	return nil
}

// Lyric fetches the LRC lyric text for a song.
func (m *Manager) Lyric(ctx context.Context, songID uint64) (string, error) {
	return m.catalog.Lyric(ctx, songID)
}

// DeliverLyric fetches the lyric, writes it as an .lrc file and sends it as
// a document. The temporary file is removed after the send.
func (m *Manager) DeliverLyric(ctx context.Context, songID uint64) error {
	song, err := m.catalog.SongDetail(ctx, songID)
	if err != nil {
		return fmt.Errorf("looking up song %d: %w", songID, err)
	}

	lyric, err := m.catalog.Lyric(ctx, songID)
	if err != nil {
		return fmt.Errorf("fetching lyric for %d: %w", songID, err)
	}
	if lyric == "" {
		return fmt.Errorf("no lyric available for %s", song.Name)
	}

	filename := ioutils.SanitizeFileName(fmt.Sprintf("%s - %s.lrc", song.ArtistLine(), song.Name))
	path := filepath.Join(m.settings.CacheDir, filename)
	if err := ioutils.WriteFile(ctx, path, []byte(lyric)); err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("removing lyric file failed", "path", path, "error", err)
		}
	}()

	_, err = m.sender.SendDocument(ctx, &transport.AudioMessage{
		Payload: &model.Payload{Path: path, Filename: filename},
		Caption: fmt.Sprintf("「%s」- %s\nvia @%s", song.Name, song.ArtistLine(), m.settings.BotName),
	})
	if err != nil {
		return fmt.Errorf("sending lyric %s: %w", filename, err)
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Lyric delivered: %s", filename), Level: LevelSuccess})
	return nil
}

// sendFromCache attempts delivery via a cached transport file id. Returns
// true when the cached copy went out; a stale record is removed so the
// caller proceeds with a fresh download.
func (m *Manager) sendFromCache(ctx context.Context, songID uint64) bool {
	if m.records == nil {
		return false
	}

	record, err := m.records.GetBySongID(int64(songID))
	if err != nil || record == nil || record.FileID == "" {
		return false
	}

	// Undersized entries are failed downloads that slipped in; purge them.
	if record.AudioSize < MinViableSize {
		if err := m.records.DeleteBySongID(int64(songID)); err != nil {
			slog.Warn("purging undersized record failed", "song_id", songID, "error", err)
		}
		return false
	}

	caption := fmt.Sprintf("「%s」- %s\nvia @%s", record.Name, record.Artists, m.settings.BotName)

	if err := m.sender.SendCached(ctx, record.FileID, caption); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Cached copy invalid, re-downloading: %v", err), Level: LevelWarning})
		if err := m.records.DeleteBySongID(int64(songID)); err != nil {
			slog.Warn("deleting stale record failed", "song_id", songID, "error", err)
		}
		return false
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Sent from cache: %s", record.Name), Level: LevelSuccess})
	return true
}

// resolveStream walks the quality ladder until a tier yields a URL.
func (m *Manager) resolveStream(ctx context.Context, songID uint64) (*model.StreamSource, error) {
	ladder := anonQualityLadder
	if m.settings.SessionCookie != "" {
		ladder = cookieQualityLadder
	}

	for _, bitrate := range ladder {
		stream, err := m.catalog.SongURL(ctx, songID, bitrate)
		if err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Bitrate %d unavailable: %v", bitrate, err), Level: LevelVerbose})
			continue
		}
		if stream.URL == "" {
			continue
		}
		if bitrate != ladder[0] {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Falling back to %d bps", stream.Bitrate), Level: LevelVerbose})
		}
		return stream, nil
	}
	return nil, ErrNoStream
}

// createBuffer applies the storage policy and allocates the audio buffer.
func (m *Manager) createBuffer(stream *model.StreamSource, filename string) (*storage.AudioBuffer, error) {
	availableMB, err := m.probe()
	if err != nil {
		slog.Warn("memory probe failed, using disk", "error", err)
		availableMB = 0
	}

	decision := storage.Decide(m.mode, stream.Size, availableMB, m.settings.MemoryThresholdMB, m.settings.MemoryBufferMB)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Buffering %s via %s", ioutils.FormatFileSize(stream.Size), decision), Level: LevelVerbose})

	return storage.New(decision, filename, m.settings.CacheDir, stream.Size)
}

// downloadStreams runs the audio download and the artwork fetch as two
// independent tasks. The audio path is mandatory; artwork failure degrades
// to delivering without a cover.
func (m *Manager) downloadStreams(ctx context.Context, song *model.Song, stream *model.StreamSource, buf *storage.AudioBuffer) ([]byte, error) {
	var artwork []byte

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Only connecting is retried. A mid-stream failure would leave
		// partial bytes in the buffer, so it aborts instead.
		var body io.ReadCloser
		err := m.withRetries(ctx, func() error {
			var err error
			body, _, err = m.catalog.Download(ctx, stream.URL)
			return err
		})
		if err != nil {
			return err
		}
		defer body.Close()

		_, err = io.Copy(buf, body)
		return err
	})

	g.Go(func() error {
		if song.Album == nil || song.Album.PicURL == "" {
			return nil
		}
		raw, err := m.catalog.FetchArtwork(ctx, song.Album.PicURL)
		if err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Artwork download failed: %v", err), Level: LevelWarning})
			return nil
		}
		normalized, err := m.images.ResizeWithPadding(ctx, raw, thumbnailEdge, thumbnailEdge)
		if err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Artwork processing failed: %v", err), Level: LevelWarning})
			return nil
		}
		artwork = normalized
		return nil
	})

	if err := g.Wait(); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Audio download failed: %v", err), Level: LevelError})
		return nil, err
	}
	return artwork, nil
}

func (m *Manager) verifyChecksum(buf *storage.AudioBuffer, expected string) error {
	var reader io.Reader
	if buf.InMemory() {
		data, err := buf.Bytes()
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		file, err := os.Open(buf.Path())
		if err != nil {
			return err
		}
		defer file.Close()
		reader = file
	}

	ok, err := ioutils.VerifyMD5(reader, expected)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("checksum mismatch, expected %s", expected)
	}
	return nil
}

// embedTags is best-effort: tag loss is cosmetic, so failures log and the
// file ships as downloaded.
func (m *Manager) embedTags(buf *storage.AudioBuffer, song *model.Song, ext string, artwork []byte) {
	var err error
	switch ext {
	case "mp3":
		err = buf.AddID3Tags(song, artwork)
	case "flac":
		err = buf.AddFLACPicture(artwork)
	}
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Tag embedding failed, sending untagged: %v", err), Level: LevelWarning})
		slog.Warn("tag embedding failed", "song_id", song.ID, "ext", ext, "error", err)
	}
}

func (m *Manager) makeThumbnail(songID uint64, artwork []byte) (*storage.ThumbnailBuffer, *model.Payload) {
	if len(artwork) == 0 {
		return nil, nil
	}

	thumb, err := storage.NewThumbnail(m.mode, artwork, fmt.Sprintf("%d-thumb.jpg", songID), m.settings.CacheDir)
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Thumbnail buffering failed: %v", err), Level: LevelWarning})
		return nil, nil
	}
	return thumb, thumb.Payload()
}

func (m *Manager) saveRecord(song *model.Song, stream *model.StreamSource, ext string, size uint64, receipt *transport.Receipt, origin *Origin, thumbSize int) {
	if m.records == nil {
		return
	}

	record := &store.SongRecord{
		SongID:     int64(song.ID),
		Name:       song.Name,
		Artists:    song.ArtistLine(),
		Album:      song.AlbumName(),
		FileExt:    ext,
		AudioSize:  int64(size),
		ThumbSize:  int64(thumbSize),
		EmbPicSize: int64(thumbSize),
		Bitrate:    int64(stream.Bitrate),
		DurationMS: int64(song.DurationMS),
	}
	if receipt != nil {
		record.FileID = receipt.FileID
		record.ThumbFileID = receipt.ThumbFileID
	}
	if origin != nil {
		record.FromUserID = origin.UserID
		record.FromUserName = origin.UserName
		record.FromChatID = origin.ChatID
		record.FromChatName = origin.ChatName
	}

	if err := m.records.Save(record); err != nil {
		slog.Warn("saving song record failed", "song_id", song.ID, "error", err)
	}
}

// withRetries runs fn up to the configured retry count with a cooldown
// between attempts.
func (m *Manager) withRetries(ctx context.Context, fn func() error) error {
	attempts := m.settings.DownloadMaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for try := 0; try < attempts; try++ {
		if err = fn(); err == nil {
			return nil
		}
		if try < attempts-1 {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Retry %d/%d: %v", try+1, attempts-1, err), Level: LevelWarning})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(m.settings.DownloadRetryCooldown * float64(time.Second))):
			}
		}
	}
	return err
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}

var _ Catalog = (*catalog.Client)(nil)
