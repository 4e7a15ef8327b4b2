// Package storage implements the smart-storage layer that buffers a
// downloading audio file in memory or on disk and post-processes the bytes
// with embedded metadata.
//
// # Storage policy
//
// Decide picks the backing store for each download from the configured Mode,
// the expected content length, and a live memory probe:
//
//	availableMB, _ := storage.SystemMemoryProbe()
//	dec := storage.Decide(storage.ModeHybrid, contentLength, availableMB, 100, 100)
//
// Disk mode always chooses disk. Memory mode chooses memory when enough is
// available and otherwise falls back to disk silently. Hybrid first rejects
// payloads over the size threshold, then applies the same availability
// check.
//
// # Buffers
//
// AudioBuffer streams chunks into whichever backing was chosen, then
// finalizes, measures, embeds tags, and converts to an outbound payload:
//
//	buf, err := storage.New(dec, filename, cacheDir, contentLength)
//	if err != nil {
//	    return err
//	}
//	defer buf.Cleanup()
//	io.Copy(buf, body)
//	buf.Finish()
//	buf.AddID3Tags(song, cover)
//	send(buf.Payload())
//
// ThumbnailBuffer is the simpler sibling for cover art, created from
// complete bytes with no tag logic.
//
// # Tag embedding
//
// AddID3Tags writes a fresh ID3v2.4 tag (title, album, artists, length,
// front cover). On the memory variant the old tag is located by decoding the
// syncsafe size field and spliced out; audio frames are never touched.
// AddFLACPicture walks the FLAC metadata-block chain to the audio start,
// replaces any existing front-cover PICTURE block, and reassembles metadata
// plus the original audio tail.
//
// Embedding failures are recoverable: callers log them and ship the file
// without the new metadata. Cleanup is best-effort and safe on every path.
package storage
