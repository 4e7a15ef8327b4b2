// Package store persists the song cache in SQLite.
//
// A SongRecord is written after every successful relay and carries the
// transport file ids, so a later request for the same song can be answered
// by re-sending the already-uploaded file instead of downloading again.
// Records are keyed by the catalog song id; Save upserts on that key.
package store
