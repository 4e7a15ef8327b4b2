package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SongRecord is one cached catalog entry: a song that was downloaded and
// relayed at least once, with the transport file ids that allow re-sending
// it without another download.
type SongRecord struct {
	ID     uint  `gorm:"primaryKey"`
	SongID int64 `gorm:"uniqueIndex;not null"`

	Name    string
	Artists string
	Album   string
	FileExt string

	AudioSize  int64
	ThumbSize  int64
	EmbPicSize int64
	Bitrate    int64
	DurationMS int64

	// Transport identifiers for re-sending without re-uploading.
	FileID      string
	ThumbFileID string

	FromUserID   int64
	FromUserName string
	FromChatID   int64
	FromChatName string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists song records keyed by their catalog song id.
type Store interface {
	// GetBySongID returns the record for a song id, or nil if none exists.
	GetBySongID(songID int64) (*SongRecord, error)

	// Save inserts the record, or updates the existing one with the same
	// song id.
	Save(record *SongRecord) error

	// DeleteBySongID removes the record for a song id. Deleting a missing
	// record is not an error.
	DeleteBySongID(songID int64) error

	// Count reports the number of cached records.
	Count() (int64, error)

	// CountByUser reports how many records a user has requested.
	CountByUser(userID int64) (int64, error)

	// CountByChat reports how many records originated from a chat.
	CountByChat(chatID int64) (int64, error)

	// Close releases the underlying database handle.
	Close() error
}

type sqliteStore struct {
	db *gorm.DB
}

// Open opens (creating if necessary) a SQLite-backed store at path.
// Use ":memory:" for an ephemeral store.
func Open(path string) (Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}

	if err := db.AutoMigrate(&SongRecord{}); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) GetBySongID(songID int64) (*SongRecord, error) {
	var record SongRecord
	err := s.db.Where("song_id = ?", songID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *sqliteStore) Save(record *SongRecord) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "song_id"}},
		UpdateAll: true,
	}).Create(record).Error
}

func (s *sqliteStore) DeleteBySongID(songID int64) error {
	return s.db.Where("song_id = ?", songID).Delete(&SongRecord{}).Error
}

func (s *sqliteStore) Count() (int64, error) {
	var count int64
	err := s.db.Model(&SongRecord{}).Count(&count).Error
	return count, err
}

func (s *sqliteStore) CountByUser(userID int64) (int64, error) {
	var count int64
	err := s.db.Model(&SongRecord{}).Where("from_user_id = ?", userID).Count(&count).Error
	return count, err
}

func (s *sqliteStore) CountByChat(chatID int64) (int64, error) {
	var count int64
	err := s.db.Model(&SongRecord{}).Where("from_chat_id = ?", chatID).Count(&count).Error
	return count, err
}

func (s *sqliteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
