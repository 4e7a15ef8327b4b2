package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Settings holds all configuration options.
type Settings struct {
	// Catalog API settings
	CatalogBaseURL string `json:"catalog_base_url"`
	SessionCookie  string `json:"session_cookie"`

	// Transport settings
	TransportEndpoint string `json:"transport_endpoint"`
	TransportToken    string `json:"transport_token"`
	BotName           string `json:"bot_name"`

	// Storage settings
	StorageMode       string `json:"storage_mode"` // disk, memory, hybrid
	MemoryThresholdMB uint64 `json:"memory_threshold_mb"`
	MemoryBufferMB    uint64 `json:"memory_buffer_mb"`
	CacheDir          string `json:"cache_dir"`

	// Database settings
	DatabasePath string `json:"database_path"`

	// Download settings
	MaxConcurrentDownloads int64   `json:"max_concurrent_downloads"`
	DownloadTimeoutSeconds int     `json:"download_timeout_seconds"`
	DownloadMaxRetries     int     `json:"download_max_retries"`
	DownloadRetryCooldown  float64 `json:"download_retry_cooldown"`
	CheckMD5               bool    `json:"check_md5"`
	FetchLyrics            bool    `json:"fetch_lyrics"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		CatalogBaseURL: "https://music.163.com",

		BotName: "songferry",

		StorageMode:       "hybrid",
		MemoryThresholdMB: 100,
		MemoryBufferMB:    100,
		CacheDir:          filepath.Join(os.TempDir(), "songferry"),

		DatabasePath: "songferry.db",

		MaxConcurrentDownloads: 10,
		DownloadTimeoutSeconds: 120,
		DownloadMaxRetries:     3,
		DownloadRetryCooldown:  0.5,
		CheckMD5:               true,
		FetchLyrics:            false,
	}
}

// Load reads settings from a JSON file. A missing file is not an error:
// defaults are returned so a fresh install runs without configuration.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks settings for values the rest of the program cannot use.
func (s *Settings) Validate() error {
	switch s.StorageMode {
	case "disk", "memory", "hybrid":
	default:
		return fmt.Errorf("invalid storage_mode %q (want disk, memory or hybrid)", s.StorageMode)
	}

	if s.MaxConcurrentDownloads <= 0 {
		return fmt.Errorf("max_concurrent_downloads must be positive, got %d", s.MaxConcurrentDownloads)
	}

	if s.CacheDir == "" {
		return fmt.Errorf("cache_dir must not be empty")
	}

	return nil
}
