// Package config provides configuration management for songferry.
//
// This package handles:
//   - Loading and saving settings from JSON files
//   - Default configuration values
//   - Validation of storage and concurrency options
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Hybrid storage with a 100 MB threshold
//	// Up to 10 concurrent downloads
//	// MD5 verification enabled
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.json")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// # Saving Settings
//
//	settings.StorageMode = "memory"
//	err := settings.Save("/path/to/config.json")
//
// # Configuration Options
//
// Settings includes options for:
//   - Catalog API base URL and session cookie
//   - Outbound transport endpoint and bot identity
//   - Storage mode and memory thresholds
//   - Cache directory and database path
//   - Concurrent download limits and retry behavior
package config
