// Package ioutils provides file system utilities for songferry.
//
// This package contains functions for:
//   - File copying and writing
//   - Filename sanitization for cross-platform compatibility
//   - Directory creation
//   - MD5 checksum verification
//   - Human-readable size and duration formatting
//
// # File Operations
//
//	// Copy a file
//	err := ioutils.CopyFile(ctx, "/cache/12345.mp3", "/music/song.mp3")
//
//	// Write data to file
//	err := ioutils.WriteFile(ctx, "/music/song.lrc", lyricBytes)
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/var/cache/songferry")
//
// # Filename Sanitization
//
// Use SanitizeFileName to remove invalid characters from filenames:
//
//	safe := ioutils.SanitizeFileName("Song: Part 1/2") // Returns "Song_ Part 1_2"
//
// # Checksums and Formatting
//
//	ok, err := ioutils.VerifyMD5(file, expectedMD5)
//	fmt.Println(ioutils.FormatFileSize(9000000)) // "8.58 MB"
//	fmt.Println(ioutils.FormatDuration(245))     // "04:05"
package ioutils
