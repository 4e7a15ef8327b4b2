// Package catalog implements the client for the remote music-catalog API.
//
// The API wraps every JSON payload in a numeric "code" envelope where 200
// means success. The client exposes the four lookups the download pipeline
// needs (SongDetail, SongURL, Lyric, Search) plus streaming media download
// and artwork fetch, and converts the wire DTOs into the model types the
// rest of the program works with.
//
// Example:
//
//	client := catalog.NewClient("https://music.163.com", sessionCookie)
//
//	song, err := client.SongDetail(ctx, 12345)
//	stream, err := client.SongURL(ctx, 12345, 320000)
//	body, length, err := client.Download(ctx, stream.URL)
//
// ParseSongID turns free-form user input (catalog URLs, share links, bare
// numbers) into a song id.
package catalog
