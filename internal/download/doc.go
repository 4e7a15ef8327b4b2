// Package download orchestrates song deliveries end to end.
//
// # Manager
//
// The Manager coordinates the entire delivery of one song:
//
//  1. Check the record cache and re-send by file id when possible
//  2. Fetch song metadata from the catalog
//  3. Resolve a stream URL, walking the quality ladder downward
//  4. Download audio and album artwork concurrently into a policy-chosen buffer
//  5. Validate size and checksum
//  6. Embed ID3 tags or a FLAC picture block
//  7. Send through the transport and record the result
//
// # Basic Usage
//
//	manager, err := download.NewManager(settings, catalogClient, sender, records,
//	    func(event download.ProgressEvent) {
//	        fmt.Println(event.Message)
//	    })
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = manager.Deliver(ctx, songID, &download.Origin{UserName: "ada"})
//
// # Concurrency
//
// A weighted semaphore sized by settings.MaxConcurrentDownloads bounds how
// many deliveries run at once. Deliver blocks until a slot frees up and
// honors context cancellation while waiting.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
//
// # Failure Semantics
//
// Audio download failures are retried per settings.DownloadMaxRetries and
// then abort the delivery. Artwork and tag-embedding failures only degrade
// the result: the song still ships, without a cover.
package download
