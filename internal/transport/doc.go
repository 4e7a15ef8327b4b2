// Package transport delivers finished audio payloads to their destination.
//
// Sender is the narrow interface the download pipeline hands its results
// to: SendAudio for a playable audio message, SendDocument as the fallback
// for payloads the audio form rejects. Payloads arrive as either a file
// path (read lazily, streamed out) or in-memory bytes, matching the two
// storage backings.
//
// Two implementations exist: HTTPSender posts multipart requests to a
// bot-gateway endpoint, and DirectorySender writes files into a local
// directory for the command-line front-end.
package transport
