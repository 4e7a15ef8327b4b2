package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aquilora/songferry/internal/model"
)

// HTTPSender delivers payloads to a bot-gateway endpoint as multipart POST
// requests. Disk-backed payloads are streamed from their file, never loaded
// into memory; in-memory payloads are written directly from their bytes.
//
// Example:
//
//	sender := transport.NewHTTPSender("https://gateway.example.com", token)
//	receipt, err := sender.SendAudio(ctx, &transport.AudioMessage{
//	    Payload: buf.Payload(),
//	    Caption: caption,
//	})
type HTTPSender struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

// NewHTTPSender creates a sender for the given gateway endpoint.
func NewHTTPSender(endpoint, token string) *HTTPSender {
	return &HTTPSender{
		httpClient: &http.Client{
			// Uploads of large audio files need generous headroom.
			Timeout: 5 * time.Minute,
		},
		endpoint: endpoint,
		token:    token,
	}
}

// SendAudio transmits the payload as an audio message.
func (s *HTTPSender) SendAudio(ctx context.Context, msg *AudioMessage) (*Receipt, error) {
	return s.send(ctx, "/sendAudio", "audio", msg)
}

// SendDocument transmits the payload as a plain file.
func (s *HTTPSender) SendDocument(ctx context.Context, msg *AudioMessage) (*Receipt, error) {
	return s.send(ctx, "/sendDocument", "document", msg)
}

// SendCached re-sends a previously uploaded payload by file id.
func (s *HTTPSender) SendCached(ctx context.Context, fileID, caption string) error {
	form := url.Values{
		"file_id": {fileID},
		"caption": {caption},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/sendCachedAudio",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var decoded sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("decoding send response: %w", err)
	}
	if !decoded.OK {
		return fmt.Errorf("cached send rejected: %s", decoded.Description)
	}
	return nil
}

type sendResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	FileID      string `json:"file_id"`
	ThumbFileID string `json:"thumb_file_id"`
}

func (s *HTTPSender) send(ctx context.Context, path, fileField string, msg *AudioMessage) (*Receipt, error) {
	// The multipart body is streamed through a pipe so disk payloads never
	// have to be materialized in memory.
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(writer, fileField, msg))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+path, pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var decoded sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding send response: %w", err)
	}
	if !decoded.OK {
		return nil, fmt.Errorf("send rejected: %s", decoded.Description)
	}

	return &Receipt{FileID: decoded.FileID, ThumbFileID: decoded.ThumbFileID}, nil
}

func writeMultipart(writer *multipart.Writer, fileField string, msg *AudioMessage) error {
	fields := map[string]string{
		"caption":   msg.Caption,
		"title":     msg.Title,
		"performer": msg.Performer,
	}
	if msg.DurationSeconds > 0 {
		fields["duration"] = strconv.FormatUint(msg.DurationSeconds, 10)
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return err
		}
	}

	if err := writePayloadPart(writer, fileField, msg.Payload); err != nil {
		return err
	}
	if msg.Thumb != nil {
		if err := writePayloadPart(writer, "thumbnail", msg.Thumb); err != nil {
			return err
		}
	}

	return writer.Close()
}

func writePayloadPart(writer *multipart.Writer, field string, payload *model.Payload) error {
	part, err := writer.CreateFormFile(field, payload.Filename)
	if err != nil {
		return err
	}

	if payload.InMemory() {
		_, err = part.Write(payload.Data)
		return err
	}

	file, err := os.Open(payload.Path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(part, file)
	return err
}
