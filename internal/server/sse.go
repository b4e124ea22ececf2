package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// wordsPerChunk is the size of each streamed message fragment.
const wordsPerChunk = 3

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent("error", map[string]any{"success": false, "error": message}) //nolint:errcheck
}

// WriteComplete sends a completion event
func (s *SSEWriter) WriteComplete(sessionID, status string) {
	s.WriteEvent("complete", map[string]string{ //nolint:errcheck
		"session_id": sessionID,
		"status":     status,
	})
}

// StreamText re-chunks text into small word groups, pausing delay between
// chunks. It stops early when the client goes away.
func (s *SSEWriter) StreamText(ctx context.Context, text string, delay time.Duration) error {
	chunks := chunkWords(text, wordsPerChunk)
	for i, chunk := range chunks {
		if err := s.WriteEvent("chunk", map[string]any{"index": i, "text": chunk}); err != nil {
			return err
		}
		if delay <= 0 || i == len(chunks)-1 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil
}

// chunkWords splits text into groups of n words. Every chunk but the first
// carries a leading space so concatenating them rebuilds the text with
// normalized spacing.
func chunkWords(text string, n int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	chunks := make([]string, 0, (len(words)+n-1)/n)
	for i := 0; i < len(words); i += n {
		end := min(i+n, len(words))
		chunk := strings.Join(words[i:end], " ")
		if i > 0 {
			chunk = " " + chunk
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}
