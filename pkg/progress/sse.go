package progress

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// SetSSEHeaders prepares a response for an event stream that proxies must not
// buffer.
func SetSSEHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// SSE writes events as server-sent events. Regular events are `data:` records
// and the terminal record is an `event: done` record whose data is the status.
type SSE struct {
	w  io.Writer
	rc *http.ResponseController
}

// NewSSE creates an SSE channel over an HTTP response.
func NewSSE(w http.ResponseWriter) *SSE {
	return &SSE{w: w, rc: http.NewResponseController(w)}
}

// Emit implements Channel.
func (s *SSE) Emit(ctx context.Context, ev Event) error {
	if ctx.Err() != nil {
		return ErrDisconnected
	}
	var b strings.Builder
	for _, line := range strings.Split(ev.Text(), "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")
	return s.write(b.String())
}

// Close implements Channel.
func (s *SSE) Close(_ context.Context, status Status) error {
	return s.write(fmt.Sprintf("event: done\ndata: %s\n\n", status))
}

func (s *SSE) write(record string) error {
	if _, err := io.WriteString(s.w, record); err != nil {
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	return nil
}
