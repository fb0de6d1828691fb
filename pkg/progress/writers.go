package progress

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Console prints events for a terminal.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a Console channel writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Emit implements Channel.
func (c *Console) Emit(_ context.Context, ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.w, ev.Text())
	return err
}

// Close implements Channel.
func (c *Console) Close(_ context.Context, status Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.w, Done(status).Text())
	return err
}

// JSONLines writes one JSON object per event and flushes after each.
type JSONLines struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewJSONLines creates a JSONLines channel writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	return &JSONLines{w: bufio.NewWriter(w)}
}

// Emit implements Channel.
func (j *JSONLines) Emit(_ context.Context, ev Event) error {
	return j.encode(ev)
}

// Close implements Channel.
func (j *JSONLines) Close(_ context.Context, status Status) error {
	return j.encode(Done(status))
}

func (j *JSONLines) encode(ev Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := j.w.Write(data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if err := j.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := j.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit implements Channel.
func (r *Recorder) Emit(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Close implements Channel.
func (r *Recorder) Close(_ context.Context, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Done(status))
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kind of every recorded event, in order.
func (r *Recorder) Kinds() []Kind {
	events := r.Events()
	kinds := make([]Kind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
	}
	return kinds
}

// Filter returns the recorded events of the given kind.
func (r *Recorder) Filter(kind Kind) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// Status returns the terminal status and whether the stream was closed.
func (r *Recorder) Status() (Status, bool) {
	events := r.Events()
	if len(events) == 0 || !events[len(events)-1].Terminal() {
		return "", false
	}
	return events[len(events)-1].Status, true
}
