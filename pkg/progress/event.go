// Package progress carries the ordered event stream a provisioning run reports
// to its observer. Every stream ends with exactly one done record.
package progress

import (
	"strings"
	"time"
)

// Kind classifies an event.
type Kind string

const (
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindFailure Kind = "failure"
	KindDone    Kind = "done"
)

// Status is the terminal outcome carried by a done event.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Event is a single progress record.
type Event struct {
	Kind    Kind      `json:"kind"`
	Step    string    `json:"step,omitempty"`
	Message string    `json:"message,omitempty"`
	Status  Status    `json:"status,omitempty"`
	Time    time.Time `json:"time"`
}

// Info creates an informational event.
func Info(step, message string) Event {
	return Event{Kind: KindInfo, Step: step, Message: message, Time: time.Now().UTC()}
}

// Warning creates a warning event for a failure that did not stop the run.
func Warning(step, message string) Event {
	return Event{Kind: KindWarning, Step: step, Message: message, Time: time.Now().UTC()}
}

// Failure creates an event for the failure that stopped the run.
func Failure(step, message string) Event {
	return Event{Kind: KindFailure, Step: step, Message: message, Time: time.Now().UTC()}
}

// Done creates the terminal event.
func Done(status Status) Event {
	return Event{Kind: KindDone, Status: status, Time: time.Now().UTC()}
}

// Terminal reports whether e ends a stream.
func (e Event) Terminal() bool {
	return e.Kind == KindDone
}

// Text renders e as a single human readable line with a status glyph.
func (e Event) Text() string {
	msg := strings.TrimRight(e.Message, "\r\n")
	switch e.Kind {
	case KindWarning:
		return "⚠ " + msg
	case KindFailure:
		return "✖ " + msg
	case KindDone:
		if e.Status == StatusSuccess {
			return "✔ done"
		}
		return "✖ failed"
	default:
		return msg
	}
}
