package progress

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var (
	// ErrClosed is returned when emitting on a channel that already carried
	// its done record.
	ErrClosed = errors.New("progress channel closed")

	// ErrDisconnected is returned when the observer is gone.
	ErrDisconnected = errors.New("progress observer disconnected")
)

// Channel receives the events of one run, in order.
type Channel interface {
	// Emit delivers a non-terminal event. A non-nil error means the
	// observer can no longer receive events.
	Emit(ctx context.Context, ev Event) error

	// Close delivers the single terminal record.
	Close(ctx context.Context, status Status) error
}

type guarded struct {
	mu     sync.Mutex
	inner  Channel
	closed bool
}

// Guard wraps ch so that it carries exactly one terminal record: emits after
// Close fail with ErrClosed, done events must go through Close, and repeated
// Close calls are no-ops.
func Guard(ch Channel) Channel {
	if g, ok := ch.(*guarded); ok {
		return g
	}
	return &guarded{inner: ch}
}

func (g *guarded) Emit(ctx context.Context, ev Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	if ev.Terminal() {
		return errors.New("done events must be sent with Close")
	}
	return g.inner.Emit(ctx, ev)
}

func (g *guarded) Close(ctx context.Context, status Status) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil
	}
	g.closed = true
	return g.inner.Close(ctx, status)
}

// Tee fans events out to a primary channel and any number of secondary ones.
// Only the primary decides whether the observer is still there; secondary
// failures are logged and otherwise ignored.
type Tee struct {
	primary   Channel
	secondary []Channel
	logger    zerolog.Logger
}

// NewTee creates a Tee.
func NewTee(logger zerolog.Logger, primary Channel, secondary ...Channel) *Tee {
	return &Tee{primary: primary, secondary: secondary, logger: logger}
}

// Emit implements Channel.
func (t *Tee) Emit(ctx context.Context, ev Event) error {
	for _, ch := range t.secondary {
		if err := ch.Emit(ctx, ev); err != nil {
			t.logger.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("Secondary progress channel rejected event")
		}
	}
	return t.primary.Emit(ctx, ev)
}

// Close implements Channel.
func (t *Tee) Close(ctx context.Context, status Status) error {
	for _, ch := range t.secondary {
		if err := ch.Close(ctx, status); err != nil {
			t.logger.Warn().Err(err).Msg("Secondary progress channel failed to close")
		}
	}
	return t.primary.Close(ctx, status)
}
