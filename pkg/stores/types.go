package stores

import (
	"context"
	"errors"
	"time"

	"github.com/openfroyo/scaffolder/pkg/engine"
	"github.com/openfroyo/scaffolder/pkg/progress"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// Run is the recorded history of one provisioning run.
type Run struct {
	ID          string           `json:"id"`
	Project     string           `json:"project"`
	Request     string           `json:"request"` // JSON blob, credentials redacted
	Status      engine.RunStatus `json:"status"`
	State       engine.State     `json:"state"`
	Reached     engine.State     `json:"reached"`
	FailedStep  *string          `json:"failed_step,omitempty"`
	Error       *string          `json:"error,omitempty"`
	Warnings    int              `json:"warnings"`
	Modules     []string         `json:"modules"`
	Submodules  []string         `json:"submodules"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Duration    time.Duration    `json:"duration"`
}

// Event is one recorded progress event of a run.
type Event struct {
	ID        int64           `json:"id"`
	RunID     string          `json:"run_id"`
	Kind      progress.Kind   `json:"kind"`
	Step      string          `json:"step,omitempty"`
	Message   string          `json:"message,omitempty"`
	Status    progress.Status `json:"status,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Progress converts e back into the event the run emitted.
func (e *Event) Progress() progress.Event {
	return progress.Event{
		Kind:    e.Kind,
		Step:    e.Step,
		Message: e.Message,
		Status:  e.Status,
		Time:    e.Timestamp,
	}
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	Project string
	Status  engine.RunStatus
	Limit   int
	Offset  int
}

// Store defines the interface for the persistence layer
type Store interface {
	engine.History

	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Run operations
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error)
	DeleteRun(ctx context.Context, id string) error
	PruneRuns(ctx context.Context, before time.Time) (int64, error)

	// Event operations
	ListEvents(ctx context.Context, runID string) ([]*Event, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
