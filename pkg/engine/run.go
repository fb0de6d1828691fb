package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/openfroyo/scaffolder/pkg/executor"
	"github.com/openfroyo/scaffolder/pkg/progress"
	"github.com/openfroyo/scaffolder/pkg/telemetry"
)

// run is the mutable state of one pipeline execution. It is only touched by
// the goroutine executing the run.
type run struct {
	id        string
	req       Request
	target    *Target
	toolchain Toolchain
	runner    executor.Runner
	ch        progress.Channel
	logger    *telemetry.Logger
	metrics   *telemetry.Metrics
	cancel    context.CancelFunc
	started   time.Time

	state    State
	verified []string
	warnings int
	gone     bool
}

func (r *run) emit(ctx context.Context, ev progress.Event) {
	if r.gone {
		return
	}
	if err := r.ch.Emit(ctx, ev); err != nil {
		r.gone = true
		r.logger.WithError(err).Warn("Progress observer is gone; stopping after the current step")
		r.cancel()
	}
}

func (r *run) info(ctx context.Context, step StepName, format string, args ...any) {
	r.emit(ctx, progress.Info(string(step), fmt.Sprintf(format, args...)))
}

func (r *run) warn(ctx context.Context, step StepName, format string, args ...any) {
	r.warnings++
	r.metrics.RecordWarning(string(step))
	msg := fmt.Sprintf(format, args...)
	r.logger.WithStep(string(step)).Warn(msg)
	r.emit(ctx, progress.Warning(string(step), msg))
}

// stream runs cmd and forwards every output line as an info event. The
// returned error is an execution error describing what failed.
func (r *run) stream(ctx context.Context, step StepName, what string, cmd executor.Command) error {
	r.logger.WithStep(string(step)).WithField("command", cmd.String()).Debug("Starting tool")

	proc, err := r.runner.Start(ctx, cmd)
	if err != nil {
		return executionError(what, err)
	}
	for line := range proc.Lines() {
		r.emit(ctx, progress.Info(string(step), line))
	}
	if err := proc.Wait(); err != nil {
		return executionError(what, err)
	}
	return nil
}

// probe reports whether cmd exits zero. Output is discarded.
func (r *run) probe(ctx context.Context, cmd executor.Command) (bool, error) {
	return r.runner.Probe(ctx, cmd)
}

func executionError(what string, err error) *EngineError {
	ee := NewExecutionError(what, err)
	if executor.IsSpawn(err) {
		return ee.WithCode(ErrCodeSpawnFailed)
	}
	return ee.WithDetail("exit_code", executor.ExitCode(err))
}
