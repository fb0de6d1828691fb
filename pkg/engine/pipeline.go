package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/openfroyo/scaffolder/pkg/executor"
	"github.com/openfroyo/scaffolder/pkg/progress"
	"github.com/openfroyo/scaffolder/pkg/telemetry"
)

// History records runs and their events.
type History interface {
	RunStarted(ctx context.Context, runID string, req Request, at time.Time) error
	RunEvent(ctx context.Context, runID string, ev progress.Event) error
	RunFinished(ctx context.Context, outcome *Outcome) error
}

// Admission decides whether a request may run. Warnings are reported to the
// observer; a non-nil error rejects the request before any filesystem work.
type Admission interface {
	Admit(ctx context.Context, req Request) (warnings []string, err error)
}

// Outcome summarizes a finished run.
type Outcome struct {
	RunID      string
	Project    string
	Status     RunStatus
	State      State
	Reached    State
	FailedStep StepName
	Err        error
	Modules    []string
	Submodules []string
	Warnings   int
	StartedAt  time.Time
	Duration   time.Duration
}

// Pipeline provisions projects under a projects root, one sequential run per
// request.
type Pipeline struct {
	runner       executor.Runner
	toolchain    Toolchain
	projectsRoot string
	defaults     Defaults
	tel          *telemetry.Telemetry
	history      History
	admission    Admission
	newID        func() string
	steps        []Step
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTelemetry sets logging, tracing and metrics.
func WithTelemetry(tel *telemetry.Telemetry) Option {
	return func(p *Pipeline) { p.tel = tel }
}

// WithHistory records every run in h.
func WithHistory(h History) Option {
	return func(p *Pipeline) { p.history = h }
}

// WithAdmission checks every request with a before running it.
func WithAdmission(a Admission) Option {
	return func(p *Pipeline) { p.admission = a }
}

// WithDefaults sets the values used for empty request fields.
func WithDefaults(d Defaults) Option {
	return func(p *Pipeline) { p.defaults = d }
}

// WithIDGenerator replaces the run ID generator.
func WithIDGenerator(f func() string) Option {
	return func(p *Pipeline) { p.newID = f }
}

// NewPipeline creates a pipeline that drives tc through runner and creates
// projects under projectsRoot.
func NewPipeline(runner executor.Runner, tc Toolchain, projectsRoot string, opts ...Option) (*Pipeline, error) {
	if runner == nil {
		return nil, errors.New("runner is required")
	}
	if projectsRoot == "" {
		return nil, errors.New("projects root is required")
	}

	p := &Pipeline{
		runner:       runner,
		toolchain:    tc,
		projectsRoot: projectsRoot,
		defaults:     DefaultDefaults(),
		tel:          telemetry.Nop(),
		newID:        uuid.NewString,
		steps:        defaultSteps(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := validateOrder(p.steps); err != nil {
		return nil, fmt.Errorf("invalid step order: %w", err)
	}
	return p, nil
}

// Steps returns the step sequence.
func (p *Pipeline) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Defaults returns the defaults applied to requests.
func (p *Pipeline) Defaults() Defaults {
	return p.defaults
}

// Plan returns the steps a run of req would execute, assuming every
// requested module verifies.
func (p *Pipeline) Plan(req Request) []StepName {
	r := &run{req: req, verified: req.Modules()}
	var names []StepName
	for _, step := range p.steps {
		if step.when == nil || step.when(r) {
			names = append(names, step.Name)
		}
	}
	return names
}

// Provision parses raw parameters against catalog and runs the result. A
// validation failure is reported on ch as a failure and Done(Error).
func (p *Pipeline) Provision(ctx context.Context, raw RawParams, catalog Catalog, ch progress.Channel) (*Outcome, error) {
	req, notices, err := ParseParams(raw, catalog, p.defaults)
	if err != nil {
		ch = progress.Guard(ch)
		var ee *EngineError
		msg := err.Error()
		if errors.As(err, &ee) {
			msg = ee.UserMessage()
			p.tel.Metrics.RecordError(string(ee.Class), ee.Code)
		}
		p.tel.Logger.WithError(err).Warn("Rejected provisioning request")
		_ = ch.Emit(ctx, progress.Failure(string(StepValidate), msg))
		_ = ch.Close(context.WithoutCancel(ctx), progress.StatusError)
		return &Outcome{Status: RunStatusFailed, State: StateDoneError, Reached: StateCreated, FailedStep: StepValidate, Err: err}, err
	}
	return p.Run(ctx, req, ch, notices...)
}

// Run executes every applicable step for req in order and reports progress on
// ch. The returned error is the fatal failure, if any; skippable failures are
// only reported as warnings. Cancelling ctx, or losing the observer, stops
// the run before the next step starts. A step already running finishes first.
func (p *Pipeline) Run(ctx context.Context, req Request, ch progress.Channel, notices ...Notice) (*Outcome, error) {
	runID := p.newID()
	started := time.Now()

	logger := p.tel.Logger.WithRunID(runID).WithProject(req.Project())

	ch = progress.Guard(ch)
	if p.history != nil {
		if err := p.history.RunStarted(context.WithoutCancel(ctx), runID, req, started); err != nil {
			logger.WithError(err).Warn("Failed to record run start")
		}
		ch = progress.Guard(progress.NewTee(logger.Zerolog(), ch, &historyChannel{history: p.history, runID: runID}))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctx, span := p.tel.Tracer.StartRunSpan(ctx, runID, req.Project())
	defer span.End()

	p.tel.Metrics.RecordRunStarted()
	logger.Info("Provisioning run started")

	r := &run{
		id:        runID,
		req:       req,
		target:    NewTarget(p.projectsRoot, req.Project(), p.toolchain),
		toolchain: p.toolchain,
		runner:    p.runner,
		ch:        ch,
		logger:    logger,
		metrics:   p.tel.Metrics,
		cancel:    cancel,
		state:     StateCreated,
		started:   started,
	}

	for _, n := range notices {
		switch n.Level {
		case NoticeInfo:
			r.info(ctx, StepValidate, "%s", n.Message)
		case NoticeWarning:
			r.warn(ctx, StepValidate, "%s", n.Message)
		default:
			logger.Warn(n.Message)
		}
	}

	if p.admission != nil {
		warnings, err := p.admission.Admit(ctx, req)
		for _, w := range warnings {
			r.warn(ctx, StepValidate, "%s", w)
		}
		if err != nil {
			var ee *EngineError
			if !errors.As(err, &ee) {
				err = NewValidationError("request rejected by policy", err).WithCode(ErrCodePolicyDenied)
			}
			return p.finish(ctx, span, r, StepValidate, err)
		}
	}

	for _, step := range p.steps {
		if ctx.Err() != nil {
			return p.finish(ctx, span, r, step.Name, p.cancelled(ctx))
		}
		if step.when != nil && !step.when(r) {
			logger.WithStep(string(step.Name)).Debug("Step not applicable")
			continue
		}

		err := p.execute(ctx, r, step)
		if err != nil {
			if ctx.Err() != nil {
				return p.finish(ctx, span, r, step.Name, p.cancelled(ctx))
			}
			if step.Class != ClassSkippable {
				return p.finish(ctx, span, r, step.Name, err)
			}
			r.warn(ctx, step.Name, "%s", userMessage(err))
		}
		if step.Reaches != "" {
			r.state = step.Reaches
		}
	}

	return p.finish(ctx, span, r, "", nil)
}

func (p *Pipeline) execute(ctx context.Context, r *run, step Step) error {
	stepCtx, span := p.tel.Tracer.StartStepSpan(ctx, string(step.Name), string(step.Class))
	defer span.End()

	start := time.Now()
	err := step.do(stepCtx, r)
	duration := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "failed"
		if step.Class == ClassSkippable {
			outcome = "warning"
		}
		telemetry.RecordError(span, err)
		var ee *EngineError
		if errors.As(err, &ee) {
			p.tel.Metrics.RecordError(string(ee.Class), ee.Code)
		}
	} else {
		telemetry.RecordSuccess(span)
	}
	p.tel.Metrics.RecordStep(string(step.Name), outcome, duration)
	r.logger.WithStep(string(step.Name)).WithField("duration", duration.String()).WithField("outcome", outcome).Debug("Step finished")
	return err
}

func (p *Pipeline) cancelled(ctx context.Context) error {
	return NewExecutionError("run cancelled", context.Cause(ctx)).WithCode(ErrCodeCancelled)
}

// finish emits the terminal record and records the outcome. failedAt is the
// step that stopped the run when err is non-nil.
func (p *Pipeline) finish(ctx context.Context, span trace.Span, r *run, failedAt StepName, err error) (*Outcome, error) {
	out := &Outcome{
		RunID:      r.id,
		Project:    r.req.Project(),
		Reached:    r.state,
		Modules:    r.verified,
		Submodules: r.target.Submodules(),
		Warnings:   r.warnings,
		StartedAt:  r.started,
		Duration:   time.Since(r.started),
	}

	final := context.WithoutCancel(ctx)
	status := progress.StatusSuccess

	var ee *EngineError
	switch {
	case err == nil:
		out.Status = RunStatusSucceeded
		out.State = StateDoneSuccess
		telemetry.RecordSuccess(span)
	case errors.As(err, &ee) && ee.Code == ErrCodeCancelled:
		out.Status = RunStatusCancelled
		out.State = StateDoneError
		out.FailedStep = failedAt
		out.Err = err
		status = progress.StatusError
		telemetry.RecordError(span, err)
		r.logger.Warn("Provisioning run cancelled")
	default:
		if ee != nil && ee.Step == "" && failedAt != "" {
			ee.WithStep(failedAt)
		}
		out.Status = RunStatusFailed
		out.State = StateDoneError
		out.FailedStep = failedAt
		out.Err = err
		status = progress.StatusError
		telemetry.RecordError(span, err)
		_ = r.ch.Emit(final, progress.Failure(string(failedAt), userMessage(err)))
		r.logger.WithStep(string(failedAt)).WithError(err).Error("Provisioning run failed")
	}

	if cerr := r.ch.Close(final, status); cerr != nil {
		r.logger.WithError(cerr).Debug("Observer did not receive the terminal record")
	}

	p.tel.Metrics.RecordRunCompleted(string(out.Status), out.Duration)
	if p.history != nil {
		if herr := p.history.RunFinished(final, out); herr != nil {
			r.logger.WithError(herr).Warn("Failed to record run outcome")
		}
	}
	if err == nil {
		r.logger.WithField("duration", out.Duration.String()).Info("Provisioning run succeeded")
	}
	return out, err
}

func userMessage(err error) string {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.UserMessage()
	}
	return err.Error()
}

// historyChannel forwards events to History. It never reports the observer
// as gone, and writes outlive cancellation of the run.
type historyChannel struct {
	history History
	runID   string
}

func (h *historyChannel) Emit(ctx context.Context, ev progress.Event) error {
	return h.history.RunEvent(context.WithoutCancel(ctx), h.runID, ev)
}

func (h *historyChannel) Close(ctx context.Context, status progress.Status) error {
	return h.history.RunEvent(context.WithoutCancel(ctx), h.runID, progress.Done(status))
}
