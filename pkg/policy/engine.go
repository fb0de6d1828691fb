package policy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog"

	"github.com/openfroyo/scaffolder/pkg/engine"
)

// Engine evaluates Rego policies against provisioning requests. It
// implements engine.Admission.
type Engine struct {
	mu       sync.RWMutex
	policies map[string]*compiledPolicy
	logger   zerolog.Logger
	loader   *Loader
	defaults engine.Defaults
}

var _ engine.Admission = (*Engine)(nil)

// compiledPolicy represents a compiled Rego policy.
type compiledPolicy struct {
	policy   Policy
	deny     rego.PreparedEvalQuery
	warn     rego.PreparedEvalQuery
	compiled time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaults sets the request defaults used to detect default credentials.
func WithDefaults(d engine.Defaults) Option {
	return func(e *Engine) { e.defaults = d }
}

// NewEngine creates a new policy engine with the built-in policies loaded.
func NewEngine(logger zerolog.Logger, opts ...Option) (*Engine, error) {
	e := &Engine{
		policies: make(map[string]*compiledPolicy),
		logger:   logger.With().Str("component", "policy-engine").Logger(),
		defaults: engine.DefaultDefaults(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.loader = NewLoader(e.logger)

	ctx := context.Background()
	for _, p := range GetBuiltinPolicies() {
		cp, err := compile(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile built-in policy %s: %w", p.Name, err)
		}
		e.policies[p.Name] = cp
	}

	e.logger.Debug().Int("count", len(e.policies)).Msg("Built-in policies loaded")
	return e, nil
}

// Admit implements engine.Admission. Blocking violations reject the request
// with a validation error; everything else is returned as warnings.
func (e *Engine) Admit(ctx context.Context, req engine.Request) ([]string, error) {
	result, err := e.Evaluate(ctx, NewInput(req, e.defaults))
	if err != nil {
		return nil, err
	}

	warnings := make([]string, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		warnings = append(warnings, w.Message)
	}
	if result.Allowed {
		return warnings, nil
	}

	messages := make([]string, 0, len(result.Violations))
	names := make([]string, 0, len(result.Violations))
	for _, v := range result.Violations {
		messages = append(messages, v.Message)
		names = append(names, v.Policy)
	}
	return warnings, engine.NewValidationError(strings.Join(messages, "; "), nil).
		WithCode(engine.ErrCodePolicyDenied).
		WithDetail("policies", names)
}

// Evaluate runs every enabled policy against input. A policy that fails to
// evaluate is reported as a warning and does not block.
func (e *Engine) Evaluate(ctx context.Context, input *Input) (*Result, error) {
	start := time.Now()

	e.mu.RLock()
	policies := make([]*compiledPolicy, 0, len(e.policies))
	for _, cp := range e.policies {
		if cp.policy.Enabled {
			policies = append(policies, cp)
		}
	}
	e.mu.RUnlock()

	sort.Slice(policies, func(i, j int) bool {
		return policies[i].policy.Name < policies[j].policy.Name
	})

	result := &Result{Allowed: true, EvaluatedAt: start}
	for _, cp := range policies {
		result.EvaluatedPolicies = append(result.EvaluatedPolicies, cp.policy.Name)

		denied, err := evalRule(ctx, cp.deny, input)
		if err == nil {
			var warned []interface{}
			warned, err = evalRule(ctx, cp.warn, input)
			for _, w := range warned {
				v := violation(cp.policy, w)
				v.Severity = SeverityWarning
				result.Warnings = append(result.Warnings, v)
			}
		}
		if err != nil {
			e.logger.Error().Err(err).Str("policy", cp.policy.Name).Msg("Policy evaluation failed")
			result.Warnings = append(result.Warnings, Violation{
				Policy:   cp.policy.Name,
				Message:  fmt.Sprintf("Policy %s evaluation failed: %v", cp.policy.Name, err),
				Severity: SeverityWarning,
			})
			continue
		}

		for _, d := range denied {
			v := violation(cp.policy, d)
			if v.Severity.Blocking() {
				result.Allowed = false
				result.Violations = append(result.Violations, v)
			} else {
				result.Warnings = append(result.Warnings, v)
			}
		}
	}

	result.Duration = time.Since(start)
	e.logger.Debug().
		Int("violations", len(result.Violations)).
		Int("warnings", len(result.Warnings)).
		Dur("duration", result.Duration).
		Msg("Policy evaluation completed")

	return result, nil
}

func evalRule(ctx context.Context, query rego.PreparedEvalQuery, input *Input) ([]interface{}, error) {
	results, err := query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("policy evaluation error: %w", err)
	}

	var entries []interface{}
	for _, result := range results {
		if len(result.Expressions) == 0 {
			continue
		}
		if set, ok := result.Expressions[0].Value.([]interface{}); ok {
			entries = append(entries, set...)
		}
	}
	return entries, nil
}

// violation creates a Violation from a rule entry.
func violation(policy Policy, entry interface{}) Violation {
	v := Violation{Policy: policy.Name, Severity: policy.Severity}

	switch val := entry.(type) {
	case string:
		v.Message = val
	case map[string]interface{}:
		if msg, ok := val["message"].(string); ok {
			v.Message = msg
		}
		if sev, ok := val["severity"].(string); ok {
			v.Severity = Severity(sev)
		}
	default:
		v.Message = fmt.Sprintf("%v", entry)
	}
	if v.Severity == "" {
		v.Severity = SeverityWarning
	}
	return v
}

// compile parses a policy and prepares its deny and warn queries.
func compile(ctx context.Context, policy Policy) (*compiledPolicy, error) {
	module, err := ast.ParseModule(policy.Name, policy.Rego)
	if err != nil {
		return nil, fmt.Errorf("failed to parse policy: %w", err)
	}
	pkg := module.Package.Path.String()

	deny, err := rego.New(rego.ParsedModule(module), rego.Query(pkg+".deny")).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare deny query: %w", err)
	}
	warn, err := rego.New(rego.ParsedModule(module), rego.Query(pkg+".warn")).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare warn query: %w", err)
	}

	return &compiledPolicy{policy: policy, deny: deny, warn: warn, compiled: time.Now()}, nil
}

// LoadPolicies loads policy files and directories, replacing any policies
// loaded earlier. Built-in policies stay in place.
func (e *Engine) LoadPolicies(ctx context.Context, paths []string) error {
	policies, err := e.loader.LoadFromPaths(ctx, paths)
	if err != nil {
		return fmt.Errorf("failed to load policies: %w", err)
	}
	return e.SetPolicies(ctx, policies)
}

// SetPolicies compiles policies and swaps them in for the current custom
// set. Nothing changes if any policy fails to compile.
func (e *Engine) SetPolicies(ctx context.Context, policies []Policy) error {
	compiled := make(map[string]*compiledPolicy, len(policies))
	for _, p := range policies {
		cp, err := compile(ctx, p)
		if err != nil {
			e.logger.Error().Err(err).Str("policy", p.Name).Msg("Failed to compile policy")
			return fmt.Errorf("failed to compile policy %s: %w", p.Name, err)
		}
		compiled[p.Name] = cp
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for name, cp := range e.policies {
		if !cp.policy.Builtin {
			delete(e.policies, name)
		}
	}
	for name, cp := range compiled {
		if existing, ok := e.policies[name]; ok && existing.policy.Builtin {
			e.logger.Warn().Str("policy", name).Msg("Custom policy overrides a built-in policy")
		}
		e.policies[name] = cp
	}

	e.logger.Info().Int("count", len(compiled)).Msg("Policies loaded successfully")
	return nil
}

// Watch reloads the policies under paths whenever they change, until ctx is
// done.
func (e *Engine) Watch(ctx context.Context, paths []string) error {
	return e.loader.Watch(ctx, paths, func(policies []Policy) error {
		return e.SetPolicies(ctx, policies)
	})
}

// GetPolicy returns a policy by name.
func (e *Engine) GetPolicy(name string) (*Policy, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cp, exists := e.policies[name]
	if !exists {
		return nil, fmt.Errorf("policy not found: %s", name)
	}

	p := cp.policy
	return &p, nil
}

// ListPolicies returns all loaded policies sorted by name.
func (e *Engine) ListPolicies() []Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	policies := make([]Policy, 0, len(e.policies))
	for _, cp := range e.policies {
		policies = append(policies, cp.policy)
	}
	sort.Slice(policies, func(i, j int) bool { return policies[i].Name < policies[j].Name })

	return policies
}

// EnablePolicy enables a policy by name.
func (e *Engine) EnablePolicy(name string) error {
	return e.setEnabled(name, true)
}

// DisablePolicy disables a policy by name.
func (e *Engine) DisablePolicy(name string) error {
	return e.setEnabled(name, false)
}

func (e *Engine) setEnabled(name string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cp, exists := e.policies[name]
	if !exists {
		return fmt.Errorf("policy not found: %s", name)
	}

	cp.policy.Enabled = enabled
	e.logger.Info().Str("policy", name).Bool("enabled", enabled).Msg("Policy state changed")

	return nil
}
