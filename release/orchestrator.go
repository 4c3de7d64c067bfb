package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Battery-Intelligence-Lab/galv-release/tags"
	"github.com/Battery-Intelligence-Lab/galv-release/version"
)

// ErrTestFailure is returned when the external test suite reports failures.
// A release never proceeds past failing tests, regardless of version or tag
// state.
var ErrTestFailure = errors.New("test suite failed")

// State names a position in the pipeline state machine.
type State string

// Pipeline states. Released, Blocked and Skipped are terminal; a Blocked run
// is only re-attempted by a fresh CI dispatch.
const (
	StateInit             State = "init"
	StateVersionExtracted State = "version-extracted"
	StateTestsRun         State = "tests-run"
	StateDecisionComputed State = "decision-computed"
	StateGateEvaluated    State = "gate-evaluated"
	StateReleased         State = "released"
	StateBlocked          State = "blocked"
	StateSkipped          State = "skipped"
)

// Outcome is the terminal result of a pipeline run.
type Outcome struct {
	State    State
	Decision *Decision
	Err      error
}

// VersionSource supplies the configuration text the current version is
// extracted from.
type VersionSource interface {
	Read(ctx context.Context) (string, error)
}

// TestRunner runs the external test suite. A non-nil error means failure.
type TestRunner interface {
	RunTests(ctx context.Context) error
}

// SpecGenerator produces the candidate spec document for the current build
// and returns its local path.
type SpecGenerator interface {
	Generate(ctx context.Context) (string, error)
}

// TagStore lists existing release tags and creates missing ones.
type TagStore interface {
	List(ctx context.Context) ([]string, error)
	Ensure(ctx context.Context, v version.Version) error
}

// Gate evaluates the compatibility policy. It is the only collaborator that
// can veto an otherwise valid release.
type Gate interface {
	Check(ctx context.Context, previous *version.Version, majorBump bool, candidate string) error
}

// Publisher generates and publishes release artifacts once every gate has
// passed.
type Publisher interface {
	Publish(ctx context.Context, current version.Version, specPath string) error
}

// Options wires an Orchestrator's collaborators.
type Options struct {
	Source    VersionSource
	Tests     TestRunner
	Store     TagStore
	Gate      Gate
	Specs     SpecGenerator
	Publisher Publisher
	Trigger   Trigger

	// Logger receives per-transition progress. Nil means slog.Default().
	Logger *slog.Logger
}

// Validate checks that every required collaborator is set.
func (o *Options) Validate() error {
	switch {
	case o.Source == nil:
		return errors.New("version source is required")
	case o.Tests == nil:
		return errors.New("test runner is required")
	case o.Store == nil:
		return errors.New("tag store is required")
	case o.Gate == nil:
		return errors.New("compatibility gate is required")
	case o.Specs == nil:
		return errors.New("spec generator is required")
	case o.Publisher == nil:
		return errors.New("publisher is required")
	}
	return nil
}

// Orchestrator owns the full pipeline state machine in memory. All state
// flows through explicit values; nothing is passed between steps via the
// environment.
type Orchestrator struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Orchestrator from validated Options.
func New(opts Options) (*Orchestrator, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid orchestrator options: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{opts: opts, logger: logger}, nil
}

// Run drives one pipeline run to a terminal state. States are strictly
// sequential; no step starts before its predecessor's result is known.
// Run itself never returns an error: failures are carried in the Outcome so
// the caller owns exit-code mapping.
func (o *Orchestrator) Run(ctx context.Context) Outcome {
	// Init -> VersionExtracted
	source, err := o.opts.Source.Read(ctx)
	if err != nil {
		return o.blocked(nil, fmt.Errorf("read version source: %w", err))
	}

	current, err := version.Extract(source)
	if err != nil {
		return o.blocked(nil, err)
	}
	o.transition(StateVersionExtracted, "version", current.String())

	// VersionExtracted -> TestsRun
	if err := o.opts.Tests.RunTests(ctx); err != nil {
		return o.blocked(nil, fmt.Errorf("%w: %v", ErrTestFailure, err))
	}
	o.transition(StateTestsRun)

	// TestsRun -> DecisionComputed. The tag set is fetched fresh and the
	// current version is tagged and inserted before any ordering query.
	raw, err := o.opts.Store.List(ctx)
	if err != nil {
		return o.blocked(nil, err)
	}

	if err := o.opts.Store.Ensure(ctx, current); err != nil {
		return o.blocked(nil, err)
	}

	history := tags.FilterValid(raw).Insert(current)
	decision := Decide(history, current, o.opts.Trigger)
	o.transition(StateDecisionComputed,
		"previous", previousName(decision),
		"major_bump", decision.IsMajorBump,
		"should_release", decision.ShouldRelease,
	)

	if !decision.ShouldRelease {
		o.transition(StateSkipped)
		return Outcome{State: StateSkipped, Decision: &decision}
	}

	// DecisionComputed -> GateEvaluated
	candidate, err := o.opts.Specs.Generate(ctx)
	if err != nil {
		return o.blocked(&decision, fmt.Errorf("generate spec: %w", err))
	}

	if err := o.opts.Gate.Check(ctx, decision.Previous, decision.IsMajorBump, candidate); err != nil {
		return o.blocked(&decision, err)
	}
	o.transition(StateGateEvaluated)

	// GateEvaluated -> Released
	if err := o.opts.Publisher.Publish(ctx, current, candidate); err != nil {
		return o.blocked(&decision, fmt.Errorf("publish release: %w", err))
	}

	o.transition(StateReleased, "version", current.TagName())
	return Outcome{State: StateReleased, Decision: &decision}
}

func (o *Orchestrator) blocked(decision *Decision, err error) Outcome {
	o.logger.Error("release blocked", "error", err)
	return Outcome{State: StateBlocked, Decision: decision, Err: err}
}

func (o *Orchestrator) transition(state State, args ...any) {
	o.logger.Info("pipeline state", append([]any{"state", string(state)}, args...)...)
}

func previousName(d Decision) string {
	if d.Previous == nil {
		return "none"
	}
	return d.Previous.TagName()
}
