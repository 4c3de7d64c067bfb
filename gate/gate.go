// Package gate decides whether the current API specification may ship as a
// release. The structural comparison itself is delegated to an external diff
// tool; this package owns only the gating policy: when to skip the check and
// how a failed check blocks the pipeline.
package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Battery-Intelligence-Lab/galv-release/version"
)

// ErrIncompatibleChange is returned when the diff reports a backward
// incompatible API change on a non-major, non-first release.
var ErrIncompatibleChange = errors.New("incompatible API change")

// ErrArtifactFetch is returned when the previous release's spec document
// cannot be retrieved.
var ErrArtifactFetch = errors.New("cannot fetch reference spec")

// Report is the outcome of a structural spec comparison.
type Report struct {
	Compatible bool
	Summary    string
}

// Differ compares a candidate spec document against a reference one.
// Both arguments are local file paths; the documents stay opaque here.
type Differ interface {
	Diff(ctx context.Context, reference, candidate string) (Report, error)
}

// Resolver locates the spec document published with a previous release and
// returns a local path to it.
type Resolver interface {
	Reference(ctx context.Context, previous version.Version) (string, error)
}

// Gate evaluates the compatibility policy for one release run.
type Gate struct {
	differ   Differ
	resolver Resolver
	logger   *slog.Logger
}

// New creates a Gate. A nil logger falls back to slog.Default().
func New(differ Differ, resolver Resolver, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{differ: differ, resolver: resolver, logger: logger}
}

// Check applies the gating policy:
//
//   - previous == nil (first release ever): skip, trivially ok.
//   - majorBump: skip, a major bump may break compatibility intentionally.
//   - otherwise fetch the previous release's spec and run the diff; any
//     incompatible change blocks the release.
//
// Check never mutates version or tag state. Its only side effect is logging
// the diff report when the gate fails.
func (g *Gate) Check(ctx context.Context, previous *version.Version, majorBump bool, candidate string) error {
	if previous == nil {
		g.logger.Info("compatibility gate skipped", "reason", "first release")
		return nil
	}

	if majorBump {
		g.logger.Info("compatibility gate skipped", "reason", "major version bump", "previous", previous.String())
		return nil
	}

	reference, err := g.resolver.Reference(ctx, *previous)
	if err != nil {
		return fmt.Errorf("reference spec for %s: %w", previous.TagName(), err)
	}

	report, err := g.differ.Diff(ctx, reference, candidate)
	if err != nil {
		return fmt.Errorf("spec diff against %s: %w", previous.TagName(), err)
	}

	if !report.Compatible {
		g.logger.Error("compatibility gate failed",
			"previous", previous.TagName(),
			"report", report.Summary,
		)
		return fmt.Errorf("against %s: %w", previous.TagName(), ErrIncompatibleChange)
	}

	g.logger.Info("compatibility gate passed", "previous", previous.TagName())
	return nil
}
