// Package release sequences a single release pipeline run: extract the
// version, run the tests, resolve the tag history, evaluate the
// compatibility gate and, when every gate passes, publish the release.
package release

import (
	"strings"

	"github.com/Battery-Intelligence-Lab/galv-release/tags"
	"github.com/Battery-Intelligence-Lab/galv-release/version"
)

// CI events that can request a release.
const (
	// EventPush is a git push. It requests a release only when the pushed
	// ref is a release tag.
	EventPush = "push"

	// EventIssueRelease is the manual "issue release" dispatch.
	EventIssueRelease = "issue-release"
)

// Trigger is the CI event context a run was started with.
type Trigger struct {
	// Event is the CI event name, e.g. "push".
	Event string

	// Ref is the fully qualified git ref of the event,
	// e.g. "refs/tags/v1.2.0". Only meaningful for push events.
	Ref string
}

// ShouldRelease reports whether this trigger requests a release: a push of a
// tag matching the release grammar, or a manual issue-release dispatch.
func (t Trigger) ShouldRelease() bool {
	switch t.Event {
	case EventIssueRelease:
		return true
	case EventPush:
		name, ok := strings.CutPrefix(t.Ref, "refs/tags/")
		if !ok {
			return false
		}
		_, err := version.ParseTag(name)
		return err == nil
	default:
		return false
	}
}

// Decision is the derived release record for one run.
type Decision struct {
	// Current is the version extracted from the configuration source.
	Current version.Version

	// Previous is the tag immediately preceding Current in the history,
	// nil when Current is the first release.
	Previous *version.Version

	// IsMajorBump is true when this release opens a new major line (or is
	// the first release ever). Major bumps skip the compatibility gate.
	IsMajorBump bool

	// ShouldRelease is true when the trigger requested a release.
	ShouldRelease bool
}

// Decide computes the Decision for current against the tag history.
// The history must already contain current (see History.Insert).
//
// A release is a major bump when there is no previous release at all, or
// when the immediately preceding tag is itself the boundary of an earlier
// major line, i.e. it equals the most recent tag with a strictly smaller
// major component.
func Decide(history tags.History, current version.Version, trigger Trigger) Decision {
	d := Decision{
		Current:       current,
		ShouldRelease: trigger.ShouldRelease(),
	}

	prev, ok := history.PreviousOf(current)
	if !ok {
		d.IsMajorBump = true
		return d
	}

	d.Previous = &prev

	boundary, ok := history.PreviousMajorBoundaryOf(current)
	d.IsMajorBump = ok && boundary.Equal(prev)

	return d
}
