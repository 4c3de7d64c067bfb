// Package tags maintains the history of Galv release tags.
// History answers the pure ordering queries (previous release, previous
// major boundary) while Store handles the side-effecting interaction with
// the git tag store.
package tags

import (
	"sort"

	"github.com/Battery-Intelligence-Lab/galv-release/version"
)

// History is the ordered set of released versions, ascending.
// It is a value type; mutating operations return a new History.
type History struct {
	versions []version.Version
}

// FilterValid builds a History from raw tag names.
// Only names of the form vX.Y.Z are kept; anything else is an unrelated tag
// and is silently dropped. The result is sorted ascending with duplicates
// removed, so filtering an already-filtered set is a no-op.
func FilterValid(raw []string) History {
	versions := make([]version.Version, 0, len(raw))
	for _, name := range raw {
		v, err := version.ParseTag(name)
		if err != nil {
			continue
		}
		versions = append(versions, v)
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Less(versions[j])
	})

	deduped := versions[:0]
	for i, v := range versions {
		if i == 0 || !v.Equal(versions[i-1]) {
			deduped = append(deduped, v)
		}
	}

	return History{versions: deduped}
}

// Insert returns a History with v added in sorted position.
// Inserting a version already present returns an equivalent History.
// Callers that tag the current commit during a run must insert the current
// version before querying PreviousOf or PreviousMajorBoundaryOf, since the
// fetched tag set may predate the new tag.
func (h History) Insert(v version.Version) History {
	i := sort.Search(len(h.versions), func(i int) bool {
		return !h.versions[i].Less(v)
	})
	if i < len(h.versions) && h.versions[i].Equal(v) {
		return h
	}

	versions := make([]version.Version, 0, len(h.versions)+1)
	versions = append(versions, h.versions[:i]...)
	versions = append(versions, v)
	versions = append(versions, h.versions[i:]...)
	return History{versions: versions}
}

// Versions returns a copy of the ordered version set.
func (h History) Versions() []version.Version {
	out := make([]version.Version, len(h.versions))
	copy(out, h.versions)
	return out
}

// Len returns the number of versions in the history.
func (h History) Len() int { return len(h.versions) }

// PreviousOf returns the version immediately preceding current in the
// history. The second return is false when current is the first entry or is
// not present at all.
func (h History) PreviousOf(current version.Version) (version.Version, bool) {
	i, ok := h.indexOf(current)
	if !ok || i == 0 {
		return version.Version{}, false
	}
	return h.versions[i-1], true
}

// PreviousMajorBoundaryOf returns the greatest version ordered before
// current whose major component is strictly less than current's, i.e. the
// most recent release of an earlier major line. The second return is false
// when no such release exists.
func (h History) PreviousMajorBoundaryOf(current version.Version) (version.Version, bool) {
	i, ok := h.indexOf(current)
	if !ok {
		return version.Version{}, false
	}
	for j := i - 1; j >= 0; j-- {
		if h.versions[j].Major() < current.Major() {
			return h.versions[j], true
		}
	}
	return version.Version{}, false
}

func (h History) indexOf(v version.Version) (int, bool) {
	i := sort.Search(len(h.versions), func(i int) bool {
		return !h.versions[i].Less(v)
	})
	if i < len(h.versions) && h.versions[i].Equal(v) {
		return i, true
	}
	return 0, false
}
