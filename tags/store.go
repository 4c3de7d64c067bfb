package tags

import (
	"context"
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/Battery-Intelligence-Lab/galv-release/version"
)

// ErrTagFetch is returned when the tag store cannot be read.
// Release runs treat this as fatal; the enclosing CI runner re-dispatches.
var ErrTagFetch = errors.New("cannot read tag store")

// ErrNoHead is returned when the repository has no resolvable HEAD to tag.
var ErrNoHead = errors.New("cannot resolve HEAD")

// Store reads and creates release tags in a git repository.
// Creation is local only; pushing tags is the CI runner's responsibility.
type Store struct {
	repo *gogit.Repository
}

// Open opens the git repository at path.
func Open(path string) (*Store, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("open repository %q: %w: %v", path, ErrTagFetch, err)
	}
	return &Store{repo: repo}, nil
}

// NewStore wraps an already-open repository. Used by tests that build
// repositories on an in-memory filesystem.
func NewStore(repo *gogit.Repository) *Store {
	return &Store{repo: repo}
}

// List returns all tag names in the repository, release-related or not.
// Callers filter with FilterValid. The set is read fresh on every call;
// nothing is cached across pipeline runs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	refs, err := s.repo.References()
	if err != nil {
		return nil, fmt.Errorf("list references: %w: %v", ErrTagFetch, err)
	}

	var names []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ref.Name().IsTag() {
			names = append(names, ref.Name().Short())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate references: %w: %v", ErrTagFetch, err)
	}

	return names, nil
}

// Ensure creates a lightweight tag vX.Y.Z at HEAD if it does not already
// exist. Creating an existing tag is a no-op, so concurrent runs racing to
// tag the same version cannot fail here.
func (s *Store) Ensure(ctx context.Context, v version.Version) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	refName := plumbing.NewTagReferenceName(v.TagName())
	if _, err := s.repo.Reference(refName, true); err == nil {
		return nil
	}

	head, err := s.repo.Head()
	if err != nil {
		return fmt.Errorf("tag %s: %w: %v", v.TagName(), ErrNoHead, err)
	}

	ref := plumbing.NewHashReference(refName, head.Hash())
	if err := s.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("create tag %s: %w", v.TagName(), err)
	}

	return nil
}
