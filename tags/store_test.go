package tags

import (
	"context"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Battery-Intelligence-Lab/galv-release/version"
)

// newTestStore builds an in-memory repository with a single commit.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	fs := memfs.New()
	repo, err := gogit.Init(memory.NewStorage(), fs)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	f, err := fs.Create("README.md")
	require.NoError(t, err)
	_, err = f.Write([]byte("galv backend\n"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = wt.Add("README.md")
	require.NoError(t, err)

	_, err = wt.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	return NewStore(repo)
}

func TestListEmpty(t *testing.T) {
	store := newTestStore(t)

	names, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestEnsureCreatesTag(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Ensure(ctx, version.New(1, 0, 0))
	require.NoError(t, err)

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1.0.0"}, names)
}

func TestEnsureIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	v := version.New(2, 3, 4)

	require.NoError(t, store.Ensure(ctx, v))
	require.NoError(t, store.Ensure(ctx, v))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v2.3.4"}, names)
}

func TestEnsureWithoutHead(t *testing.T) {
	repo, err := gogit.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err)
	store := NewStore(repo)

	err = store.Ensure(context.Background(), version.New(1, 0, 0))
	assert.ErrorIs(t, err, ErrNoHead)
}

func TestEnsureHonoursContext(t *testing.T) {
	store := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Ensure(ctx, version.New(1, 0, 0))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListThenFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Ensure(ctx, version.New(1, 0, 0)))
	require.NoError(t, store.Ensure(ctx, version.New(1, 1, 0)))

	names, err := store.List(ctx)
	require.NoError(t, err)

	history := FilterValid(names)
	assert.Equal(t, []version.Version{
		version.New(1, 0, 0),
		version.New(1, 1, 0),
	}, history.Versions())
}
