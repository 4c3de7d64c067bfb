package gate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Battery-Intelligence-Lab/galv-release/version"
)

// tagPlaceholder is substituted with the previous release's tag name when
// building reference URLs, e.g.
// https://github.com/org/repo/releases/download/{tag}/openapi.json
const tagPlaceholder = "{tag}"

// HTTPResolver downloads the previous release's spec document from a remote
// canonical location, typically a release asset URL.
type HTTPResolver struct {
	// URLTemplate is the download URL with a {tag} placeholder.
	URLTemplate string

	// Client is the HTTP client to use. Nil means a default client with a
	// 30 second timeout.
	Client *http.Client

	// Dir is where downloaded documents are written. Empty means the
	// system temp directory.
	Dir string
}

// Reference implements Resolver. Failures map to ErrArtifactFetch; there is
// no internal retry, the CI runner re-dispatches the whole run.
func (r *HTTPResolver) Reference(ctx context.Context, previous version.Version) (string, error) {
	client := r.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	url := strings.ReplaceAll(r.URLTemplate, tagPlaceholder, previous.TagName())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request %q: %w: %v", url, ErrArtifactFetch, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %q: %w: %v", url, ErrArtifactFetch, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %q: status %d: %w", url, resp.StatusCode, ErrArtifactFetch)
	}

	dir := r.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, previous.TagName()+".json")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("write reference spec: %w: %v", ErrArtifactFetch, err)
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("write reference spec: %w: %v", ErrArtifactFetch, err)
	}

	return path, nil
}

// DirResolver serves reference spec documents from a local directory laid
// out as <dir>/vX.Y.Z.json. Used for air-gapped runs and tests.
type DirResolver struct {
	Dir string
}

// Reference implements Resolver.
func (r DirResolver) Reference(_ context.Context, previous version.Version) (string, error) {
	path := filepath.Join(r.Dir, previous.TagName()+".json")
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("reference spec %q: %w: %v", path, ErrArtifactFetch, err)
	}
	return path, nil
}
