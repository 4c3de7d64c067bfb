package publish

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Battery-Intelligence-Lab/galv-release/executor"
)

func TestNewRequiresRepository(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)

	p, err := New("ghcr.io/battery-intelligence-lab/galv-spec")
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestRegistryHost(t *testing.T) {
	assert.Equal(t, "ghcr.io", registryHost("ghcr.io/org/repo"))
	assert.Equal(t, "localhost:5000", registryHost("localhost:5000/galv"))
	assert.Equal(t, "ghcr.io", registryHost("ghcr.io"))
}

func TestArchiveDirRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "galv_client"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "galv_client", "api.py"), []byte("# client\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "setup.py"), []byte("# setup\n"), 0o600))

	data, err := archiveDir(dir)
	require.NoError(t, err)

	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	contents := map[string]string{}
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if header.Typeflag == tar.TypeDir {
			contents[header.Name] = ""
			continue
		}
		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		contents[header.Name] = string(body)
	}

	assert.Contains(t, contents, "galv_client")
	assert.Equal(t, "# client\n", contents["galv_client/api.py"])
	assert.Equal(t, "# setup\n", contents["setup.py"])
}

func TestExecClientGenerator(t *testing.T) {
	out := filepath.Join(t.TempDir(), "client")
	cmd := executor.New("sh", "-c", "mkdir -p "+out+" && echo \"$GALV_SPEC_PATH\" > "+out+"/spec-path.txt")

	gen := ExecClientGenerator{Command: cmd, Output: out}

	dir, err := gen.Generate(context.Background(), "/tmp/openapi.json")
	require.NoError(t, err)
	assert.Equal(t, out, dir)

	recorded, err := os.ReadFile(filepath.Join(out, "spec-path.txt"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/openapi.json\n", string(recorded))
}

func TestExecClientGeneratorMissingOutput(t *testing.T) {
	gen := ExecClientGenerator{
		Command: executor.New("true"),
		Output:  filepath.Join(t.TempDir(), "never-created"),
	}

	_, err := gen.Generate(context.Background(), "spec.json")
	assert.Error(t, err)
}
