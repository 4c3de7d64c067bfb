package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
version_source: backend_django/config/settings.py
tests:
  - docker
  - compose
  - run
  - app
  - python
  - manage.py
  - test
spec:
  generate:
    - python
    - manage.py
    - spectacular
    - --file
    - openapi.json
  diff:
    - oasdiff
    - breaking
  reference_url: https://github.com/Battery-Intelligence-Lab/galv-backend/releases/download/{tag}/openapi.json
publish:
  registry: ghcr.io/battery-intelligence-lab/galv-spec
  username: galv-bot
  password_env: GALV_REGISTRY_TOKEN
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "galv-release.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "backend_django/config/settings.py", cfg.VersionSource)
	assert.Equal(t, []string{"oasdiff", "breaking"}, cfg.Spec.Diff)
	assert.Equal(t, "ghcr.io/battery-intelligence-lab/galv-spec", cfg.Publish.Registry)

	// Defaults applied.
	assert.Equal(t, ".", cfg.Repository)
	assert.Equal(t, "openapi.json", cfg.Spec.Output)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "tests: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			VersionSource: "settings.py",
			Tests:         []string{"pytest"},
			Spec: Spec{
				Generate:     []string{"spectacular"},
				Diff:         []string{"oasdiff"},
				ReferenceDir: "specs",
			},
			Publish: Publish{Registry: "ghcr.io/org/repo"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing version source", func(c *Config) { c.VersionSource = "" }},
		{"missing tests", func(c *Config) { c.Tests = nil }},
		{"missing spec generate", func(c *Config) { c.Spec.Generate = nil }},
		{"missing spec diff", func(c *Config) { c.Spec.Diff = nil }},
		{"missing reference source", func(c *Config) { c.Spec.ReferenceDir = "" }},
		{"both reference sources", func(c *Config) { c.Spec.ReferenceURL = "http://example.com/{tag}" }},
		{"missing registry", func(c *Config) { c.Publish.Registry = "" }},
		{
			"client generate without output",
			func(c *Config) { c.Publish.ClientGenerate = []string{"openapi-generator"} },
		},
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
