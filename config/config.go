// Package config loads the release pipeline configuration file.
// The file names the external collaborators (test suite, spec generation,
// spec diff, client codegen) and the sources the pipeline reads from.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Spec configures the candidate spec document and its comparison.
type Spec struct {
	// Generate is the argv producing the candidate spec document.
	Generate []string `yaml:"generate"`

	// Output is where Generate writes the spec document.
	Output string `yaml:"output"`

	// Diff is the argv of the diff tool; the reference and candidate
	// paths are appended by the pipeline.
	Diff []string `yaml:"diff"`

	// ReferenceURL is the previous release's spec location with a {tag}
	// placeholder. Mutually exclusive with ReferenceDir.
	ReferenceURL string `yaml:"reference_url"`

	// ReferenceDir is a local directory of vX.Y.Z.json reference specs.
	ReferenceDir string `yaml:"reference_dir"`
}

// Publish configures artifact publication.
type Publish struct {
	// Registry is the OCI repository release bundles are pushed to.
	Registry string `yaml:"registry"`

	// Username authenticates against the registry. The password comes
	// from the environment variable named by PasswordEnv, never from the
	// config file.
	Username    string `yaml:"username"`
	PasswordEnv string `yaml:"password_env"`

	// PlainHTTP allows http registries, for local testing only.
	PlainHTTP bool `yaml:"plain_http"`

	// ClientGenerate is the optional argv packaging the API client;
	// ClientOutput is the directory it writes to.
	ClientGenerate []string `yaml:"client_generate"`
	ClientOutput   string   `yaml:"client_output"`
}

// Config is the full pipeline configuration.
type Config struct {
	// Repository is the path of the git repository holding release tags.
	Repository string `yaml:"repository"`

	// VersionSource is the settings file carrying the API_VERSION
	// assignment.
	VersionSource string `yaml:"version_source"`

	// Tests is the argv of the external test suite.
	Tests []string `yaml:"tests"`

	Spec    Spec    `yaml:"spec"`
	Publish Publish `yaml:"publish"`
}

// Load reads, defaults and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Repository == "" {
		c.Repository = "."
	}
	if c.Spec.Output == "" {
		c.Spec.Output = "openapi.json"
	}
}

// Validate checks that every required collaborator is configured.
func (c *Config) Validate() error {
	switch {
	case c.VersionSource == "":
		return errors.New("version_source is required")
	case len(c.Tests) == 0:
		return errors.New("tests command is required")
	case len(c.Spec.Generate) == 0:
		return errors.New("spec.generate command is required")
	case len(c.Spec.Diff) == 0:
		return errors.New("spec.diff command is required")
	case c.Spec.ReferenceURL == "" && c.Spec.ReferenceDir == "":
		return errors.New("one of spec.reference_url or spec.reference_dir is required")
	case c.Spec.ReferenceURL != "" && c.Spec.ReferenceDir != "":
		return errors.New("spec.reference_url and spec.reference_dir are mutually exclusive")
	case c.Publish.Registry == "":
		return errors.New("publish.registry is required")
	case len(c.Publish.ClientGenerate) > 0 && c.Publish.ClientOutput == "":
		return errors.New("publish.client_output is required with publish.client_generate")
	}
	return nil
}
