// Package publish pushes validated release bundles to an OCI registry.
// A bundle is the candidate spec document plus, when configured, the
// generated API client packaged as a tar.gz layer. Publication only happens
// after every release gate has passed.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/retry"

	"github.com/Battery-Intelligence-Lab/galv-release/version"
)

// ErrPublishFailed is returned when the release bundle cannot be pushed.
var ErrPublishFailed = errors.New("publish failed")

// Media types for the bundle layers and manifest.
const (
	ArtifactType    = "application/vnd.galv.release.v1"
	SpecMediaType   = "application/vnd.galv.openapi.spec.v1+json"
	ClientMediaType = "application/vnd.galv.client.v1.tar+gzip"
)

// ClientGenerator produces a packaged API client from the candidate spec
// document and returns the directory holding it. Implementations are
// external tools; an empty generator is valid and skips the client layer.
type ClientGenerator interface {
	Generate(ctx context.Context, specPath string) (string, error)
}

// Options configures an OCIPublisher.
type Options struct {
	// Repository is the OCI repository the bundle is tagged into,
	// e.g. "ghcr.io/battery-intelligence-lab/galv-spec".
	Repository string

	// Username and Password are static registry credentials. Both empty
	// means the registry's anonymous access is used.
	Username string
	Password string

	// PlainHTTP allows http registries, for local test registries only.
	PlainHTTP bool

	// Clients generates the client layer. Nil skips it.
	Clients ClientGenerator

	// Logger receives publication progress. Nil means slog.Default().
	Logger *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithStaticAuth sets static registry credentials.
func WithStaticAuth(username, password string) Option {
	return func(o *Options) {
		o.Username = username
		o.Password = password
	}
}

// WithPlainHTTP allows plain http registry access.
func WithPlainHTTP() Option {
	return func(o *Options) { o.PlainHTTP = true }
}

// WithClientGenerator sets the client packaging collaborator.
func WithClientGenerator(g ClientGenerator) Option {
	return func(o *Options) { o.Clients = g }
}

// WithLogger sets the publication logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// OCIPublisher pushes release bundles with ORAS.
type OCIPublisher struct {
	opts Options
}

// New creates an OCIPublisher for the given repository reference.
func New(repository string, opts ...Option) (*OCIPublisher, error) {
	options := Options{Repository: repository}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Repository == "" {
		return nil, errors.New("repository reference is required")
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &OCIPublisher{opts: options}, nil
}

// Publish pushes the release bundle and tags it vX.Y.Z.
// The spec document is always included; the client layer is added when a
// ClientGenerator is configured.
func (p *OCIPublisher) Publish(ctx context.Context, current version.Version, specPath string) error {
	specData, err := os.ReadFile(specPath)
	if err != nil {
		return fmt.Errorf("read spec document: %w: %v", ErrPublishFailed, err)
	}

	repo, err := p.repository()
	if err != nil {
		return err
	}

	specDesc, err := oras.PushBytes(ctx, repo, SpecMediaType, specData)
	if err != nil {
		return fmt.Errorf("push spec layer: %w: %v", ErrPublishFailed, err)
	}
	layers := []ocispec.Descriptor{specDesc}

	if p.opts.Clients != nil {
		clientDesc, genErr := p.pushClientLayer(ctx, repo, specPath)
		if genErr != nil {
			return genErr
		}
		layers = append(layers, clientDesc)
	}

	manifest, err := oras.PackManifest(ctx, repo, oras.PackManifestVersion1_1, ArtifactType,
		oras.PackManifestOptions{
			Layers: layers,
			ManifestAnnotations: map[string]string{
				ocispec.AnnotationVersion: current.String(),
			},
		})
	if err != nil {
		return fmt.Errorf("pack manifest: %w: %v", ErrPublishFailed, err)
	}

	if _, err := oras.Tag(ctx, repo, manifest.Digest.String(), current.TagName()); err != nil {
		return fmt.Errorf("tag %s: %w: %v", current.TagName(), ErrPublishFailed, err)
	}

	p.opts.Logger.Info("release bundle published",
		"repository", p.opts.Repository,
		"tag", current.TagName(),
		"layers", len(layers),
	)
	return nil
}

func (p *OCIPublisher) pushClientLayer(ctx context.Context, repo *remote.Repository, specPath string) (ocispec.Descriptor, error) {
	clientDir, err := p.opts.Clients.Generate(ctx, specPath)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("generate client: %w: %v", ErrPublishFailed, err)
	}

	archive, err := archiveDir(clientDir)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("archive client: %w: %v", ErrPublishFailed, err)
	}

	desc, err := oras.PushBytes(ctx, repo, ClientMediaType, archive)
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("push client layer: %w: %v", ErrPublishFailed, err)
	}
	return desc, nil
}

func (p *OCIPublisher) repository() (*remote.Repository, error) {
	repo, err := remote.NewRepository(p.opts.Repository)
	if err != nil {
		return nil, fmt.Errorf("repository %q: %w: %v", p.opts.Repository, ErrPublishFailed, err)
	}

	repo.PlainHTTP = p.opts.PlainHTTP

	if p.opts.Username != "" || p.opts.Password != "" {
		registry := registryHost(p.opts.Repository)
		repo.Client = &auth.Client{
			Client: retry.DefaultClient,
			Cache:  auth.NewCache(),
			Credential: auth.StaticCredential(registry, auth.Credential{
				Username: p.opts.Username,
				Password: p.opts.Password,
			}),
		}
	}

	return repo, nil
}

func registryHost(reference string) string {
	host, _, found := strings.Cut(reference, "/")
	if !found {
		return reference
	}
	return host
}
