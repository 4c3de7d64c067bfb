// Command galv-release runs one release pipeline pass for the Galv backend:
// it extracts the API version, runs the test suite, resolves the tag
// history, evaluates the compatibility gate and publishes the release bundle
// when every gate passes.
//
// Exit code 0 means the run ended Released or Skipped; 1 means Blocked, with
// the failing gate identified in the log.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Battery-Intelligence-Lab/galv-release/config"
	"github.com/Battery-Intelligence-Lab/galv-release/executor"
	"github.com/Battery-Intelligence-Lab/galv-release/gate"
	"github.com/Battery-Intelligence-Lab/galv-release/publish"
	"github.com/Battery-Intelligence-Lab/galv-release/release"
	"github.com/Battery-Intelligence-Lab/galv-release/tags"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	var (
		configPath = flag.String("config", "galv-release.yaml", "pipeline configuration file")
		event      = flag.String("event", os.Getenv("GITHUB_EVENT_NAME"), "CI event name")
		ref        = flag.String("ref", os.Getenv("GITHUB_REF"), "CI event git ref")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	orch, err := buildOrchestrator(cfg, trigger(*event, *ref), logger)
	if err != nil {
		return err
	}

	outcome := orch.Run(context.Background())

	switch outcome.State {
	case release.StateReleased:
		logger.Info("release issued", "version", outcome.Decision.Current.TagName())
		return nil
	case release.StateSkipped:
		logger.Info("release skipped", "reason", "not a release trigger")
		return nil
	default:
		return fmt.Errorf("release blocked: %w", outcome.Err)
	}
}

// trigger maps GitHub Actions event names onto pipeline triggers. The
// issue-release workflow is a manual workflow_dispatch.
func trigger(event, ref string) release.Trigger {
	if event == "workflow_dispatch" {
		event = release.EventIssueRelease
	}
	return release.Trigger{Event: event, Ref: ref}
}

func buildOrchestrator(cfg *config.Config, trig release.Trigger, logger *slog.Logger) (*release.Orchestrator, error) {
	store, err := tags.Open(cfg.Repository)
	if err != nil {
		return nil, err
	}

	testCmd, err := executor.NewFromArgv(cfg.Tests)
	if err != nil {
		return nil, fmt.Errorf("tests command: %w", err)
	}

	specCmd, err := executor.NewFromArgv(cfg.Spec.Generate)
	if err != nil {
		return nil, fmt.Errorf("spec.generate command: %w", err)
	}

	publisher, err := buildPublisher(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Collaborator output is streamed so CI logs stay useful.
	tee := []executor.Option{
		executor.WithStdout(os.Stdout),
		executor.WithStderr(os.Stderr),
	}

	return release.New(release.Options{
		Source: release.FileSource(cfg.VersionSource),
		Tests: release.ExecTestRunner{
			Command: testCmd,
			Options: tee,
		},
		Store: store,
		Gate:  gate.New(differ(cfg), resolver(cfg), logger),
		Specs: release.ExecSpecGenerator{
			Command: specCmd,
			Options: tee,
			Output:  cfg.Spec.Output,
		},
		Publisher: publisher,
		Trigger:   trig,
		Logger:    logger,
	})
}

func differ(cfg *config.Config) gate.ExecDiffer {
	return gate.ExecDiffer{
		Program: cfg.Spec.Diff[0],
		Args:    cfg.Spec.Diff[1:],
	}
}

func resolver(cfg *config.Config) gate.Resolver {
	if cfg.Spec.ReferenceDir != "" {
		return gate.DirResolver{Dir: cfg.Spec.ReferenceDir}
	}
	return &gate.HTTPResolver{URLTemplate: cfg.Spec.ReferenceURL}
}

func buildPublisher(cfg *config.Config, logger *slog.Logger) (*publish.OCIPublisher, error) {
	opts := []publish.Option{publish.WithLogger(logger)}

	if cfg.Publish.Username != "" {
		opts = append(opts, publish.WithStaticAuth(
			cfg.Publish.Username,
			os.Getenv(cfg.Publish.PasswordEnv),
		))
	}

	if cfg.Publish.PlainHTTP {
		opts = append(opts, publish.WithPlainHTTP())
	}

	if len(cfg.Publish.ClientGenerate) > 0 {
		clientCmd, err := executor.NewFromArgv(cfg.Publish.ClientGenerate)
		if err != nil {
			return nil, fmt.Errorf("publish.client_generate command: %w", err)
		}
		opts = append(opts, publish.WithClientGenerator(publish.ExecClientGenerator{
			Command: clientCmd,
			Output:  cfg.Publish.ClientOutput,
		}))
	}

	return publish.New(cfg.Publish.Registry, opts...)
}
