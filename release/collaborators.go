package release

import (
	"context"
	"fmt"
	"os"

	"github.com/Battery-Intelligence-Lab/galv-release/executor"
)

// FileSource reads the version configuration source from a file path.
type FileSource string

// Read implements VersionSource.
func (s FileSource) Read(_ context.Context) (string, error) {
	data, err := os.ReadFile(string(s))
	if err != nil {
		return "", fmt.Errorf("read %q: %w", string(s), err)
	}
	return string(data), nil
}

// ExecTestRunner runs the test suite as an external command.
type ExecTestRunner struct {
	Command *executor.Command
	Options []executor.Option
}

// RunTests implements TestRunner.
func (r ExecTestRunner) RunTests(ctx context.Context) error {
	if _, err := r.Command.Run(ctx, r.Options...); err != nil {
		return err
	}
	return nil
}

// ExecSpecGenerator produces the candidate spec document by running an
// external command that writes it to Output.
type ExecSpecGenerator struct {
	Command *executor.Command
	Options []executor.Option

	// Output is the path the command writes the spec document to.
	Output string
}

// Generate implements SpecGenerator.
func (g ExecSpecGenerator) Generate(ctx context.Context) (string, error) {
	if _, err := g.Command.Run(ctx, g.Options...); err != nil {
		return "", err
	}
	if _, err := os.Stat(g.Output); err != nil {
		return "", fmt.Errorf("spec document not produced at %q: %w", g.Output, err)
	}
	return g.Output, nil
}
