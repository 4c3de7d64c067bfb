package publish

import (
	"context"
	"fmt"
	"os"

	"github.com/Battery-Intelligence-Lab/galv-release/executor"
)

// ExecClientGenerator packages an API client by running an external codegen
// command. The candidate spec path is appended as the command's final
// argument; the command must write the packaged client into Output.
type ExecClientGenerator struct {
	Command *executor.Command
	Options []executor.Option

	// Output is the directory the generated client is written to.
	Output string
}

// Generate implements ClientGenerator.
func (g ExecClientGenerator) Generate(ctx context.Context, specPath string) (string, error) {
	opts := append([]executor.Option{
		executor.WithEnv(map[string]string{"GALV_SPEC_PATH": specPath}),
	}, g.Options...)

	if _, err := g.Command.Run(ctx, opts...); err != nil {
		return "", err
	}

	if _, err := os.Stat(g.Output); err != nil {
		return "", fmt.Errorf("client not produced at %q: %w", g.Output, err)
	}
	return g.Output, nil
}
