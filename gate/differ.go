package gate

import (
	"context"
	"fmt"

	"github.com/Battery-Intelligence-Lab/galv-release/executor"
)

// ExecDiffer runs an external OpenAPI diff tool.
//
// The tool contract follows the usual diff convention: exit 0 means the
// candidate is backward compatible, exit 1 means it is not (the report is on
// stdout), any other exit code is a tool failure.
type ExecDiffer struct {
	// Program is the diff binary or wrapper script.
	Program string

	// Args are fixed arguments placed before the reference and candidate
	// paths, e.g. []string{"breaking", "--fail-on", "ERR"}.
	Args []string
}

// Diff implements Differ.
func (d ExecDiffer) Diff(ctx context.Context, reference, candidate string) (Report, error) {
	argv := make([]string, 0, len(d.Args)+2)
	argv = append(argv, d.Args...)
	argv = append(argv, reference, candidate)

	result, err := executor.New(d.Program, argv...).Run(ctx)
	if err != nil {
		if result != nil && result.ExitCode == 1 {
			return Report{Compatible: false, Summary: result.Stdout + result.Stderr}, nil
		}
		return Report{}, fmt.Errorf("diff tool: %w", err)
	}

	return Report{Compatible: true, Summary: result.Stdout}, nil
}
