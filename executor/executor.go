// Package executor runs the external collaborators of the release pipeline
// (test suite, spec generation, spec diff) as child processes with output
// capture and context cancellation.
//
// There is deliberately no retry support: a blocked release run is final and
// re-attempts belong to the enclosing CI runner.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Options configures a single command run.
type Options struct {
	// WorkingDir is the directory the command runs in. Empty means the
	// current process directory.
	WorkingDir string

	// Env holds extra environment variables appended to the process env.
	Env map[string]string

	// Stdout and Stderr, when set, receive a live copy of the command's
	// output in addition to the captured Result.
	Stdout io.Writer
	Stderr io.Writer
}

// Option mutates Options.
type Option func(*Options)

// WithWorkingDir sets the command working directory.
func WithWorkingDir(dir string) Option {
	return func(o *Options) { o.WorkingDir = dir }
}

// WithEnv appends environment variables for the command.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}
		for k, v := range env {
			o.Env[k] = v
		}
	}
}

// WithStdout tees command stdout to w.
func WithStdout(w io.Writer) Option {
	return func(o *Options) { o.Stdout = w }
}

// WithStderr tees command stderr to w.
func WithStderr(w io.Writer) Option {
	return func(o *Options) { o.Stderr = w }
}

// Command is an external program invocation.
type Command struct {
	program string
	args    []string
}

// New creates a Command for the given program and arguments.
func New(program string, args ...string) *Command {
	return &Command{program: program, args: args}
}

// NewFromArgv creates a Command from a non-empty argv slice, as read from
// pipeline configuration.
func NewFromArgv(argv []string) (*Command, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}
	return New(argv[0], argv[1:]...), nil
}

// String renders the command for logging.
func (c *Command) String() string {
	return strings.Join(append([]string{c.program}, c.args...), " ")
}

// Run executes the command and waits for it to finish.
// The Result is returned even on failure so callers can inspect output and
// exit code; a non-zero exit is reported as an error wrapping exec.ExitError.
func (c *Command) Run(ctx context.Context, opts ...Option) (*Result, error) {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}

	cmd := exec.CommandContext(ctx, c.program, c.args...)

	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}

	if len(options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range options.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if options.Stdout != nil {
		cmd.Stdout = io.MultiWriter(&stdout, options.Stdout)
	}
	if options.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, options.Stderr)
	}

	err := cmd.Run()

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(err),
	}

	if err != nil {
		return result, fmt.Errorf("%s: %w", c.program, err)
	}
	return result, nil
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exitErr):
		return exitErr.ExitCode()
	default:
		return -1
	}
}
