package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zapio"
)

// Command is one external tool invocation.
type Command struct {
	Name        string   // Executable
	Args        []string // Arguments
	Dir         string   // Working directory, empty for the current one
	OKCodes     []int    // Exit codes treated as success, default {0}
	Secrets     []string // Argument values masked in logs and errors
	Interactive bool     // Attach the terminal (stdin/stdout/stderr) instead of capturing output
}

// String renders the command line with secrets masked.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		if a != "" && slices.Contains(c.Secrets, a) {
			a = "***"
		}
		parts = append(parts, a)
	}

	return strings.Join(parts, " ")
}

// success reports whether an exit code counts as success.
func (c Command) success(code int) bool {
	if len(c.OKCodes) == 0 {
		return code == 0
	}
	return slices.Contains(c.OKCodes, code)
}

// ToolError describes a failed external tool run.
type ToolError struct {
	Command  string // Masked command line
	Dir      string // Working directory
	Output   string // Combined stdout and stderr, empty for interactive runs
	Err      error  // Underlying error
	ExitCode int    // Process exit code, -1 if the process did not run
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s: exit code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *ToolError) Unwrap() error {
	return e.Err
}

// Runner runs external tools.
type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

// ExecRunner runs tools as child processes and logs their output line by line.
type ExecRunner struct {
	Log    *zap.Logger
	Stdin  io.Reader // Interactive stdin, default os.Stdin
	Stdout io.Writer // Interactive stdout, default os.Stdout
	Stderr io.Writer // Interactive stderr, default os.Stderr
}

// Run executes cmd and returns its combined output.
func (r *ExecRunner) Run(ctx context.Context, c Command) (string, error) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("tool", c.Name))
	log.Debug("run", zap.Stringer("cmd", c), zap.String("dir", c.Dir))

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	var out bytes.Buffer
	lines := &zapio.Writer{Log: log, Level: zapcore.DebugLevel}
	if c.Interactive {
		cmd.Stdin = orReader(r.Stdin, os.Stdin)
		cmd.Stdout = orWriter(r.Stdout, os.Stdout)
		cmd.Stderr = orWriter(r.Stderr, os.Stderr)
	} else {
		w := io.MultiWriter(&out, lines)
		cmd.Stdout = w
		cmd.Stderr = w
	}

	err := cmd.Run()
	_ = lines.Close()

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || ctx.Err() != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			return out.String(), &ToolError{Command: c.String(), Dir: c.Dir, Output: out.String(), Err: err, ExitCode: -1}
		}
		code = exitErr.ExitCode()
	}

	if !c.success(code) {
		return out.String(), &ToolError{Command: c.String(), Dir: c.Dir, Output: out.String(), Err: err, ExitCode: code}
	}
	if code != 0 {
		log.Debug("accepted exit code", zap.Int("code", code))
	}

	return out.String(), nil
}

func orReader(r, def io.Reader) io.Reader {
	if r != nil {
		return r
	}
	return def
}

func orWriter(w, def io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return def
}
