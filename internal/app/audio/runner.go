package audio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
)

type commandResult struct {
	Stdout   []byte
	Stderr   string
	ExitCode int
}

// commandRunner executes an external binary. Stdout is streamed to the given writer when
// non-nil and captured into the result otherwise.
type commandRunner interface {
	Run(ctx context.Context, dir string, stdout io.Writer, name string, args ...string) (commandResult, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, dir string, stdout io.Writer, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var captured bytes.Buffer
	var stderr bytes.Buffer
	if stdout != nil {
		cmd.Stdout = stdout
	} else {
		cmd.Stdout = &captured
	}
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{Stdout: captured.Bytes(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	}
	return result, err
}
