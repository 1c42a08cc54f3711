package wpdeploy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

var searchPaths = []string{
	"/usr/bin",
	"/usr/local/bin",
	"/usr/local/mysql/bin",
	"/opt/homebrew/bin",
	"/opt/local/bin",
	"/opt/local/lib/mysql57/bin",
	"/usr/sbin",
	"/usr/local/sbin",
}

var errExecutableNotFound = errors.New("executable not found")

// find looks for an executable on the well-known search paths, then on $PATH
func find(fs afero.Fs, filename string) (string, error) {
	for _, p := range searchPaths {
		var pathFilename = filepath.Join(p, filename)
		if _, err := fs.Stat(pathFilename); err == nil {
			return pathFilename, nil
		}
	}
	if pathFilename, err := exec.LookPath(filename); err == nil {
		return pathFilename, nil
	}
	return "", errors.Wrap(errExecutableNotFound, filename)
}

// Command describes a single external process invocation
type Command struct {
	Name   string
	Args   []string
	Env    []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
}

func (c *Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner executes external commands
type Runner interface {
	Run(ctx context.Context, cmd *Command) error
}

// ExitError reports a command that ran but exited with a non-zero status
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Command, e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// ExecRunner runs commands as child processes. Output not captured by the
// command goes to Stdout and Stderr.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner attached to the process's standard streams
func NewExecRunner() *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run implements Runner
func (r *ExecRunner) Run(ctx context.Context, c *Command) error {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = r.Stdout
	}
	cmd.Stderr = &stderr
	if r.Stderr != nil {
		cmd.Stderr = io.MultiWriter(r.Stderr, &stderr)
	}
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	log.Debugf("running [%s]", c)
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &ExitError{
				Command: filepath.Base(c.Name),
				Code:    exitErr.ExitCode(),
				Stderr:  strings.TrimSpace(stderr.String()),
			}
		}
		return errors.Wrapf(err, "running %s", filepath.Base(c.Name))
	}
	return nil
}
