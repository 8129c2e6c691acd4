// Package runner is the process execution facility used to reach the
// tailscale CLI, logread, uci and the service manager.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Result captures a finished command.
type Result struct {
	Code   int
	Stdout string
	Stderr string
}

// OK reports whether the command exited with status zero.
func (r Result) OK() bool {
	return r.Code == 0
}

// Combined joins stdout and stderr for error reporting.
func (r Result) Combined() string {
	return strings.TrimSpace(strings.TrimSpace(r.Stdout) + " " + strings.TrimSpace(r.Stderr))
}

// Runner abstracts process execution for testability.
//
// Run returns an error only when the command could not be executed at all;
// a non-zero exit status is reported through Result.Code.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
	// Start launches the command without waiting for it to finish.
	Start(name string, args ...string) error
}

// Observer is notified after every command that ran to completion.
type Observer func(argv []string, res Result, err error)

type execRunner struct {
	observe Observer
}

// New returns a Runner backed by os/exec. observe may be nil.
func New(observe Observer) Runner {
	return execRunner{observe: observe}
}

func (e execRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		res.Code = exitErr.ExitCode()
		err = nil
	} else if err != nil {
		res.Code = -1
	}
	if e.observe != nil {
		e.observe(append([]string{name}, args...), res, err)
	}
	return res, err
}

func (e execRunner) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		err := cmd.Wait()
		if e.observe != nil {
			res := Result{}
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				res.Code = exitErr.ExitCode()
				err = nil
			}
			e.observe(append([]string{name}, args...), res, err)
		}
	}()
	return nil
}
