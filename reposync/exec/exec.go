// Package exec provides shell command execution helpers.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

const redacted = "***"

// Runner executes commands and scrubs Secrets from
// everything it logs or returns. The zero value runs
// commands without scrubbing.
type Runner struct {
	// Secrets are literal values (tokens, credentialed
	// URLs) replaced by "***" in logs and errors.
	Secrets []string
}

// Ex executes the named command in the given directory and
// returns combined stdout+stderr output with surrounding
// whitespace trimmed. Pass empty dir to use the current
// working directory.
func (r Runner) Ex(
	ctx context.Context,
	dir string,
	name string,
	arg ...string,
) (string, error) {
	return r.run(ctx, dir, name, arg, true)
}

// Out is like Ex but returns stdout only. Stderr is kept
// for the error message.
func (r Runner) Out(
	ctx context.Context,
	dir string,
	name string,
	arg ...string,
) (string, error) {
	return r.run(ctx, dir, name, arg, false)
}

func (r Runner) run(
	ctx context.Context,
	dir string,
	name string,
	arg []string,
	combined bool,
) (string, error) {
	const errCtx = "executing command"

	line := r.scrub(name + " " + strings.Join(arg, " "))

	slog.Debug("executing", "cmd", line, "dir", dir)

	//nolint:gosec // args are built by callers from config
	cmd := exec.CommandContext(ctx, name, arg...)
	if dir != "" {
		cmd.Dir = dir
	}

	var (
		by     []byte
		err    error
		stderr bytes.Buffer
	)

	if combined {
		by, err = cmd.CombinedOutput()
	} else {
		cmd.Stderr = &stderr
		by, err = cmd.Output()
	}

	out := strings.TrimSpace(string(by))

	slog.Debug("output", "result", r.scrub(out))

	if err != nil {
		detail := out
		if !combined {
			detail = strings.TrimSpace(stderr.String())
		}

		return r.scrub(out), fmt.Errorf(
			"%s: %s: %s: %w",
			errCtx, line, r.scrub(detail), err,
		)
	}

	return out, nil
}

// scrub replaces every configured secret in s.
func (r Runner) scrub(s string) string {
	for _, secret := range r.Secrets {
		if secret == "" {
			continue
		}

		s = strings.ReplaceAll(s, secret, redacted)
	}

	return s
}

// Ex executes the command with a zero Runner.
func Ex(
	ctx context.Context,
	dir string,
	name string,
	arg ...string,
) (string, error) {
	return Runner{}.Ex(ctx, dir, name, arg...)
}
