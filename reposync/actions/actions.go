package actions

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sethvargo/go-githubactions"
)

const outputEnv = "GITHUB_OUTPUT"

// Commands reads step inputs and emits workflow
// commands.
type Commands struct {
	action *githubactions.Action
}

// New returns Commands over a go-githubactions Action
// built with opts.
func New(opts ...githubactions.Option) *Commands {
	return &Commands{action: githubactions.New(opts...)}
}

// FromEnv returns Commands bound to the process
// environment and stdout.
func FromEnv() *Commands {
	return New()
}

// Input returns the first non blank value among
// INPUT_<NAME> and <NAME> for each name in turn. The
// runner sets unset inputs to the empty string, so blank
// values count as missing.
func (c *Commands) Input(names ...string) (string, bool) {
	for _, name := range names {
		if v := c.action.GetInput(name); v != "" {
			return v, true
		}

		if v := strings.TrimSpace(c.action.Getenv(name)); v != "" {
			return v, true
		}
	}

	return "", false
}

// SetOutput publishes a step output. Without a step
// output file the value is only logged.
func (c *Commands) SetOutput(name string, value string) (retErr error) {
	const errCtx = "setting output"

	if c.action.Getenv(outputEnv) == "" {
		slog.Info("step output", "name", name, "value", value)

		return nil
	}

	// The library panics when the output file cannot be
	// written.
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("%s: %s: %w", errCtx, name, panicErr(r))
		}
	}()

	c.action.SetOutput(name, value)

	return nil
}

// AddMask asks the runner to hide value in the job log.
// An empty value is ignored.
func (c *Commands) AddMask(value string) {
	if value == "" {
		return
	}

	c.action.AddMask(value)
}

func panicErr(r any) error {
	if err, ok := r.(error); ok {
		return err
	}

	return errors.New(fmt.Sprint(r))
}
