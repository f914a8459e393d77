// Package render runs the external document renderer.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// ErrVersionUnsatisfied is returned by CheckVersion when the installed
// renderer does not meet the configured constraint.
var ErrVersionUnsatisfied = errors.New("renderer version does not satisfy constraint")

// Command is an external render invocation. It runs synchronously and is
// not safe for concurrent use on the same output.
type Command struct {
	// Name is the executable, looked up on PATH.
	Name string

	// Args are passed to Name unchanged.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Out receives the command's stdout and stderr. Nil discards them.
	Out io.Writer

	// Logger is used for structured logging.
	Logger *slog.Logger
}

func (c *Command) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}

	return slog.Default()
}

// String returns the command line.
func (c *Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Run executes the command and waits for it. A non-zero exit status is
// returned as an error wrapping *exec.ExitError.
func (c *Command) Run(ctx context.Context) error {
	path, err := exec.LookPath(c.Name)
	if err != nil {
		return fmt.Errorf("renderer %q not found on PATH: %w", c.Name, err)
	}

	out := c.Out
	if out == nil {
		out = io.Discard
	}

	cmd := exec.CommandContext(ctx, path, c.Args...) //nolint:gosec // configured renderer
	cmd.Dir = c.Dir
	cmd.Stdout = out
	cmd.Stderr = out

	start := time.Now()

	c.logger().Debug("running renderer", slog.String("command", c.String()), slog.String("dir", c.Dir))

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", c.String(), err)
	}

	c.logger().Debug("renderer finished", slog.Duration("elapsed", time.Since(start)))

	return nil
}

var versionPattern = regexp.MustCompile(`\d+\.\d+(\.\d+)?([-+][0-9A-Za-z.+-]*)?`)

// ParseVersion extracts the first semantic version found in the output of
// a "--version" invocation.
func ParseVersion(output string) (*semver.Version, error) {
	match := versionPattern.FindString(output)
	if match == "" {
		return nil, fmt.Errorf("no version found in %q", strings.TrimSpace(output))
	}

	v, err := semver.NewVersion(match)
	if err != nil {
		return nil, fmt.Errorf("parsing version %q: %w", match, err)
	}

	return v, nil
}

// Satisfies reports whether version meets constraint.
func Satisfies(constraint string, version *semver.Version) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", constraint, err)
	}

	return c.Check(version), nil
}

// CheckVersion runs "<name> --version" and checks the reported version
// against constraint. An empty constraint only verifies that the renderer
// runs. It returns the detected version.
func CheckVersion(ctx context.Context, name, constraint string) (*semver.Version, error) {
	out, err := exec.CommandContext(ctx, name, "--version").CombinedOutput() //nolint:gosec // configured renderer
	if err != nil {
		return nil, fmt.Errorf("running %s --version: %w", name, err)
	}

	v, err := ParseVersion(string(out))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if constraint == "" {
		return v, nil
	}

	ok, err := Satisfies(constraint, v)
	if err != nil {
		return nil, err
	}

	if !ok {
		return v, fmt.Errorf("%w: %s %s does not satisfy %q", ErrVersionUnsatisfied, name, v, constraint)
	}

	return v, nil
}
