// Package iomiriad invokes the external radio-interferometry reduction
// tools (MIRIAD's atlod, uvsplit, calibration and imaging tasks, and the
// Aegean source finder). The pipeline only assembles arguments and
// checks exit status; the science happens in the tools themselves.
package iomiriad

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner executes one external tool invocation. The string result is the
// combined stdout and stderr of the tool.
type Runner interface {
	Run(ctx context.Context, tool string, args ...string) (string, error)
}

// ExecRunner runs tools as child processes.
type ExecRunner struct {
	// Dir is the working directory of every invocation; empty means the
	// current directory. MIRIAD tasks resolve dataset names relative to
	// where they run.
	Dir string
}

// New creates a runner working in the given directory.
func New(dir string) *ExecRunner {
	return &ExecRunner{Dir: dir}
}

// Run executes a tool and returns its combined output. A missing binary
// and a non-zero exit are distinct errors: the first is fatal for the
// whole run, the second is usually a per-source failure.
func (r *ExecRunner) Run(ctx context.Context, tool string, args ...string) (string, error) {
	path, err := exec.LookPath(tool)
	if err != nil {
		return "", MissingError(tool, err)
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = r.Dir

	out, err := cmd.CombinedOutput()
	output := string(out)

	slog.Debug("External tool finished",
		"tool", tool,
		"args", strings.Join(args, " "),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
		"failed", err != nil,
	)

	if err != nil {
		return output, RunError(tool, args, output, err)
	}
	return output, nil
}

// CheckTools verifies that every required external tool is on the PATH.
// Stages call this before touching any file so a missing toolkit cannot
// leave a day half processed.
func CheckTools(tools ...string) error {
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			return MissingError(tool, err)
		}
	}
	return nil
}

// Keyval renders MIRIAD's key=value argument form.
func Keyval(key, value string) string {
	return key + "=" + value
}

// tail returns the last n lines of a tool's output for error reports.
func tail(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
