// Package pdfio is the PDF decoding boundary: page rasterization and text
// extraction through poppler, and document structure through pdfcpu.
package pdfio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/joseph-ayodele/doc-readiness/internal/common"
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec and logs each invocation.
type ExecRunner struct {
	Logger *slog.Logger
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		logger.Error("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10), // cap at 8KB
		)
	} else {
		logger.Debug("exec ok",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"stdout_bytes", out.Len(),
			"stderr_bytes", errb.Len(),
		)
	}

	return out.Bytes(), errb.Bytes(), err
}

// classifyExecErr maps a failed command to the error taxonomy: a missing
// binary is a backend outage, anything else is a per-document failure.
func classifyExecErr(tool string, sentinel error, code string, err error, stderr []byte) error {
	if errors.Is(err, exec.ErrNotFound) {
		return common.NewAppError(common.CodeBackend, fmt.Sprintf("%s not found: %v", tool, err), common.ErrBackendUnavailable)
	}
	msg := fmt.Sprintf("%s: %v", tool, err)
	if s := strings.TrimSpace(string(stderr)); s != "" {
		msg += ": " + truncate(s, 512)
	}
	return common.NewAppError(code, msg, sentinel)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
