package process

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Logger defines the logging interface for the runner.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Runner executes commands to completion, capturing stdout and stderr
// separately. A single Runner is shared by all invocations; it holds no
// per-command state and is safe for concurrent use.
type Runner struct {
	timeout time.Duration
	logger  Logger
}

// NewRunner creates a runner whose invocations are each bounded by
// timeout. A timeout of zero or less disables the bound. A nil logger
// disables logging.
func NewRunner(timeout time.Duration, logger Logger) *Runner {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Runner{
		timeout: timeout,
		logger:  logger,
	}
}

// Run executes name with args and returns its stdout.
//
// A non-zero exit folds captured stderr into the returned error; the hub's
// tools report argument and radio failures there. When the timeout or the
// caller's context expires the process is killed and the context error is
// returned, so callers can distinguish "slow hub" from "broken hub".
func (r *Runner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()

	r.logger.Debug("command finished",
		"binary", name,
		"args", args,
		"duration", time.Since(start),
		"exit_ok", err == nil,
	)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return stdout.Bytes(), nil
}
