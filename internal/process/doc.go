// Package process executes one-shot subprocesses.
//
// The Wink hub is driven entirely through its aprontest tool: every list,
// describe and attribute write is a short-lived invocation that prints a
// result and exits. Runner wraps that pattern once so callers get the
// pieces each invocation needs:
//   - Per-invocation timeout with process kill on expiry
//   - Separate stdout/stderr capture
//   - Stderr folded into the returned error on a non-zero exit
//   - Context-based cancellation for clean shutdown
//
// Example usage:
//
//	runner := process.NewRunner(30*time.Second, logger)
//	out, err := runner.Run(ctx, "aprontest", "-l")
//	if err != nil {
//	    return err
//	}
package process
