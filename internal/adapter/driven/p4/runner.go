// Package p4 implements the CommandRunner port by executing the Perforce
// command-line client as a child process.
package p4

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/ericfisherdev/p4panel/internal/domain/model"
	"github.com/ericfisherdev/p4panel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CommandRunner = (*Runner)(nil)

const redacted = "********"

// Runner executes p4 with connection flags derived from an AuthContext.
// Every invocation is a fresh process; nothing is pooled or retried.
type Runner struct {
	bin     string
	timeout time.Duration // zero means no bound beyond the caller's context.
	logger  *slog.Logger
}

// NewRunner creates a Runner for the p4 binary at bin (looked up on PATH
// when it has no separator). A zero timeout leaves invocations unbounded.
func NewRunner(bin string, timeout time.Duration, logger *slog.Logger) *Runner {
	if bin == "" {
		bin = "p4"
	}
	return &Runner{bin: bin, timeout: timeout, logger: logger}
}

// Run executes p4 with args and returns stdout.
func (r *Runner) Run(ctx context.Context, auth model.AuthContext, args ...string) (string, error) {
	return r.run(ctx, auth, nil, args)
}

// RunWithInput executes p4 with stdin connected to the given text. The pipe
// is closed once the text has been written, so commands that read a password
// see EOF afterwards.
func (r *Runner) RunWithInput(ctx context.Context, auth model.AuthContext, stdin string, args ...string) (string, error) {
	return r.run(ctx, auth, strings.NewReader(stdin), args)
}

func (r *Runner) run(ctx context.Context, auth model.AuthContext, stdin *strings.Reader, args []string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	fullArgs := append(ConnectionFlags(auth), args...)

	r.logger.Info("p4 command", "cmd", RedactedCommandLine(r.bin, fullArgs))

	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, r.bin, fullArgs...)
	command.Stdout = &stdout
	command.Stderr = &stderr
	if stdin != nil {
		command.Stdin = stdin
	}

	start := time.Now()
	err := command.Run()
	if err != nil {
		perr := protocolError(err, stderr.String())
		r.logger.Debug("p4 command failed",
			"subcommand", subcommand(args),
			"exit_code", perr.ExitCode,
			"duration", time.Since(start).Round(time.Millisecond),
			"error", perr.Message,
		)
		return "", perr
	}

	r.logger.Debug("p4 command complete",
		"subcommand", subcommand(args),
		"bytes", stdout.Len(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return stdout.String(), nil
}

// ConnectionFlags builds the global flag prefix for auth in fixed order:
// -p server, -u user, -c client, -P ticket. Empty fields are omitted.
func ConnectionFlags(auth model.AuthContext) []string {
	var flags []string
	if auth.Server != "" {
		flags = append(flags, "-p", auth.Server)
	}
	if auth.User != "" {
		flags = append(flags, "-u", auth.User)
	}
	if auth.Client != "" {
		flags = append(flags, "-c", auth.Client)
	}
	if auth.Ticket != "" {
		flags = append(flags, "-P", auth.Ticket)
	}
	return flags
}

// RedactedCommandLine renders the command for logging with the value
// following every -P flag masked.
func RedactedCommandLine(bin string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, bin)
	for i := 0; i < len(args); i++ {
		parts = append(parts, args[i])
		if args[i] == "-P" && i+1 < len(args) {
			parts = append(parts, redacted)
			i++
		}
	}
	return strings.Join(parts, " ")
}

// protocolError classifies a failed invocation. The message prefers the
// tool's own stderr text and falls back to the process error.
func protocolError(err error, stderr string) *driven.ProtocolError {
	perr := &driven.ProtocolError{
		Stderr:   strings.TrimSpace(stderr),
		ExitCode: -1,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		perr.ExitCode = exitErr.ExitCode()
	}

	perr.Message = perr.Stderr
	if perr.Message == "" {
		perr.Message = err.Error()
	}
	return perr
}

// subcommand returns the first argument that is not a flag, skipping the
// tagged-output switch, for compact log lines.
func subcommand(args []string) string {
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return ""
}
