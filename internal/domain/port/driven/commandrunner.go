package driven

import (
	"context"

	"github.com/ericfisherdev/p4panel/internal/domain/model"
)

// ProtocolError is returned by a CommandRunner when the p4 process exits
// non-zero or cannot be started. Message is the tool's own error text when it
// wrote any, otherwise the process-level error.
type ProtocolError struct {
	Message  string
	Stderr   string
	ExitCode int
}

func (e *ProtocolError) Error() string {
	return e.Message
}

// CommandRunner defines the driven port for executing p4 commands. The
// connection flags derived from auth are prepended to args by the adapter.
type CommandRunner interface {
	// Run executes p4 with args and returns its full standard output.
	Run(ctx context.Context, auth model.AuthContext, args ...string) (string, error)

	// RunWithInput is Run with stdin written to the process and then closed.
	RunWithInput(ctx context.Context, auth model.AuthContext, stdin string, args ...string) (string, error)
}
