package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/p4panel/internal/domain/model"
	"github.com/ericfisherdev/p4panel/internal/domain/port/driven"
)

// LoginFlow exchanges a password for a ticket: it first establishes trust
// with the server, then runs a non-interactive login that prints the ticket.
type LoginFlow struct {
	runner driven.CommandRunner
	logger *slog.Logger
}

// NewLoginFlow creates a LoginFlow backed by runner.
func NewLoginFlow(runner driven.CommandRunner, logger *slog.Logger) *LoginFlow {
	return &LoginFlow{runner: runner, logger: logger}
}

// Login returns a ticket for user on server. The trust step never fails the
// flow: servers that are already trusted or do not use SSL reject it, and
// login is attempted regardless. Login runs exactly once.
func (f *LoginFlow) Login(ctx context.Context, server, user, password string) (string, error) {
	if _, err := f.runner.Run(ctx, model.AuthContext{Server: server}, "trust", "-y"); err != nil {
		f.logger.Warn("p4 trust failed, continuing with login", "server", server, "error", err)
	}

	auth := model.AuthContext{Server: server, User: user}
	out, err := f.runner.RunWithInput(ctx, auth, password+"\n", "login", "-a", "-p")
	if err != nil {
		var perr *driven.ProtocolError
		if !errors.As(err, &perr) {
			return "", fmt.Errorf("login: %w", err)
		}
		if perr.Stderr == "" {
			return "", errors.New("login failed")
		}
		return "", perr
	}

	ticket := lastLine(out)
	if ticket == "" {
		return "", errors.New("login failed: server returned no ticket")
	}

	f.logger.Info("p4 login succeeded", "server", server, "user", user)
	return ticket, nil
}

// lastLine returns the last non-empty line of s, trimmed. Some p4 versions
// echo the password prompt on stdout ahead of the ticket.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
