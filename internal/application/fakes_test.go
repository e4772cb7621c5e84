package application

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/p4panel/internal/domain/model"
	"github.com/ericfisherdev/p4panel/internal/domain/port/driven"
)

// --- Fake CommandRunner ---

type runnerCall struct {
	auth  model.AuthContext
	stdin string
	args  []string
}

type runnerResponse struct {
	out string
	err error
}

// fakeRunner answers p4 invocations by subcommand (the first argument that
// is not a flag) and records every call in order.
type fakeRunner struct {
	responses map[string]runnerResponse
	calls     []runnerCall
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: map[string]runnerResponse{}}
}

func (f *fakeRunner) on(subcommand, out string, err error) *fakeRunner {
	f.responses[subcommand] = runnerResponse{out: out, err: err}
	return f
}

func (f *fakeRunner) Run(ctx context.Context, auth model.AuthContext, args ...string) (string, error) {
	return f.RunWithInput(ctx, auth, "", args...)
}

func (f *fakeRunner) RunWithInput(_ context.Context, auth model.AuthContext, stdin string, args ...string) (string, error) {
	f.calls = append(f.calls, runnerCall{auth: auth, stdin: stdin, args: args})
	resp := f.responses[firstCommand(args)]
	return resp.out, resp.err
}

// subcommands returns the subcommand of every recorded call in order.
func (f *fakeRunner) subcommands() []string {
	names := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		names = append(names, firstCommand(c.args))
	}
	return names
}

// call returns the first recorded call for subcommand, or nil.
func (f *fakeRunner) call(subcommand string) *runnerCall {
	for i := range f.calls {
		if firstCommand(f.calls[i].args) == subcommand {
			return &f.calls[i]
		}
	}
	return nil
}

func firstCommand(args []string) string {
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return ""
}

// --- In-memory CredentialStore ---

type memCredentialStore struct {
	cred   *model.Credential
	getErr error
	putErr error
	puts   int
}

var _ driven.CredentialStore = (*memCredentialStore)(nil)

func (m *memCredentialStore) Get(_ context.Context) (*model.Credential, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.cred == nil {
		return nil, nil
	}
	c := *m.cred
	return &c, nil
}

func (m *memCredentialStore) Put(_ context.Context, cred model.Credential) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.cred = &cred
	return nil
}

func (m *memCredentialStore) Clear(_ context.Context) error {
	m.cred = nil
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
