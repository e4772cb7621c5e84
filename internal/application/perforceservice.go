package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ericfisherdev/p4panel/internal/domain/model"
	"github.com/ericfisherdev/p4panel/internal/domain/port/driven"
	"github.com/ericfisherdev/p4panel/internal/ztag"
)

const (
	// DefaultChangeLimit is used when neither the request nor the
	// configuration sets a limit.
	DefaultChangeLimit = 50
	// MaxChangeLimit caps "p4 changes -m" regardless of what is requested.
	MaxChangeLimit = 1000
)

// PerforceService answers the read-only queries of the HTTP API. Each call
// resolves credentials, logs in if only a password is available, runs one
// primary p4 query and maps its tagged output to domain records.
type PerforceService struct {
	runner       driven.CommandRunner
	credStore    driven.CredentialStore
	login        *LoginFlow
	defaultLimit int
	logger       *slog.Logger
}

// NewPerforceService creates a PerforceService. A non-positive defaultLimit
// falls back to DefaultChangeLimit.
func NewPerforceService(
	runner driven.CommandRunner,
	credStore driven.CredentialStore,
	login *LoginFlow,
	defaultLimit int,
	logger *slog.Logger,
) *PerforceService {
	if defaultLimit <= 0 {
		defaultLimit = DefaultChangeLimit
	}
	return &PerforceService{
		runner:       runner,
		credStore:    credStore,
		login:        login,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

// ResolveAuth merges req with the persisted credential and obtains a ticket
// via LoginFlow when only a password is available.
func (s *PerforceService) ResolveAuth(ctx context.Context, req model.ConnectionRequest) (model.ConnectionRequest, error) {
	cred, err := s.persisted(ctx)
	if err != nil {
		return req, err
	}

	merged := MergeCredential(req, cred)
	if merged.Server == "" || merged.User == "" {
		return merged, ErrMissingAuth
	}

	if merged.Ticket == "" {
		if merged.Password == "" {
			return merged, ErrMissingAuth
		}
		ticket, err := s.login.Login(ctx, merged.Server, merged.User, merged.Password)
		if err != nil {
			return merged, err
		}
		merged.Ticket = ticket
	}

	return merged, nil
}

// persisted loads the default credential. A store without an encryption
// key behaves as if nothing were saved.
func (s *PerforceService) persisted(ctx context.Context) (*model.Credential, error) {
	if s.credStore == nil {
		return nil, nil
	}
	cred, err := s.credStore.Get(ctx)
	if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load saved credential: %w", err)
	}
	return cred, nil
}

// Workspaces lists the client workspaces owned by the resolved user.
func (s *PerforceService) Workspaces(ctx context.Context, req model.ConnectionRequest) ([]model.Workspace, error) {
	req, err := s.ResolveAuth(ctx, req)
	if err != nil {
		return nil, err
	}

	out, err := s.runner.Run(ctx, req.Auth(), "-ztag", "clients", "-u", req.User)
	if err != nil {
		return nil, err
	}

	workspaces := []model.Workspace{}
	for rec := range ztag.Records(out, clientsOptions) {
		workspaces = append(workspaces, toWorkspace(rec))
	}
	return workspaces, nil
}

// Changes lists the most recent submitted changes under the client's root,
// newest first, with full descriptions merged in.
func (s *PerforceService) Changes(ctx context.Context, req model.ConnectionRequest) ([]model.Change, error) {
	if req.Client == "" {
		return nil, &MissingFieldError{Field: "client"}
	}
	limit, err := s.changeLimit(req.Limit)
	if err != nil {
		return nil, err
	}

	req, err = s.ResolveAuth(ctx, req)
	if err != nil {
		return nil, err
	}

	out, err := s.runner.Run(ctx, req.Auth(),
		"-ztag", "changes",
		"-m", strconv.Itoa(limit),
		"-s", "submitted",
		"//"+req.Client+"/...",
	)
	if err != nil {
		return nil, err
	}

	changes := []model.Change{}
	for rec := range ztag.Records(out, changesOptions) {
		changes = append(changes, toChange(rec))
	}

	s.describeInto(ctx, req.Auth(), changes)
	return changes, nil
}

func (s *PerforceService) changeLimit(requested int) (int, error) {
	switch {
	case requested < 0:
		return 0, ErrInvalidLimit
	case requested == 0:
		return s.defaultLimit, nil
	case requested > MaxChangeLimit:
		return MaxChangeLimit, nil
	default:
		return requested, nil
	}
}

// describeInto fetches full descriptions for changes with a single
// "p4 describe -s" and writes each trimmed desc into the change with the
// same number. If the describe fails the changes are left undescribed.
func (s *PerforceService) describeInto(ctx context.Context, auth model.AuthContext, changes []model.Change) {
	if len(changes) == 0 {
		return
	}

	byNumber := make(map[int]*model.Change, len(changes))
	args := make([]string, 0, len(changes)+3)
	args = append(args, "-ztag", "describe", "-s")
	for i := range changes {
		byNumber[changes[i].Number] = &changes[i]
		args = append(args, strconv.Itoa(changes[i].Number))
	}

	out, err := s.runner.Run(ctx, auth, args...)
	if err != nil {
		s.logger.Warn("p4 describe failed, returning changes without descriptions",
			"count", len(changes),
			"error", err,
		)
		return
	}

	for rec := range ztag.Records(out, describeOptions) {
		number, err := strconv.Atoi(strings.TrimSpace(rec["change"]))
		if err != nil {
			continue
		}
		change, ok := byNumber[number]
		if !ok {
			continue
		}
		desc := strings.TrimSpace(rec["desc"])
		change.Desc = &desc
	}
}

// Pending lists opened files. The query depends on which of Client and
// TargetUser are set:
//   - both: files opened by TargetUser anywhere within Client's view
//   - TargetUser only: files opened by TargetUser in any workspace
//   - Client only: files opened in Client
func (s *PerforceService) Pending(ctx context.Context, req model.ConnectionRequest) ([]model.OpenedFile, error) {
	if req.Client == "" && req.TargetUser == "" {
		return nil, &MissingFieldError{Field: "client"}
	}

	req, err := s.ResolveAuth(ctx, req)
	if err != nil {
		return nil, err
	}

	switch {
	case req.TargetUser != "" && req.Client != "":
		return s.pendingInView(ctx, req)
	case req.TargetUser != "":
		return s.opened(ctx, req.Auth(), "-a", "-u", req.TargetUser)
	default:
		return s.opened(ctx, req.Auth(), "-C", req.Client)
	}
}

// pendingInView finds files opened by req.TargetUser in any workspace but
// only under the depot paths mapped by req.Client. p4 opened cannot combine
// a user filter with another client's view, so the view is read first, the
// opened query runs across all workspaces for those paths, and the user
// filter is applied here.
func (s *PerforceService) pendingInView(ctx context.Context, req model.ConnectionRequest) ([]model.OpenedFile, error) {
	out, err := s.runner.Run(ctx, req.Auth(), "-ztag", "client", "-o", req.Client)
	if err != nil {
		return nil, err
	}

	var paths []string
	for spec := range ztag.Records(out, clientSpecOpts) {
		paths = append(paths, viewDepotPaths(spec)...)
	}
	if len(paths) == 0 {
		s.logger.Info("client view has no inclusion mappings", "client", req.Client)
		return []model.OpenedFile{}, nil
	}

	files, err := s.opened(ctx, req.Auth(), append([]string{"-a"}, paths...)...)
	if err != nil {
		return nil, err
	}

	filtered := files[:0]
	for _, f := range files {
		if f.User == req.TargetUser {
			filtered = append(filtered, f)
		}
	}
	return filtered, nil
}

func (s *PerforceService) opened(ctx context.Context, auth model.AuthContext, args ...string) ([]model.OpenedFile, error) {
	out, err := s.runner.Run(ctx, auth, append([]string{"-ztag", "opened"}, args...)...)
	if isNothingOpened(err) {
		return []model.OpenedFile{}, nil
	}
	if err != nil {
		return nil, err
	}

	files := []model.OpenedFile{}
	for rec := range ztag.Records(out, openedOptions) {
		files = append(files, toOpenedFile(rec))
	}
	return files, nil
}

// Users lists all user accounts on the server.
func (s *PerforceService) Users(ctx context.Context, req model.ConnectionRequest) ([]model.UserRecord, error) {
	req, err := s.ResolveAuth(ctx, req)
	if err != nil {
		return nil, err
	}

	out, err := s.runner.Run(ctx, req.Auth(), "-ztag", "users")
	if err != nil {
		return nil, err
	}

	users := []model.UserRecord{}
	for rec := range ztag.Records(out, usersOptions) {
		users = append(users, toUser(rec))
	}
	return users, nil
}

// isNothingOpened reports whether err is p4's "file(s) not opened" message,
// which some server versions return with a non-zero exit for an empty result.
func isNothingOpened(err error) bool {
	var perr *driven.ProtocolError
	if !errors.As(err, &perr) {
		return false
	}
	return strings.Contains(strings.ToLower(perr.Stderr), "not opened")
}
