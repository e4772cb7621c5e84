package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/p4panel/internal/domain/model"
	"github.com/ericfisherdev/p4panel/internal/domain/port/driven"
)

// CredentialStatus describes the saved default credential without exposing
// the ticket itself.
type CredentialStatus struct {
	Saved     bool
	Server    string
	User      string
	HasTicket bool
	SavedAt   time.Time
}

// CredentialService manages the single persisted default credential.
type CredentialService struct {
	store  driven.CredentialStore
	login  *LoginFlow
	now    func() time.Time
	logger *slog.Logger
}

// NewCredentialService creates a CredentialService.
func NewCredentialService(store driven.CredentialStore, login *LoginFlow, logger *slog.Logger) *CredentialService {
	return &CredentialService{
		store:  store,
		login:  login,
		now:    time.Now,
		logger: logger,
	}
}

// Status reports what is currently saved. Without an encryption key nothing
// can have been saved, so that is reported as an empty status.
func (s *CredentialService) Status(ctx context.Context) (CredentialStatus, error) {
	cred, err := s.store.Get(ctx)
	if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
		return CredentialStatus{}, nil
	}
	if err != nil {
		return CredentialStatus{}, err
	}
	if cred == nil {
		return CredentialStatus{}, nil
	}
	return CredentialStatus{
		Saved:     true,
		Server:    cred.Server,
		User:      cred.User,
		HasTicket: cred.HasTicket(),
		SavedAt:   cred.SavedAt,
	}, nil
}

// Save resolves a ticket for req and persists it as the default credential,
// replacing any previous one. A request ticket is used as given; otherwise a
// supplied password triggers a fresh login, then a matching saved ticket is
// reused.
func (s *CredentialService) Save(ctx context.Context, req model.ConnectionRequest) (model.Credential, error) {
	existing, err := s.store.Get(ctx)
	if err != nil {
		return model.Credential{}, err
	}

	merged := MergeCredential(req, existing)
	if merged.Server == "" || merged.User == "" {
		return model.Credential{}, ErrMissingAuth
	}

	ticket := req.Ticket
	if ticket == "" && req.Password != "" {
		ticket, err = s.login.Login(ctx, merged.Server, merged.User, req.Password)
		if err != nil {
			return model.Credential{}, err
		}
	}
	if ticket == "" {
		ticket = merged.Ticket
	}
	if ticket == "" {
		return model.Credential{}, ErrMissingAuth
	}

	cred := model.Credential{
		Server:  merged.Server,
		User:    merged.User,
		Ticket:  ticket,
		SavedAt: s.now().UTC(),
	}
	if err := s.store.Put(ctx, cred); err != nil {
		return model.Credential{}, fmt.Errorf("save credential: %w", err)
	}

	s.logger.Info("saved default p4 credential", "server", cred.Server, "user", cred.User)
	return cred, nil
}

// Clear removes the saved default credential.
func (s *CredentialService) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	s.logger.Info("cleared default p4 credential")
	return nil
}
