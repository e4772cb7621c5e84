package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/p4panel/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// P4PANEL_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set P4PANEL_SECRET_KEY")

// CredentialStore defines the driven port for the single persisted default
// credential. The adapter layer is responsible for encrypting the ticket;
// this interface operates on plaintext values at the domain boundary.
type CredentialStore interface {
	// Get returns the persisted credential, or (nil, nil) if none is saved.
	Get(ctx context.Context) (*model.Credential, error)

	// Put replaces the persisted credential.
	Put(ctx context.Context, cred model.Credential) error

	// Clear removes the persisted credential. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
