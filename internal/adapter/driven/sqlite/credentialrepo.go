package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ericfisherdev/p4panel/internal/domain/model"
	"github.com/ericfisherdev/p4panel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port.
// The table holds at most one row (id = 1). The ticket is encrypted with
// AES-256-GCM before write and decrypted after read; server and user are
// stored in plaintext.
type CredentialRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil when encryption is disabled.
}

// NewCredentialRepo creates a new CredentialRepo. key must be 32 bytes for AES-256-GCM,
// or nil to disable credential storage (Get and Put return ErrEncryptionKeyNotSet).
func NewCredentialRepo(db *DB, key []byte) *CredentialRepo {
	return &CredentialRepo{db: db, key: key}
}

// Get returns the saved credential, or (nil, nil) if none is saved.
func (r *CredentialRepo) Get(ctx context.Context) (*model.Credential, error) {
	if r.key == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	const query = `SELECT server, p4_user, ticket, saved_at FROM p4_credential WHERE id = 1`
	var (
		cred      model.Credential
		encrypted string
		savedAt   string
	)
	err := r.db.Reader.QueryRowContext(ctx, query).Scan(&cred.Server, &cred.User, &encrypted, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}

	cred.Ticket, err = r.decrypt(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decrypt ticket: %w", err)
	}

	cred.SavedAt, err = parseTime(savedAt)
	if err != nil {
		return nil, fmt.Errorf("parse saved_at: %w", err)
	}

	return &cred, nil
}

// Put stores cred, replacing any previously saved credential.
func (r *CredentialRepo) Put(ctx context.Context, cred model.Credential) error {
	encrypted, err := r.encrypt(cred.Ticket)
	if err != nil {
		return err
	}

	savedAt := cred.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	const query = `INSERT OR REPLACE INTO p4_credential (id, server, p4_user, ticket, saved_at) VALUES (1, ?, ?, ?, ?)`
	_, err = r.db.Writer.ExecContext(ctx, query, cred.Server, cred.User, encrypted, savedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put credential: %w", err)
	}
	return nil
}

// Clear removes the saved credential. It does not need the encryption key.
func (r *CredentialRepo) Clear(ctx context.Context) error {
	const query = `DELETE FROM p4_credential`
	if _, err := r.db.Writer.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded string
// containing the nonce (12 bytes) prepended to the ciphertext.
func (r *CredentialRepo) encrypt(plaintext string) (string, error) {
	if r.key == nil {
		return "", driven.ErrEncryptionKeyNotSet
	}

	gcm, err := r.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *CredentialRepo) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := r.gcm()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}

func (r *CredentialRepo) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
