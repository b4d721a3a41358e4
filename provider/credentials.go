package provider

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ecomkit/gateway/infra/logger"
)

// CredentialStore persists provider credentials keyed by
// (category, provider, environment). Secret fields are encrypted at rest;
// decrypted values exist only in the transient CredentialSet handed to an
// adapter and are never cached in plaintext.
type CredentialStore struct {
	db        *sql.DB
	encryptor *Encryptor
	registry  *Registry
}

// NewCredentialStore creates the store and its schema.
func NewCredentialStore(db *sql.DB, encryptor *Encryptor, registry *Registry) (*CredentialStore, error) {
	s := &CredentialStore{db: db, encryptor: encryptor, registry: registry}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize credential schema: %w", err)
	}
	return s, nil
}

func (s *CredentialStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS provider_credentials (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		provider_key TEXT NOT NULL,
		environment TEXT NOT NULL,
		fields TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(category, provider_key, environment)
	);

	CREATE INDEX IF NOT EXISTS idx_credentials_lookup
		ON provider_credentials(category, provider_key, environment);
	`
	_, err := s.db.Exec(query)
	return err
}

// Save validates fields against the provider's credential schema, encrypts
// secret fields and upserts the record. Unknown keys are rejected.
func (s *CredentialStore) Save(ctx context.Context, category Category, providerKey string, env Environment, fields map[string]string) error {
	desc, ok := s.registry.Get(providerKey)
	if !ok || desc.Category != category {
		return fmt.Errorf("%s/%s: %w", category, providerKey, ErrUnknownProvider)
	}

	if err := ValidateCredentials(desc, fields); err != nil {
		return err
	}

	stored := make(map[string]string, len(fields))
	for _, field := range desc.CredentialSchema {
		value, present := fields[field.Key]
		if !present {
			continue
		}
		if field.Secret && value != "" {
			encrypted, err := s.encryptor.Encrypt(value)
			if err != nil {
				return fmt.Errorf("failed to encrypt field %s: %w", field.Key, err)
			}
			value = encrypted
		}
		stored[field.Key] = value
	}

	payload, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	query := `
	INSERT INTO provider_credentials (category, provider_key, environment, fields, updated_at)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(category, provider_key, environment)
	DO UPDATE SET
		fields = excluded.fields,
		updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, string(category), providerKey, string(env), string(payload)); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	logger.Info("Saved provider credentials", logger.LogContext{
		Provider: providerKey,
		Fields:   map[string]any{"category": category, "environment": env},
	})
	return nil
}

// Resolve loads and decrypts the credential set for a tuple. A missing record
// is ErrCredentialsNotConfigured; a record with blank fields resolves to an
// empty-but-typed set, leaving null-checks to the adapter.
func (s *CredentialStore) Resolve(ctx context.Context, category Category, providerKey string, env Environment) (CredentialSet, error) {
	desc, ok := s.registry.Get(providerKey)
	if !ok || desc.Category != category {
		return nil, fmt.Errorf("%s/%s: %w", category, providerKey, ErrUnknownProvider)
	}

	stored, err := s.load(ctx, category, providerKey, env)
	if err != nil {
		return nil, err
	}

	creds := make(CredentialSet, len(stored))
	for _, field := range desc.CredentialSchema {
		value := stored[field.Key]
		if field.Secret && value != "" {
			decrypted, err := s.encryptor.Decrypt(value)
			if err != nil {
				return nil, fmt.Errorf("failed to decrypt field %s: %w", field.Key, err)
			}
			value = decrypted
		}
		creds[field.Key] = value
	}
	return creds, nil
}

// Masked loads the credential set with secret fields masked for admin reads.
// Plaintext secret values never leave the store through this path.
func (s *CredentialStore) Masked(ctx context.Context, category Category, providerKey string, env Environment) (map[string]string, error) {
	creds, err := s.Resolve(ctx, category, providerKey, env)
	if err != nil {
		return nil, err
	}

	desc, _ := s.registry.Get(providerKey)
	masked := make(map[string]string, len(creds))
	for _, field := range desc.CredentialSchema {
		value := creds[field.Key]
		if field.Secret {
			value = logger.MaskSecret(value)
		}
		masked[field.Key] = value
	}
	return masked, nil
}

// Delete removes the record for a tuple.
func (s *CredentialStore) Delete(ctx context.Context, category Category, providerKey string, env Environment) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM provider_credentials WHERE category = ? AND provider_key = ? AND environment = ?`,
		string(category), providerKey, string(env))
	if err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s/%s/%s: %w", category, providerKey, env, ErrCredentialsNotConfigured)
	}
	return nil
}

// IsConfigured reports whether a record exists for the tuple.
func (s *CredentialStore) IsConfigured(ctx context.Context, category Category, providerKey string, env Environment) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM provider_credentials WHERE category = ? AND provider_key = ? AND environment = ?`,
		string(category), providerKey, string(env)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check credentials: %w", err)
	}
	return count > 0, nil
}

func (s *CredentialStore) load(ctx context.Context, category Category, providerKey string, env Environment) (map[string]string, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT fields FROM provider_credentials WHERE category = ? AND provider_key = ? AND environment = ?`,
		string(category), providerKey, string(env)).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s/%s/%s: %w", category, providerKey, env, ErrCredentialsNotConfigured)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	var stored map[string]string
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return stored, nil
}
