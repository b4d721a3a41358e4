package provider

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
)

// SettingStore persists flat key/value runtime settings: provider enabled
// flags and the active environment per category.
type SettingStore struct {
	db *sql.DB
}

// NewSettingStore creates the store and its schema.
func NewSettingStore(db *sql.DB) (*SettingStore, error) {
	s := &SettingStore{db: db}
	query := `
	CREATE TABLE IF NOT EXISTS gateway_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to initialize settings schema: %w", err)
	}
	return s, nil
}

// Get returns the value for key, or "" when unset.
func (s *SettingStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM gateway_settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load setting %s: %w", key, err)
	}
	return value, nil
}

// Set upserts a setting.
func (s *SettingStore) Set(ctx context.Context, key, value string) error {
	query := `
	INSERT INTO gateway_settings (key, value, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(key)
	DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

func enabledKey(category Category, providerKey string) string {
	return fmt.Sprintf("%s.%s.enabled", category, providerKey)
}

func environmentKey(category Category) string {
	return fmt.Sprintf("%s.environment", category)
}

// IsEnabled reports whether a provider is switched on. Unset means disabled.
func (s *SettingStore) IsEnabled(ctx context.Context, category Category, providerKey string) (bool, error) {
	value, err := s.Get(ctx, enabledKey(category, providerKey))
	if err != nil {
		return false, err
	}
	enabled, _ := strconv.ParseBool(value)
	return enabled, nil
}

// SetEnabled switches a provider on or off.
func (s *SettingStore) SetEnabled(ctx context.Context, category Category, providerKey string, enabled bool) error {
	return s.Set(ctx, enabledKey(category, providerKey), strconv.FormatBool(enabled))
}

// Environment returns the active environment for a category, defaulting to
// sandbox when unset.
func (s *SettingStore) Environment(ctx context.Context, category Category) (Environment, error) {
	value, err := s.Get(ctx, environmentKey(category))
	if err != nil {
		return EnvSandbox, err
	}
	return ParseEnvironment(value), nil
}

// SetEnvironment sets the active environment for a category.
func (s *SettingStore) SetEnvironment(ctx context.Context, category Category, env Environment) error {
	return s.Set(ctx, environmentKey(category), string(env))
}
