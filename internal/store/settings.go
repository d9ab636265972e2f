package store

import (
	"context"
	"database/sql"
	"errors"
)

// Setting keys.
const (
	SettingUserID = "user_id"
)

// Setting returns a stored setting value.
func (s *Store) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetSetting writes a setting value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// EnsureSetting returns the stored value for key, generating and storing one
// when it is missing.
func (s *Store) EnsureSetting(ctx context.Context, key string, gen func() string) (string, error) {
	value, ok, err := s.Setting(ctx, key)
	if err != nil {
		return "", err
	}
	if ok && value != "" {
		return value, nil
	}
	value = gen()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO NOTHING`, key, value,
	); err != nil {
		return "", err
	}
	stored, _, err := s.Setting(ctx, key)
	if err != nil {
		return "", err
	}
	return stored, nil
}
