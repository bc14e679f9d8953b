package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Well-known setting keys.
const (
	SettingVoice     = "voice_enabled"
	SettingDebug     = "debug_mode"
	SettingLastDrill = "last_exercise"
)

// SettingsRepository stores per-user key-value preferences.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value stored under key for userID.
func (r *SettingsRepository) Get(userID, key string) (string, error) {
	var value string
	err := r.db.QueryRow(
		`SELECT value FROM settings WHERE user_id = ? AND key = ?`,
		userID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// GetBool returns a boolean setting, or def when it is unset.
func (r *SettingsRepository) GetBool(userID, key string, def bool) (bool, error) {
	v, err := r.Get(userID, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return v == "true" || v == "1", nil
}

// Set stores value under key for userID, creating the profile row if needed.
func (r *SettingsRepository) Set(userID, key, value string) error {
	if userID == "" || key == "" {
		return fmt.Errorf("%w: user id and key are required", ErrInvalidRecord)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := ensureProfile(tx, userID); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO settings (user_id, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value`,
		userID, key, value,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// List returns every setting stored for userID.
func (r *SettingsRepository) List(userID string) (map[string]string, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}
