package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5"

	"github.com/mobilityp/errorsender/internal/crypto"
	"github.com/mobilityp/errorsender/internal/model"
)

type SettingsStore struct {
	db      DBTX
	crypter *crypto.Crypter
}

func NewSettingsStore(db DBTX, crypter *crypto.Crypter) *SettingsStore {
	return &SettingsStore{db: db, crypter: crypter}
}

// Load decrypts and returns the current settings. Seeds from env vars if no row exists.
func (s *SettingsStore) Load(ctx context.Context) (*model.IntegrationSettings, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `SELECT data FROM integration_settings WHERE id = 1`).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		defaults := settingsFromEnv()
		if saveErr := s.Save(ctx, defaults); saveErr != nil {
			return nil, saveErr
		}
		slog.Info("settings: seeded from environment")
		return defaults, nil
	} else if err != nil {
		return nil, fmt.Errorf("settings: query: %w", err)
	}

	plaintext, err := s.crypter.Decrypt(data)
	if err != nil {
		slog.Error("settings: decryption failed", "err", err)
		return nil, fmt.Errorf("settings: decrypt: %w", err)
	}
	var settings model.IntegrationSettings
	if err := json.Unmarshal(plaintext, &settings); err != nil {
		return nil, fmt.Errorf("settings: decode: %w", err)
	}
	return &settings, nil
}

// Save encrypts and persists settings.
func (s *SettingsStore) Save(ctx context.Context, settings *model.IntegrationSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	ciphertext, err := s.crypter.Encrypt(raw)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO integration_settings (id, data, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		ciphertext,
	)
	return err
}

func settingsFromEnv() *model.IntegrationSettings {
	return &model.IntegrationSettings{
		APIToken:          os.Getenv("DESK365_API_TOKEN"),
		DueInBusinessDays: os.Getenv("DESK365_DUE_IN_BUSINESS_DAYS") == "true",
	}
}
