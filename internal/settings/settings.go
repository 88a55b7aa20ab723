// Package settings is the process-wide configuration store: flat key→value
// rows with optional transparent encryption for confidential values. The
// codec is applied at this boundary only; callers never see ciphertext.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/vineetmn/spice-outreach/internal/models"
)

// Store abstracts the AppSetting row access so the service can be tested
// without a database.
type Store interface {
	GetSetting(key string) (*models.AppSetting, error)
	UpsertSetting(setting *models.AppSetting) error
}

type Service struct {
	store Store
	codec *Codec // nil disables encryption
}

func New(store Store, fernetKey string) (*Service, error) {
	var codec *Codec
	if fernetKey != "" {
		c, err := NewCodec(fernetKey)
		if err != nil {
			return nil, fmt.Errorf("invalid fernet key: %w", err)
		}
		codec = c
	}
	return &Service{store: store, codec: codec}, nil
}

// Get returns the stored value for key, or def when the key is absent or an
// encrypted value cannot be decrypted.
func (s *Service) Get(key, def string) string {
	setting, err := s.store.GetSetting(key)
	if err != nil || setting == nil {
		return def
	}
	if setting.IsEncrypted && setting.Value != "" {
		if s.codec == nil {
			return def
		}
		plain, err := s.codec.Decrypt(setting.Value)
		if err != nil {
			slog.Warn("Failed to decrypt setting, returning default", "key", key, "error", err)
			return def
		}
		return plain
	}
	return setting.Value
}

// Set stores value under key. Confidential values are encrypted when a codec
// is configured; without one they are stored plain and flagged accordingly.
func (s *Service) Set(key, value string, confidential bool) error {
	stored := value
	encrypted := false
	if confidential && value != "" && s.codec != nil {
		enc, err := s.codec.Encrypt(value)
		if err != nil {
			return fmt.Errorf("failed to encrypt setting %s: %w", key, err)
		}
		stored = enc
		encrypted = true
	}

	return s.store.UpsertSetting(&models.AppSetting{
		Key:         key,
		Value:       stored,
		IsEncrypted: encrypted,
		UpdatedAt:   time.Now().UTC(),
	})
}

// GormStore implements Store over the app_settings table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (g *GormStore) GetSetting(key string) (*models.AppSetting, error) {
	var setting models.AppSetting
	err := g.db.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (g *GormStore) UpsertSetting(setting *models.AppSetting) error {
	var existing models.AppSetting
	err := g.db.Where("key = ?", setting.Key).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return g.db.Create(setting).Error
	}
	if err != nil {
		return err
	}
	existing.Value = setting.Value
	existing.IsEncrypted = setting.IsEncrypted
	existing.UpdatedAt = setting.UpdatedAt
	return g.db.Save(&existing).Error
}
