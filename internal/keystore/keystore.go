// Package keystore manages the gateway's replaceable API key set and
// answers credential checks for the HTTP middleware.
package keystore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/smsgrid/sms-gateway/internal/models"
	"gorm.io/gorm"
)

// ErrNoAdminKey rejects replacement sets without any admin key.
var ErrNoAdminKey = errors.New("you must have at least one admin key")

// ValidationError reports a malformed key entry in a replacement set.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Store keeps the key set in the database and serves credential checks
// from an in-memory snapshot, reloaded after every replacement.
type Store struct {
	db *gorm.DB

	mu          sync.RWMutex
	adminKeys   map[string]models.APIKey
	messageKeys map[string]models.APIKey
	smppKeys    map[string]models.APIKey
}

// New constructs a Store. Call Load before serving traffic.
func New(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		adminKeys:   map[string]models.APIKey{},
		messageKeys: map[string]models.APIKey{},
		smppKeys:    map[string]models.APIKey{},
	}
}

// Load refreshes the in-memory snapshot from the database.
func (s *Store) Load(ctx context.Context) error {
	var rows []models.APIKey
	if errFind := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; errFind != nil {
		return fmt.Errorf("keystore: load: %w", errFind)
	}

	admin := make(map[string]models.APIKey)
	message := make(map[string]models.APIKey)
	smpp := make(map[string]models.APIKey)
	for _, row := range rows {
		switch row.Type {
		case models.APIKeyTypeAdmin:
			admin[row.Key] = row
		case models.APIKeyTypeSMPP:
			smpp[row.SystemID] = row
		default:
			message[row.Key] = row
		}
	}

	s.mu.Lock()
	s.adminKeys = admin
	s.messageKeys = message
	s.smppKeys = smpp
	s.mu.Unlock()

	log.WithField("keys", len(rows)).Info("loaded api keys")
	return nil
}

// All returns the full key set: admin keys first, then message, then
// SMPP credentials, each block in stored order.
func (s *Store) All(ctx context.Context) ([]models.APIKey, error) {
	var rows []models.APIKey
	if errFind := s.db.WithContext(ctx).
		Order("CASE type WHEN 'admin' THEN 0 WHEN 'message' THEN 1 ELSE 2 END, id ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("keystore: list: %w", errFind)
	}
	return rows, nil
}

// Validate checks a replacement set: it must contain at least one admin
// key, admin/message entries carry only the key, and SMPP entries carry
// only a system id and password.
func Validate(keys []models.APIKey) error {
	hasAdmin := false
	for _, key := range keys {
		if key.Type == models.APIKeyTypeAdmin {
			hasAdmin = true
		}
	}
	if len(keys) == 0 || !hasAdmin {
		return ErrNoAdminKey
	}
	for _, key := range keys {
		switch key.Type {
		case models.APIKeyTypeAdmin, models.APIKeyTypeMessage:
			if key.Key == "" || key.SystemID != "" || key.Password != "" {
				return &ValidationError{Reason: fmt.Sprintf(
					"%s keys must contain only the key, not systemId/password", key.Type)}
			}
		case models.APIKeyTypeSMPP:
			if key.Key != "" || key.SystemID == "" || key.Password == "" {
				return &ValidationError{Reason:
					"smpp keys must contain valid systemId/password combination and not key"}
			}
		}
	}
	return nil
}

// Replace swaps the stored key set for the given one in a single
// transaction and reloads the snapshot. The caller is expected to have
// validated the set first.
func (s *Store) Replace(ctx context.Context, keys []models.APIKey) error {
	if errValidate := Validate(keys); errValidate != nil {
		return errValidate
	}
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errDelete := tx.Where("1 = 1").Delete(&models.APIKey{}).Error; errDelete != nil {
			return errDelete
		}
		for i := range keys {
			row := keys[i]
			row.ID = 0
			if errCreate := tx.Create(&row).Error; errCreate != nil {
				return errCreate
			}
		}
		return nil
	})
	if errTx != nil {
		return fmt.Errorf("keystore: replace: %w", errTx)
	}
	if errLoad := s.Load(ctx); errLoad != nil {
		return errLoad
	}
	log.WithField("keys", len(keys)).Info("updated api keys")
	return nil
}

// IsAdminKey reports whether the key is a valid admin credential.
func (s *Store) IsAdminKey(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.adminKeys[key]
	return ok
}

// IsMessageKey reports whether the key may send messages. Admin keys
// are accepted too.
func (s *Store) IsMessageKey(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.messageKeys[key]; ok {
		return true
	}
	_, ok := s.adminKeys[key]
	return ok
}

// IsSMPPCredential reports whether the system id and password pair
// matches a stored SMPP credential.
func (s *Store) IsSMPPCredential(systemID, password string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.smppKeys[systemID]
	return ok && key.Password == password
}
