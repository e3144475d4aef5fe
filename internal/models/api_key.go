package models

import (
	"encoding/json"
	"strings"
	"time"
)

// APIKeyType discriminates the stored credential kinds.
type APIKeyType string

// Supported API key kinds.
const (
	APIKeyTypeAdmin   APIKeyType = "admin"
	APIKeyTypeMessage APIKeyType = "message"
	APIKeyTypeSMPP    APIKeyType = "smpp"
)

// ParseAPIKeyType maps a wire value to a key kind. Unknown values fall
// back to message rather than failing the decode.
func ParseAPIKeyType(value string) APIKeyType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(APIKeyTypeAdmin):
		return APIKeyTypeAdmin
	case string(APIKeyTypeSMPP):
		return APIKeyTypeSMPP
	default:
		return APIKeyTypeMessage
	}
}

// UnmarshalJSON applies the lenient kind parsing on decode.
func (t *APIKeyType) UnmarshalJSON(data []byte) error {
	var raw string
	if errUnmarshal := json.Unmarshal(data, &raw); errUnmarshal != nil {
		return errUnmarshal
	}
	*t = ParseAPIKeyType(raw)
	return nil
}

// APIKey stores one credential of the replaceable key set. Admin and
// message kinds carry only Key; the SMPP kind carries only SystemID and
// Password.
type APIKey struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"-"` // Primary key.

	Type     APIKeyType `gorm:"type:varchar(16);not null;index" json:"type"` // Credential kind.
	Key      string     `gorm:"type:text" json:"key,omitempty"`              // Opaque key (admin/message).
	SystemID string     `gorm:"type:text" json:"systemId,omitempty"`         // SMPP system id.
	Password string     `gorm:"type:text" json:"password,omitempty"`         // SMPP password.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"-"` // Creation timestamp.
}

// Identifier returns the stable identity of the key row: the opaque key
// for admin/message kinds, the system id for SMPP kinds.
func (k APIKey) Identifier() string {
	if k.Type == APIKeyTypeSMPP {
		return k.SystemID
	}
	return k.Key
}

// AdminKey builds an admin key entry.
func AdminKey(key string) APIKey {
	return APIKey{Type: APIKeyTypeAdmin, Key: key}
}

// MessageKey builds a message key entry.
func MessageKey(key string) APIKey {
	return APIKey{Type: APIKeyTypeMessage, Key: key}
}

// SMPPKey builds an SMPP credential entry.
func SMPPKey(systemID, password string) APIKey {
	return APIKey{Type: APIKeyTypeSMPP, SystemID: systemID, Password: password}
}
