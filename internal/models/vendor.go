package models

import (
	"strings"
	"time"
)

// Vendor transport kinds.
const (
	// VendorTypeSMPP is a session-oriented SMPP vendor connection.
	VendorTypeSMPP = "SMPP"
	// VendorTypeHTTP is a REST vendor reached with an API key and URL.
	VendorTypeHTTP = "HTTP"
)

// Defaults applied to vendors that omit tuning fields.
const (
	DefaultReconnectIntervalSeconds   = 30
	DefaultEnquireLinkIntervalSeconds = 60
	DefaultTransactionsPerSecond      = 10.0
)

// Vendor stores an outbound vendor connection configuration.
type Vendor struct {
	ID      string `gorm:"primaryKey;type:text" json:"id"`              // Unique vendor identifier, immutable once created.
	Type    string `gorm:"type:varchar(16);not null" json:"type"`       // Transport kind (SMPP or HTTP).
	Enabled bool   `gorm:"type:boolean;not null" json:"enabled"`        // Whether the vendor takes traffic.

	Host     string `gorm:"type:text" json:"host,omitempty"`     // SMPP host.
	Port     int    `gorm:"type:integer" json:"port,omitempty"`  // SMPP port.
	SystemID string `gorm:"type:text" json:"systemId,omitempty"` // SMPP system id.
	Password string `gorm:"type:text" json:"password,omitempty"` // SMPP password.

	HTTPAPIKey string `gorm:"type:text" json:"httpApiKey,omitempty"` // HTTP vendor API key.
	HTTPAPIURL string `gorm:"type:text" json:"httpApiUrl,omitempty"` // HTTP vendor endpoint URL.

	ReconnectIntervalSeconds   int     `gorm:"not null;default:30" json:"reconnectIntervalSeconds"`   // Session reconnect interval.
	EnquireLinkIntervalSeconds int     `gorm:"not null;default:60" json:"enquireLinkIntervalSeconds"` // Keepalive interval.
	TransactionsPerSecond      float64 `gorm:"not null;default:10" json:"transactionsPerSecond"`      // Throughput limit.

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"-"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"-"` // Last update timestamp.
}

// IsSMPP reports whether the vendor uses the SMPP transport. An unset
// type counts as SMPP.
func (v Vendor) IsSMPP() bool {
	return v.Type == "" || strings.EqualFold(v.Type, VendorTypeSMPP)
}

// ApplyDefaults fills tuning fields the caller left at zero.
func (v *Vendor) ApplyDefaults() {
	if v.ReconnectIntervalSeconds <= 0 {
		v.ReconnectIntervalSeconds = DefaultReconnectIntervalSeconds
	}
	if v.EnquireLinkIntervalSeconds <= 0 {
		v.EnquireLinkIntervalSeconds = DefaultEnquireLinkIntervalSeconds
	}
	if v.TransactionsPerSecond <= 0 {
		v.TransactionsPerSecond = DefaultTransactionsPerSecond
	}
	if v.Type == "" {
		v.Type = VendorTypeSMPP
	}
}
