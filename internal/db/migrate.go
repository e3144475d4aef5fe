package db

import (
	"encoding/json"
	"fmt"

	"github.com/smsgrid/sms-gateway/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Migrate runs database migrations and seeds the records the gateway
// cannot start without.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errAutoMigrate := conn.AutoMigrate(
		&models.Vendor{},
		&models.APIKey{},
		&models.RoutingRule{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	return nil
}

// EnsureBootstrapAdminKey seeds the admin key when the key set is
// empty so a fresh install can reach the admin API. A non-empty key
// set is left untouched.
func EnsureBootstrapAdminKey(conn *gorm.DB, key string) error {
	if key == "" {
		return nil
	}
	var count int64
	if errCount := conn.Model(&models.APIKey{}).Count(&count).Error; errCount != nil {
		return fmt.Errorf("db: count api keys: %w", errCount)
	}
	if count > 0 {
		return nil
	}
	row := models.AdminKey(key)
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		return fmt.Errorf("db: seed admin key: %w", errCreate)
	}
	return nil
}

// EnsureDefaultRuleGroup seeds the default routing group with a single
// match-all rule when no rules exist at all.
func EnsureDefaultRuleGroup(conn *gorm.DB) error {
	var count int64
	if errCount := conn.Model(&models.RoutingRule{}).Count(&count).Error; errCount != nil {
		return fmt.Errorf("db: count routing rules: %w", errCount)
	}
	if count > 0 {
		return nil
	}
	conditions, errMarshal := json.Marshal(models.RuleConditions{})
	if errMarshal != nil {
		return fmt.Errorf("db: encode initial conditions: %w", errMarshal)
	}
	row := models.RoutingRule{
		GroupName:  models.DefaultRuleGroup,
		Position:   0,
		RuleName:   "initial",
		Conditions: datatypes.JSON(conditions),
	}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		return fmt.Errorf("db: seed default rule group: %w", errCreate)
	}
	return nil
}
