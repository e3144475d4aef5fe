// Package routing stores the routing-rule groups and routes accepted
// messages to destination workers.
package routing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/smsgrid/sms-gateway/internal/models"
	"gorm.io/gorm"
)

// ErrInvalidRules rejects rule sets missing a non-empty default group.
var ErrInvalidRules = errors.New("invalid rules: the default table must exist with at least 1 rule")

// Store keeps routing rules in the database and serves the engine from
// an in-memory snapshot swapped atomically on every replacement.
type Store struct {
	db *gorm.DB

	mu     sync.RWMutex
	groups models.RuleGroups
}

// NewStore constructs a Store. Call Load before routing traffic.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, groups: models.RuleGroups{}}
}

// ValidateGroups checks a replacement rule set: it must be non-empty
// and the default group must exist with at least one rule.
func ValidateGroups(groups models.RuleGroups) error {
	if len(groups) == 0 || len(groups[models.DefaultRuleGroup]) == 0 {
		return ErrInvalidRules
	}
	return nil
}

// Load refreshes the snapshot from the database, preserving each
// group's stored order.
func (s *Store) Load(ctx context.Context) error {
	var rows []models.RoutingRule
	if errFind := s.db.WithContext(ctx).
		Order("group_name ASC, position ASC").
		Find(&rows).Error; errFind != nil {
		return fmt.Errorf("routing: load rules: %w", errFind)
	}

	groups := models.RuleGroups{}
	for _, row := range rows {
		rule, errConvert := row.ToRule()
		if errConvert != nil {
			return fmt.Errorf("routing: %w", errConvert)
		}
		groups[row.GroupName] = append(groups[row.GroupName], rule)
	}

	s.mu.Lock()
	s.groups = groups
	s.mu.Unlock()

	total := 0
	for _, rules := range groups {
		total += len(rules)
	}
	log.WithField("groups", len(groups)).WithField("rules", total).Info("loaded routing rules")
	return nil
}

// Groups returns a copy of the current rule groups in their stored
// order.
func (s *Store) Groups() models.RuleGroups {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(models.RuleGroups, len(s.groups))
	for name, rules := range s.groups {
		copied := make([]models.Rule, len(rules))
		copy(copied, rules)
		out[name] = copied
	}
	return out
}

// RulesForGroup returns the ordered rules of one group, or nil when the
// group does not exist.
func (s *Store) RulesForGroup(name string) []models.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rules, ok := s.groups[name]
	if !ok {
		return nil
	}
	copied := make([]models.Rule, len(rules))
	copy(copied, rules)
	return copied
}

// Replace validates the rule set, swaps the stored rows in one
// transaction preserving order, and reloads the snapshot.
func (s *Store) Replace(ctx context.Context, groups models.RuleGroups) error {
	if errValidate := ValidateGroups(groups); errValidate != nil {
		return errValidate
	}
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errDelete := tx.Where("1 = 1").Delete(&models.RoutingRule{}).Error; errDelete != nil {
			return errDelete
		}
		for name, rules := range groups {
			for position, rule := range rules {
				row, errConvert := models.NewRoutingRule(name, position, rule)
				if errConvert != nil {
					return errConvert
				}
				if errCreate := tx.Create(&row).Error; errCreate != nil {
					return errCreate
				}
			}
		}
		return nil
	})
	if errTx != nil {
		return fmt.Errorf("routing: replace rules: %w", errTx)
	}
	if errLoad := s.Load(ctx); errLoad != nil {
		return errLoad
	}
	log.Info("persisted and reloaded routing rules")
	return nil
}
