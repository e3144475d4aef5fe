package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// DefaultRuleGroup is the group every message enters routing through.
const DefaultRuleGroup = "default"

// RuleConditions holds the optional match predicates of a routing rule.
// Empty fields match everything.
type RuleConditions struct {
	Sender           string `json:"sender,omitempty"`           // Exact sender, or prefix with trailing '*'.
	Recipient        string `json:"recipient,omitempty"`        // Exact recipient, or prefix with trailing '*'.
	TextContains     string `json:"textContains,omitempty"`     // Substring of the message text.
	TextMatchesRegex string `json:"textMatchesRegex,omitempty"` // Full-match regex over the message text.
}

// Rule is the wire shape of a routing rule inside its group. Order
// within the group is significant: the first matching rule wins.
type Rule struct {
	RuleName          string         `json:"ruleName"`                    // Unique name within the group.
	Conditions        RuleConditions `json:"conditions"`                  // Match predicates.
	NextRuleGroupName string         `json:"nextRuleGroupName,omitempty"` // Optional group to chain into.
	DestinationID     string         `json:"destinationId,omitempty"`     // Optional destination vendor id.
}

// RuleGroups maps group names to their ordered rule lists.
type RuleGroups map[string][]Rule

// RoutingRule stores one rule row. Position keeps the order within the
// owning group dense from zero.
type RoutingRule struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	GroupName string `gorm:"type:text;not null;index:idx_routing_rules_group_pos,priority:1"` // Owning group name.
	Position  int    `gorm:"not null;index:idx_routing_rules_group_pos,priority:2"`           // Order within the group.

	RuleName          string         `gorm:"type:text;not null"` // Rule name, unique within the group.
	Conditions        datatypes.JSON `gorm:"type:jsonb"`         // Match predicates payload.
	NextRuleGroupName string         `gorm:"type:text"`          // Optional group to chain into.
	DestinationID     string         `gorm:"type:text"`          // Optional destination vendor id.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// ToRule converts a stored row to its wire shape.
func (r RoutingRule) ToRule() (Rule, error) {
	rule := Rule{
		RuleName:          r.RuleName,
		NextRuleGroupName: r.NextRuleGroupName,
		DestinationID:     r.DestinationID,
	}
	if len(r.Conditions) > 0 {
		if errUnmarshal := json.Unmarshal(r.Conditions, &rule.Conditions); errUnmarshal != nil {
			return Rule{}, fmt.Errorf("rule %q: decode conditions: %w", r.RuleName, errUnmarshal)
		}
	}
	return rule, nil
}

// NewRoutingRule converts a wire rule to its stored row.
func NewRoutingRule(group string, position int, rule Rule) (RoutingRule, error) {
	conditions, errMarshal := json.Marshal(rule.Conditions)
	if errMarshal != nil {
		return RoutingRule{}, fmt.Errorf("rule %q: encode conditions: %w", rule.RuleName, errMarshal)
	}
	return RoutingRule{
		GroupName:         group,
		Position:          position,
		RuleName:          rule.RuleName,
		Conditions:        datatypes.JSON(conditions),
		NextRuleGroupName: rule.NextRuleGroupName,
		DestinationID:     rule.DestinationID,
	}, nil
}
