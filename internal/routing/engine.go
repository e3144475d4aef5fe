package routing

import (
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/smsgrid/sms-gateway/internal/dlr"
	"github.com/smsgrid/sms-gateway/internal/models"
)

// Destination handles a routed message for one destination id.
type Destination interface {
	Process(msg models.Message, ruleName, destinationID string)
}

// DestinationResolver resolves destination ids to their active workers.
type DestinationResolver interface {
	Destination(id string) (Destination, bool)
}

// Engine walks the rule groups for every accepted message. Matching is
// first-match-wins within a group; a matched rule may chain into
// another group before falling back to its own destination.
type Engine struct {
	rules        *Store
	destinations DestinationResolver
	dlrStore     *dlr.Store
	forwarder    *dlr.Forwarder
}

// NewEngine constructs an Engine.
func NewEngine(rules *Store, destinations DestinationResolver, dlrStore *dlr.Store, forwarder *dlr.Forwarder) *Engine {
	return &Engine{
		rules:        rules,
		destinations: destinations,
		dlrStore:     dlrStore,
		forwarder:    forwarder,
	}
}

// Route records the message as accepted and walks the default group.
// Messages no rule handles are marked FAILED with the no-route error
// code and their report is forwarded.
func (e *Engine) Route(msg models.Message) {
	e.dlrStore.MarkAccepted(msg)

	handled := e.process(msg, models.DefaultRuleGroup, map[string]struct{}{})
	if handled {
		e.dlrStore.MarkProcessed(msg.InternalID)
		return
	}

	log.WithField("from", msg.From).WithField("to", msg.To).
		Info("message not handled by any rule or chain")
	e.dlrStore.MarkFailed(msg.InternalID, models.DLRErrorNoRoute)
	if e.forwarder != nil {
		if record, ok := e.dlrStore.Get(msg.InternalID); ok {
			e.forwarder.Forward(record, "-")
		}
	}
}

// process walks one group depth-first. The visited set breaks chain
// loops.
func (e *Engine) process(msg models.Message, groupName string, visited map[string]struct{}) bool {
	if _, seen := visited[groupName]; seen {
		log.WithField("group", groupName).Error("routing loop detected, aborting chain")
		return false
	}
	visited[groupName] = struct{}{}
	defer delete(visited, groupName)

	rules := e.rules.RulesForGroup(groupName)
	if len(rules) == 0 {
		log.WithField("group", groupName).Info("no rules for group")
		return false
	}

	for _, rule := range rules {
		if !Matches(msg, rule.Conditions) {
			continue
		}
		log.WithField("rule", rule.RuleName).WithField("group", groupName).Info("rule matched")

		if rule.NextRuleGroupName != "" {
			if e.process(msg, rule.NextRuleGroupName, visited) {
				return true
			}
			log.WithField("rule", rule.RuleName).
				WithField("next", rule.NextRuleGroupName).
				Info("chained group did not handle message, checking rule destination")
		}

		if rule.DestinationID != "" {
			msg.Gateway = rule.DestinationID
			if worker, ok := e.destinations.Destination(rule.DestinationID); ok {
				worker.Process(msg, rule.RuleName, rule.DestinationID)
				return true
			}
			log.WithField("destination", rule.DestinationID).
				WithField("rule", rule.RuleName).
				Warn("no worker for destination, rule counted as handled")
			return true
		}

		if rule.NextRuleGroupName == "" {
			// Matched rule with no action at all still counts as handled.
			log.WithField("rule", rule.RuleName).WithField("group", groupName).
				Warn("rule matched but has no destination or chained group")
			return true
		}
	}

	log.WithField("group", groupName).Info("no rule matched in group")
	return false
}

// Matches reports whether the message satisfies every condition. Empty
// conditions match everything.
func Matches(msg models.Message, conditions models.RuleConditions) bool {
	if !matchAddress(msg.From, conditions.Sender) {
		return false
	}
	if !matchAddress(msg.To, conditions.Recipient) {
		return false
	}
	if conditions.TextContains != "" && !strings.Contains(msg.Text, conditions.TextContains) {
		return false
	}
	if conditions.TextMatchesRegex != "" {
		re, errCompile := regexp.Compile("^(?:" + conditions.TextMatchesRegex + ")$")
		if errCompile != nil {
			log.WithError(errCompile).
				WithField("pattern", conditions.TextMatchesRegex).
				Warn("invalid rule regex")
			return false
		}
		if !re.MatchString(msg.Text) {
			return false
		}
	}
	return true
}

// matchAddress matches an address against a condition: empty matches
// everything, a trailing '*' matches by prefix, anything else matches
// exactly.
func matchAddress(value, condition string) bool {
	if condition == "" {
		return true
	}
	if value == "" {
		return false
	}
	if strings.HasSuffix(condition, "*") {
		return strings.HasPrefix(value, strings.TrimSuffix(condition, "*"))
	}
	return condition == value
}
