package console

import (
	"context"
	"fmt"
	"sort"

	"github.com/smsgrid/sms-gateway/internal/console/api"
	"github.com/smsgrid/sms-gateway/internal/models"
)

// RuleGroup is one named, ordered rule list as the page renders it.
type RuleGroup struct {
	Name  string
	Rules []models.Rule
}

// RoutingRulesPage manages rule groups as one replaceable table:
// group and rule edits, including reorders, accumulate locally and an
// explicit save PUTs the whole map in its current order.
type RoutingRulesPage struct {
	Rows    *Collection[RuleGroup]
	Dialog  *Editor[models.Rule]
	Notices *Feedback

	client *api.Client
	guard  seqGuard
}

// NewRoutingRulesPage constructs the page around an API client.
func NewRoutingRulesPage(client *api.Client) *RoutingRulesPage {
	return &RoutingRulesPage{
		Rows:    NewCollection(func(g RuleGroup) string { return g.Name }),
		Dialog:  NewEditor[models.Rule](),
		Notices: NewFeedback(0),
		client:  client,
	}
}

// Load fetches the routing table and replaces the group panels. The
// default group renders first, the rest alphabetically; rule order
// within a group is the server's.
func (p *RoutingRulesPage) Load(ctx context.Context) error {
	token := p.guard.next()
	groups, errFetch := p.client.RoutingRules(ctx)
	if errFetch != nil {
		p.Notices.Error(errFetch.Error())
		return errFetch
	}
	if p.guard.current(token) {
		p.Rows.Reset(sortedGroups(groups))
	}
	return nil
}

func sortedGroups(groups models.RuleGroups) []RuleGroup {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == models.DefaultRuleGroup {
			return true
		}
		if names[j] == models.DefaultRuleGroup {
			return false
		}
		return names[i] < names[j]
	})
	out := make([]RuleGroup, 0, len(names))
	for _, name := range names {
		out = append(out, RuleGroup{Name: name, Rules: append([]models.Rule(nil), groups[name]...)})
	}
	return out
}

// groupsMap assembles the wire shape from the current panels.
func (p *RoutingRulesPage) groupsMap() models.RuleGroups {
	out := models.RuleGroups{}
	for _, group := range p.Rows.Items() {
		out[group.Name] = append([]models.Rule(nil), group.Rules...)
	}
	return out
}

// CreateGroup adds an empty group panel locally.
func (p *RoutingRulesPage) CreateGroup(name string) bool {
	if name == "" {
		p.Notices.Error("group name cannot be empty")
		return false
	}
	if _, exists := p.Rows.Lookup(name); exists {
		p.Notices.Error(fmt.Sprintf("Group %q already exists.", name))
		return false
	}
	p.Rows.Upsert(RuleGroup{Name: name})
	p.Notices.Success(fmt.Sprintf("Group %q created successfully.", name))
	return true
}

// DeleteGroup removes a group panel and saves the table, so the group
// never reappears on a later fetch.
func (p *RoutingRulesPage) DeleteGroup(ctx context.Context, name string) error {
	if _, exists := p.Rows.Lookup(name); !exists {
		p.Notices.Error(fmt.Sprintf("Group %q not found.", name))
		return nil
	}
	before := p.Rows.Items()
	p.Rows.Remove(name)
	if errSave := p.save(ctx); errSave != nil {
		// A rejected delete leaves the panels as they were.
		p.Rows.items = before
		return errSave
	}
	p.Notices.Success(fmt.Sprintf("Group %q deleted", name))
	return nil
}

// UpsertRule adds or replaces a rule inside a group, keyed by rule
// name. New rules append at the end.
func (p *RoutingRulesPage) UpsertRule(groupName string, rule models.Rule) bool {
	group, ok := p.Rows.Lookup(groupName)
	if !ok {
		return false
	}
	replaced := false
	for i := range group.Rules {
		if group.Rules[i].RuleName == rule.RuleName {
			group.Rules[i] = rule
			replaced = true
			break
		}
	}
	if !replaced {
		group.Rules = append(group.Rules, rule)
	}
	p.Rows.Upsert(group)
	return true
}

// DeleteRule removes a rule from its group.
func (p *RoutingRulesPage) DeleteRule(groupName, ruleName string) bool {
	group, ok := p.Rows.Lookup(groupName)
	if !ok {
		return false
	}
	for i := range group.Rules {
		if group.Rules[i].RuleName == ruleName {
			group.Rules = append(group.Rules[:i], group.Rules[i+1:]...)
			p.Rows.Upsert(group)
			return true
		}
	}
	return false
}

// MoveRuleUp moves a rule one position earlier in its group. The first
// rule stays put.
func (p *RoutingRulesPage) MoveRuleUp(groupName, ruleName string) bool {
	return p.moveRule(groupName, ruleName, -1)
}

// MoveRuleDown moves a rule one position later in its group. The last
// rule stays put.
func (p *RoutingRulesPage) MoveRuleDown(groupName, ruleName string) bool {
	return p.moveRule(groupName, ruleName, 1)
}

func (p *RoutingRulesPage) moveRule(groupName, ruleName string, delta int) bool {
	group, ok := p.Rows.Lookup(groupName)
	if !ok {
		return false
	}
	for i := range group.Rules {
		if group.Rules[i].RuleName != ruleName {
			continue
		}
		j := i + delta
		if j < 0 || j >= len(group.Rules) {
			return false
		}
		group.Rules[i], group.Rules[j] = group.Rules[j], group.Rules[i]
		p.Rows.Upsert(group)
		return true
	}
	return false
}

// Dirty reports whether local edits have not been saved yet.
func (p *RoutingRulesPage) Dirty() bool { return p.Rows.Dirty() }

// Save PUTs the whole routing table in its current order.
func (p *RoutingRulesPage) Save(ctx context.Context) error {
	if errSave := p.save(ctx); errSave != nil {
		return errSave
	}
	p.Notices.Success("Routing rules saved successfully.")
	return nil
}

func (p *RoutingRulesPage) save(ctx context.Context) error {
	if errReplace := p.client.ReplaceRoutingRules(ctx, p.groupsMap()); errReplace != nil {
		p.Notices.Error(errReplace.Error())
		return errReplace
	}
	p.Rows.MarkSaved()
	return nil
}
