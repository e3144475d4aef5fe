package routing

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smsgrid/sms-gateway/internal/dlr"
	"github.com/smsgrid/sms-gateway/internal/models"
	"gorm.io/gorm"
)

type recordedCall struct {
	msg           models.Message
	ruleName      string
	destinationID string
}

// stubResolver records Process calls per destination id.
type stubResolver struct {
	known map[string]bool
	calls []recordedCall
}

func (r *stubResolver) Destination(id string) (Destination, bool) {
	if !r.known[id] {
		return nil, false
	}
	return destinationFunc(func(msg models.Message, ruleName, destinationID string) {
		r.calls = append(r.calls, recordedCall{msg: msg, ruleName: ruleName, destinationID: destinationID})
	}), true
}

type destinationFunc func(msg models.Message, ruleName, destinationID string)

func (f destinationFunc) Process(msg models.Message, ruleName, destinationID string) {
	f(msg, ruleName, destinationID)
}

func newTestStore(t *testing.T, groups models.RuleGroups) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "rules.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.AutoMigrate(&models.RoutingRule{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	store := NewStore(db)
	if errReplace := store.Replace(context.Background(), groups); errReplace != nil {
		t.Fatalf("replace rules: %v", errReplace)
	}
	return store
}

func TestRoute_FirstMatchWins(t *testing.T) {
	store := newTestStore(t, models.RuleGroups{
		models.DefaultRuleGroup: {
			{RuleName: "promo", Conditions: models.RuleConditions{TextContains: "PROMO"}, DestinationID: "promo-dest"},
			{RuleName: "catch-all", DestinationID: "fallback-dest"},
		},
	})
	resolver := &stubResolver{known: map[string]bool{"promo-dest": true, "fallback-dest": true}}
	dlrStore := dlr.NewStore()
	engine := NewEngine(store, resolver, dlrStore, nil)

	engine.Route(models.Message{InternalID: "m1", From: "A", To: "B", Text: "big PROMO sale"})

	if len(resolver.calls) != 1 {
		t.Fatalf("expected 1 destination call, got %d", len(resolver.calls))
	}
	call := resolver.calls[0]
	if call.destinationID != "promo-dest" || call.ruleName != "promo" {
		t.Fatalf("expected promo rule to win, got %+v", call)
	}
	if call.msg.Gateway != "promo-dest" {
		t.Fatalf("expected gateway set on message, got %q", call.msg.Gateway)
	}
}

func TestRoute_ChainsAndFallsBackToRuleDestination(t *testing.T) {
	store := newTestStore(t, models.RuleGroups{
		models.DefaultRuleGroup: {
			{RuleName: "chain", NextRuleGroupName: "special", DestinationID: "direct-dest"},
		},
		"special": {
			{RuleName: "vip-only", Conditions: models.RuleConditions{Sender: "VIP*"}, DestinationID: "vip-dest"},
		},
	})
	resolver := &stubResolver{known: map[string]bool{"direct-dest": true, "vip-dest": true}}
	engine := NewEngine(store, resolver, dlr.NewStore(), nil)

	// A VIP sender is handled by the chained group.
	engine.Route(models.Message{InternalID: "m1", From: "VIP-42", To: "B", Text: "hi"})
	if len(resolver.calls) != 1 || resolver.calls[0].destinationID != "vip-dest" {
		t.Fatalf("expected chained group to handle vip sender, got %+v", resolver.calls)
	}

	// Everyone else falls back to the chaining rule's own destination.
	resolver.calls = nil
	engine.Route(models.Message{InternalID: "m2", From: "plain", To: "B", Text: "hi"})
	if len(resolver.calls) != 1 || resolver.calls[0].destinationID != "direct-dest" {
		t.Fatalf("expected fallback to direct destination, got %+v", resolver.calls)
	}
}

func TestRoute_LoopDetection(t *testing.T) {
	store := newTestStore(t, models.RuleGroups{
		models.DefaultRuleGroup: {
			{RuleName: "to-b", NextRuleGroupName: "group-b"},
		},
		"group-b": {
			{RuleName: "back-to-default", NextRuleGroupName: models.DefaultRuleGroup},
		},
	})
	resolver := &stubResolver{known: map[string]bool{}}
	dlrStore := dlr.NewStore()
	engine := NewEngine(store, resolver, dlrStore, nil)

	engine.Route(models.Message{InternalID: "loop-1", From: "A", To: "B", Text: "x"})

	record, ok := dlrStore.Get("loop-1")
	if !ok {
		t.Fatalf("expected dlr record")
	}
	if record.Status != models.DLRStatusFailed || record.ErrorCode != models.DLRErrorNoRoute {
		t.Fatalf("expected FAILED/999 after loop, got %+v", record)
	}
}

func TestRoute_NoMatchMarksFailed(t *testing.T) {
	store := newTestStore(t, models.RuleGroups{
		models.DefaultRuleGroup: {
			{RuleName: "narrow", Conditions: models.RuleConditions{Recipient: "+49*"}, DestinationID: "de-dest"},
		},
	})
	resolver := &stubResolver{known: map[string]bool{"de-dest": true}}
	dlrStore := dlr.NewStore()
	engine := NewEngine(store, resolver, dlrStore, nil)

	engine.Route(models.Message{InternalID: "m1", From: "A", To: "+15551234", Text: "x"})

	if len(resolver.calls) != 0 {
		t.Fatalf("expected no destination calls, got %+v", resolver.calls)
	}
	record, _ := dlrStore.Get("m1")
	if record.Status != models.DLRStatusFailed || record.ErrorCode != models.DLRErrorNoRoute {
		t.Fatalf("expected FAILED/999, got %+v", record)
	}
}

func TestMatches_Conditions(t *testing.T) {
	msg := models.Message{From: "VIP-007", To: "+4917012345", Text: "PROMO code inside"}

	cases := []struct {
		name       string
		conditions models.RuleConditions
		want       bool
	}{
		{"empty matches all", models.RuleConditions{}, true},
		{"sender prefix", models.RuleConditions{Sender: "VIP*"}, true},
		{"sender exact miss", models.RuleConditions{Sender: "VIP"}, false},
		{"recipient prefix", models.RuleConditions{Recipient: "+49*"}, true},
		{"text contains", models.RuleConditions{TextContains: "PROMO"}, true},
		{"text contains miss", models.RuleConditions{TextContains: "SUPPORT"}, false},
		{"regex full match", models.RuleConditions{TextMatchesRegex: "PROMO.*"}, true},
		{"regex partial is not a match", models.RuleConditions{TextMatchesRegex: "code"}, false},
		{"combined", models.RuleConditions{Sender: "VIP*", TextContains: "PROMO"}, true},
	}
	for _, tc := range cases {
		if got := Matches(msg, tc.conditions); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestStore_ReplaceValidatesDefaultGroup(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "rules.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.AutoMigrate(&models.RoutingRule{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	store := NewStore(db)

	err = store.Replace(context.Background(), models.RuleGroups{"other": {{RuleName: "r"}}})
	if err != ErrInvalidRules {
		t.Fatalf("expected ErrInvalidRules, got %v", err)
	}
}

func TestStore_PreservesOrderAcrossReplaceAndLoad(t *testing.T) {
	store := newTestStore(t, models.RuleGroups{
		models.DefaultRuleGroup: {
			{RuleName: "first"},
			{RuleName: "second"},
			{RuleName: "third"},
		},
	})

	// Reorder: move third to the front, as the console does before a save.
	groups := store.Groups()
	rules := groups[models.DefaultRuleGroup]
	reordered := []models.Rule{rules[2], rules[0], rules[1]}
	groups[models.DefaultRuleGroup] = reordered
	if errReplace := store.Replace(context.Background(), groups); errReplace != nil {
		t.Fatalf("replace: %v", errReplace)
	}

	if errLoad := store.Load(context.Background()); errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	got := store.RulesForGroup(models.DefaultRuleGroup)
	if len(got) != 3 || got[0].RuleName != "third" || got[1].RuleName != "first" || got[2].RuleName != "second" {
		t.Fatalf("expected persisted order [third first second], got %+v", got)
	}
}
