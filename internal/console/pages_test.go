package console_test

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/smsgrid/sms-gateway/internal/config"
	"github.com/smsgrid/sms-gateway/internal/console"
	"github.com/smsgrid/sms-gateway/internal/console/api"
	"github.com/smsgrid/sms-gateway/internal/db"
	"github.com/smsgrid/sms-gateway/internal/dlr"
	"github.com/smsgrid/sms-gateway/internal/gateway"
	admin "github.com/smsgrid/sms-gateway/internal/http/api/admin"
	"github.com/smsgrid/sms-gateway/internal/keystore"
	"github.com/smsgrid/sms-gateway/internal/models"
	"github.com/smsgrid/sms-gateway/internal/routing"
)

// startGateway boots a full gateway over httptest. Credentials come
// from injected configuration, not literals scattered through the
// tests.
func startGateway(t *testing.T) (*httptest.Server, config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	t.Setenv(config.EnvAdminAPIKey, "console-test-admin-key")
	t.Setenv(config.EnvDBConnection, filepath.Join(t.TempDir(), "gateway.db"))
	cfg, errLoad := config.Load("")
	if errLoad != nil {
		t.Fatalf("load config: %v", errLoad)
	}

	conn, errOpen := db.Open(cfg.DatabaseDSN)
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	if errSeed := db.EnsureBootstrapAdminKey(conn, cfg.BootstrapAdminKey); errSeed != nil {
		t.Fatalf("seed admin key: %v", errSeed)
	}
	if errSeed := db.EnsureDefaultRuleGroup(conn); errSeed != nil {
		t.Fatalf("seed rules: %v", errSeed)
	}

	keys := keystore.New(conn)
	if errKeys := keys.Load(t.Context()); errKeys != nil {
		t.Fatalf("load keys: %v", errKeys)
	}
	rules := routing.NewStore(conn)
	if errRules := rules.Load(t.Context()); errRules != nil {
		t.Fatalf("load rules: %v", errRules)
	}

	dlrStore := dlr.NewStore()
	registry := gateway.NewRegistry(dlrStore)
	router := routing.NewEngine(rules, registry, dlrStore, nil)

	engine := gin.New()
	admin.RegisterRoutes(engine, admin.Deps{
		DB:       conn,
		Keys:     keys,
		Rules:    rules,
		Registry: registry,
		Router:   router,
		DLRStore: dlrStore,
	})

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return server, cfg
}

func TestVendorCRUDWorkflow(t *testing.T) {
	server, cfg := startGateway(t)
	page := console.NewVendorsPage(api.NewClient(server.URL, cfg.BootstrapAdminKey))

	if errLoad := page.Load(t.Context()); errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if page.Rows.Len() != 0 {
		t.Fatalf("expected empty vendor list, got %v", page.Rows.IDs())
	}

	// Create an SMPP vendor through the dialog.
	page.Dialog.OpenCreate()
	smpp := models.Vendor{ID: "smpp-vendor", Type: models.VendorTypeSMPP, Enabled: true, Host: "smpp.example", Port: 2775, SystemID: "sys", Password: "secret"}
	if !console.VendorComplete(smpp) {
		t.Fatalf("expected complete smpp vendor")
	}
	if errSubmit := page.Dialog.Submit(smpp, func(v models.Vendor) error {
		return page.Create(t.Context(), v)
	}); errSubmit != nil {
		t.Fatalf("create smpp vendor: %v", errSubmit)
	}
	notice, ok := page.Notices.Current()
	if !ok || notice.Message != "Vendor created successfully" {
		t.Fatalf("expected create notice, got %+v ok=%v", notice, ok)
	}
	if _, ok := page.Rows.Lookup("smpp-vendor"); !ok {
		t.Fatalf("expected row for created vendor")
	}

	// And an HTTP vendor.
	httpVendor := models.Vendor{ID: "http-vendor", Type: models.VendorTypeHTTP, Enabled: true, HTTPAPIKey: "vk", HTTPAPIURL: "http://vendor.example/sms"}
	if errCreate := page.Create(t.Context(), httpVendor); errCreate != nil {
		t.Fatalf("create http vendor: %v", errCreate)
	}
	if page.Rows.Len() != 2 {
		t.Fatalf("expected two rows, got %v", page.Rows.IDs())
	}

	// Duplicate id is a validation failure and leaves the list alone.
	errDup := page.Create(t.Context(), smpp)
	if !api.IsValidation(errDup) {
		t.Fatalf("expected validation error on duplicate id, got %v", errDup)
	}
	if page.Rows.Len() != 2 {
		t.Fatalf("expected row set unchanged after failed create")
	}

	// Edit the credential and disable the vendor in one save.
	edited, _ := page.Rows.Lookup("smpp-vendor")
	edited.Password = "rotated"
	edited.Enabled = false
	if errUpdate := page.Update(t.Context(), edited); errUpdate != nil {
		t.Fatalf("update vendor: %v", errUpdate)
	}
	notice, _ = page.Notices.Current()
	if notice.Message != "Vendor updated successfully" {
		t.Fatalf("expected update notice, got %+v", notice)
	}
	row, _ := page.Rows.Lookup("smpp-vendor")
	if row.Enabled || row.Password != "rotated" {
		t.Fatalf("expected both changes persisted atomically, got %+v", row)
	}

	// A fresh fetch returns the updated credential.
	fresh := console.NewVendorsPage(api.NewClient(server.URL, cfg.BootstrapAdminKey))
	if errLoad := fresh.Load(t.Context()); errLoad != nil {
		t.Fatalf("reload: %v", errLoad)
	}
	row, _ = fresh.Rows.Lookup("smpp-vendor")
	if row.Enabled || row.Password != "rotated" {
		t.Fatalf("expected persisted changes after reload, got %+v", row)
	}

	// Delete removes the row; a second delete is a not-found failure.
	if errDelete := page.Delete(t.Context(), "http-vendor"); errDelete != nil {
		t.Fatalf("delete vendor: %v", errDelete)
	}
	notice, _ = page.Notices.Current()
	if notice.Message != "Vendor deleted successfully" {
		t.Fatalf("expected delete notice, got %+v", notice)
	}
	if _, ok := page.Rows.Lookup("http-vendor"); ok {
		t.Fatalf("expected row removed after delete")
	}
	errSecond := page.Delete(t.Context(), "http-vendor")
	if !api.IsNotFound(errSecond) {
		t.Fatalf("expected not-found on second delete, got %v", errSecond)
	}
}

func TestAPIKeyManagementWorkflow(t *testing.T) {
	server, cfg := startGateway(t)
	page := console.NewAPIKeysPage(api.NewClient(server.URL, cfg.BootstrapAdminKey))

	if errLoad := page.Load(t.Context()); errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if page.Rows.Len() != 1 {
		t.Fatalf("expected only the bootstrap admin key, got %v", page.Rows.IDs())
	}

	// Add one message key and one SMPP credential, then save the set.
	page.Add(models.MessageKey("msg-key-1"))
	page.Add(models.SMPPKey("acct-7", "pw-1"))
	if !page.Dirty() {
		t.Fatalf("expected staged edits to mark the page dirty")
	}
	if errSave := page.Save(t.Context()); errSave != nil {
		t.Fatalf("save keys: %v", errSave)
	}
	notice, _ := page.Notices.Current()
	if notice.Message != "API keys updated successfully!" {
		t.Fatalf("expected save notice, got %+v", notice)
	}
	if page.Dirty() {
		t.Fatalf("expected dirty cleared after save")
	}
	if _, ok := page.Rows.Lookup("msg-key-1"); !ok {
		t.Fatalf("expected row keyed by message key")
	}
	if _, ok := page.Rows.Lookup("acct-7"); !ok {
		t.Fatalf("expected row keyed by smpp system id")
	}

	// Editing the password alone keeps the system-id identifier.
	if !page.UpdatePassword("acct-7", "pw-2") {
		t.Fatalf("expected password update to find the row")
	}
	if errSave := page.Save(t.Context()); errSave != nil {
		t.Fatalf("save rotated password: %v", errSave)
	}
	row, ok := page.Rows.Lookup("acct-7")
	if !ok || row.Password != "pw-2" || row.SystemID != "acct-7" {
		t.Fatalf("expected rotated password under same id, got %+v ok=%v", row, ok)
	}

	// Dropping every admin key is rejected and local edits survive.
	page.Remove(cfg.BootstrapAdminKey)
	errSave := page.Save(t.Context())
	if !api.IsValidation(errSave) {
		t.Fatalf("expected validation error without admin key, got %v", errSave)
	}
	if _, ok := page.Rows.Lookup("msg-key-1"); !ok {
		t.Fatalf("expected local edits retained after failed save")
	}
	if !page.Dirty() {
		t.Fatalf("expected page still dirty after failed save")
	}

	// Restore the admin key and save; the set is authoritative again.
	page.Add(models.AdminKey(cfg.BootstrapAdminKey))
	if errSave := page.Save(t.Context()); errSave != nil {
		t.Fatalf("save restored set: %v", errSave)
	}

	// Idempotence: saving the unchanged set succeeds with no change.
	before := page.Rows.IDs()
	if errSave := page.Save(t.Context()); errSave != nil {
		t.Fatalf("idempotent save: %v", errSave)
	}
	after := page.Rows.IDs()
	if len(before) != len(after) {
		t.Fatalf("expected unchanged row set, got %v then %v", before, after)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("expected unchanged order, got %v then %v", before, after)
		}
	}
}

func TestRoutingRuleManagementWorkflow(t *testing.T) {
	server, cfg := startGateway(t)
	page := console.NewRoutingRulesPage(api.NewClient(server.URL, cfg.BootstrapAdminKey))

	if errLoad := page.Load(t.Context()); errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if _, ok := page.Rows.Lookup(models.DefaultRuleGroup); !ok {
		t.Fatalf("expected seeded default group")
	}

	// Create a group and stage two rules.
	if !page.CreateGroup("e2e-group") {
		t.Fatalf("expected group creation to succeed")
	}
	notice, _ := page.Notices.Current()
	if notice.Message != `Group "e2e-group" created successfully.` {
		t.Fatalf("expected group-created notice, got %+v", notice)
	}

	page.UpsertRule("e2e-group", models.Rule{RuleName: "rule-one", Conditions: models.RuleConditions{TextContains: "one"}, DestinationID: "analytics-mock"})
	page.UpsertRule("e2e-group", models.Rule{RuleName: "rule-two", Conditions: models.RuleConditions{TextContains: "two"}, DestinationID: "analytics-mock"})
	if !page.Dirty() {
		t.Fatalf("expected staged rules to mark the page dirty")
	}
	if errSave := page.Save(t.Context()); errSave != nil {
		t.Fatalf("save rules: %v", errSave)
	}
	notice, _ = page.Notices.Current()
	if notice.Message != "Routing rules saved successfully." {
		t.Fatalf("expected save notice, got %+v", notice)
	}

	// Reorder is local until the next save, then persisted.
	if !page.MoveRuleUp("e2e-group", "rule-two") {
		t.Fatalf("expected reorder to succeed")
	}
	group, _ := page.Rows.Lookup("e2e-group")
	if group.Rules[0].RuleName != "rule-two" {
		t.Fatalf("expected immediate local reorder, got %+v", group.Rules)
	}
	if !page.Dirty() {
		t.Fatalf("expected reorder to mark dirty")
	}
	if errSave := page.Save(t.Context()); errSave != nil {
		t.Fatalf("save reorder: %v", errSave)
	}

	reloaded := console.NewRoutingRulesPage(api.NewClient(server.URL, cfg.BootstrapAdminKey))
	if errLoad := reloaded.Load(t.Context()); errLoad != nil {
		t.Fatalf("reload: %v", errLoad)
	}
	group, _ = reloaded.Rows.Lookup("e2e-group")
	if len(group.Rules) != 2 || group.Rules[0].RuleName != "rule-two" || group.Rules[1].RuleName != "rule-one" {
		t.Fatalf("expected persisted order after reload, got %+v", group.Rules)
	}

	// Boundary moves are refused.
	if reloaded.MoveRuleUp("e2e-group", "rule-two") {
		t.Fatalf("expected top-boundary move to be refused")
	}
	if reloaded.MoveRuleDown("e2e-group", "rule-one") {
		t.Fatalf("expected bottom-boundary move to be refused")
	}

	// Delete all rules, save, then delete the now-empty group.
	page = reloaded
	if !page.DeleteRule("e2e-group", "rule-two") || !page.DeleteRule("e2e-group", "rule-one") {
		t.Fatalf("expected rule deletes to succeed")
	}
	if errSave := page.Save(t.Context()); errSave != nil {
		t.Fatalf("save after rule deletes: %v", errSave)
	}
	if errDelete := page.DeleteGroup(t.Context(), "e2e-group"); errDelete != nil {
		t.Fatalf("delete group: %v", errDelete)
	}
	notice, _ = page.Notices.Current()
	if notice.Message != `Group "e2e-group" deleted` {
		t.Fatalf("expected group-deleted notice, got %+v", notice)
	}

	final := console.NewRoutingRulesPage(api.NewClient(server.URL, cfg.BootstrapAdminKey))
	if errLoad := final.Load(t.Context()); errLoad != nil {
		t.Fatalf("final reload: %v", errLoad)
	}
	if _, ok := final.Rows.Lookup("e2e-group"); ok {
		t.Fatalf("expected deleted group to never reappear")
	}
}

func TestRoutingRules_DefaultGroupCannotBeDropped(t *testing.T) {
	server, cfg := startGateway(t)
	page := console.NewRoutingRulesPage(api.NewClient(server.URL, cfg.BootstrapAdminKey))
	if errLoad := page.Load(t.Context()); errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}

	errDelete := page.DeleteGroup(t.Context(), models.DefaultRuleGroup)
	if !api.IsValidation(errDelete) {
		t.Fatalf("expected validation error dropping default group, got %v", errDelete)
	}
}

func TestSendMessageWorkflow(t *testing.T) {
	server, cfg := startGateway(t)
	page := console.NewSendSMSPage(api.NewClient(server.URL, cfg.BootstrapAdminKey))

	// Incomplete form never reaches the backend.
	page.From = "SENDER"
	if internalID, errSend := page.Send(t.Context()); errSend != nil || internalID != "" {
		t.Fatalf("expected incomplete form to be caught locally, got id=%q err=%v", internalID, errSend)
	}
	notice, _ := page.Notices.Current()
	if notice.Level != console.NoticeError {
		t.Fatalf("expected error notice for incomplete form, got %+v", notice)
	}

	page.To = "+15551234"
	page.Text = "hello from the console"
	internalID, errSend := page.Send(t.Context())
	if errSend != nil || internalID == "" {
		t.Fatalf("expected send to succeed with an internal id, got id=%q err=%v", internalID, errSend)
	}
	notice, _ = page.Notices.Current()
	if notice.Message != "Message sent successfully!" {
		t.Fatalf("expected send notice, got %+v", notice)
	}
	if page.Text != "" {
		t.Fatalf("expected text field cleared after send")
	}

	// The sent message shows up on the DLR status page.
	status := console.NewDLRStatusPage(api.NewClient(server.URL, cfg.BootstrapAdminKey))
	if errRefresh := status.Refresh(t.Context()); errRefresh != nil {
		t.Fatalf("refresh dlr: %v", errRefresh)
	}
	if _, ok := status.Rows.Lookup(internalID); !ok {
		t.Fatalf("expected delivery record for %q, got %v", internalID, status.Rows.IDs())
	}
}

func TestDLRStatusRefreshReplacesRows(t *testing.T) {
	server, cfg := startGateway(t)
	page := console.NewDLRStatusPage(api.NewClient(server.URL, cfg.BootstrapAdminKey))

	// Seed a displayed data set that the next refresh must fully
	// replace.
	token := page.BeginFetch()
	page.ApplyFetch(token, []models.DLRRecord{{ForwardingID: "old-1", Status: models.DLRStatusDelivered}})
	if _, ok := page.Rows.Lookup("old-1"); !ok {
		t.Fatalf("expected seeded row")
	}

	if errRefresh := page.Refresh(t.Context()); errRefresh != nil {
		t.Fatalf("refresh: %v", errRefresh)
	}
	if _, ok := page.Rows.Lookup("old-1"); ok {
		t.Fatalf("expected previous data set to be fully replaced")
	}
}

func TestAuthFailureIsDistinct(t *testing.T) {
	server, _ := startGateway(t)
	page := console.NewVendorsPage(api.NewClient(server.URL, "wrong-key"))

	errLoad := page.Load(t.Context())
	if !api.IsAuth(errLoad) {
		t.Fatalf("expected auth error with bad key, got %v", errLoad)
	}
	notice, ok := page.Notices.Current()
	if !ok || notice.Level != console.NoticeError {
		t.Fatalf("expected error notice, got %+v ok=%v", notice, ok)
	}
}
