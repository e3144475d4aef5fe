package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smsgrid/sms-gateway/internal/dlr"
	"github.com/smsgrid/sms-gateway/internal/models"
)

func TestRegistry_RebuildRegistersEnabledVendorsOnly(t *testing.T) {
	registry := NewRegistry(dlr.NewStore())
	registry.Rebuild([]models.Vendor{
		{ID: "smpp-1", Type: models.VendorTypeSMPP, Enabled: true},
		{ID: "http-1", Type: models.VendorTypeHTTP, Enabled: true, HTTPAPIURL: "http://vendor.example/sms"},
		{ID: "off-1", Type: models.VendorTypeSMPP, Enabled: false},
	})

	if _, ok := registry.Destination("smpp-1"); !ok {
		t.Fatalf("expected worker for enabled smpp vendor")
	}
	if _, ok := registry.Destination("http-1"); !ok {
		t.Fatalf("expected worker for enabled http vendor")
	}
	if _, ok := registry.Destination("off-1"); ok {
		t.Fatalf("expected no worker for disabled vendor")
	}
	if _, ok := registry.Destination(AnalyticsDestinationID); !ok {
		t.Fatalf("expected analytics sink to always be registered")
	}
}

func TestRegistry_RebuildDropsRemovedVendors(t *testing.T) {
	registry := NewRegistry(dlr.NewStore())
	registry.Rebuild([]models.Vendor{{ID: "smpp-1", Type: models.VendorTypeSMPP, Enabled: true}})
	registry.Rebuild([]models.Vendor{{ID: "smpp-2", Type: models.VendorTypeSMPP, Enabled: true}})

	if _, ok := registry.Destination("smpp-1"); ok {
		t.Fatalf("expected removed vendor to lose its worker")
	}
	if _, ok := registry.Destination("smpp-2"); !ok {
		t.Fatalf("expected new vendor to gain a worker")
	}
}

func TestLogWorker_MarksSentWithVendorMessageID(t *testing.T) {
	store := dlr.NewStore()
	store.MarkAccepted(models.Message{InternalID: "m1", From: "A", To: "B", Text: "hi"})

	registry := NewRegistry(store)
	registry.Rebuild([]models.Vendor{{ID: "smpp-1", Type: models.VendorTypeSMPP, Enabled: true, TransactionsPerSecond: 100}})

	worker, _ := registry.Destination("smpp-1")
	worker.Process(models.Message{InternalID: "m1", From: "A", To: "B", Text: "hi"}, "rule", "smpp-1")

	record, _ := store.Get("m1")
	if record.Status != models.DLRStatusSent || record.SMSCID == "" || record.SentAt == nil {
		t.Fatalf("expected SENT record with vendor id, got %+v", record)
	}
}

func TestHTTPWorker_PostsMessageWithVendorKey(t *testing.T) {
	var gotKey string
	var gotMsg models.Message
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		if errDecode := json.NewDecoder(r.Body).Decode(&gotMsg); errDecode != nil {
			t.Errorf("decode message: %v", errDecode)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"messageId": "vnd-42"})
	}))
	defer server.Close()

	store := dlr.NewStore()
	store.MarkAccepted(models.Message{InternalID: "m1", From: "A", To: "B", Text: "hi"})

	registry := NewRegistry(store)
	registry.Rebuild([]models.Vendor{{
		ID:                    "http-1",
		Type:                  models.VendorTypeHTTP,
		Enabled:               true,
		HTTPAPIKey:            "vendor-secret",
		HTTPAPIURL:            server.URL,
		TransactionsPerSecond: 100,
	}})

	worker, _ := registry.Destination("http-1")
	worker.Process(models.Message{InternalID: "m1", From: "A", To: "B", Text: "hi"}, "rule", "http-1")

	if gotKey != "vendor-secret" {
		t.Fatalf("expected vendor api key header, got %q", gotKey)
	}
	if gotMsg.InternalID != "m1" {
		t.Fatalf("expected posted message, got %+v", gotMsg)
	}
	record, _ := store.Get("m1")
	if record.Status != models.DLRStatusSent || record.SMSCID != "vnd-42" {
		t.Fatalf("expected SENT with vendor message id, got %+v", record)
	}
	if internalID, ok := store.InternalID("vnd-42"); !ok || internalID != "m1" {
		t.Fatalf("expected vendor id mapping, got %q ok=%v", internalID, ok)
	}
}

func TestHTTPWorker_FailureMarksFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	store := dlr.NewStore()
	store.MarkAccepted(models.Message{InternalID: "m1", From: "A", To: "B", Text: "hi"})

	registry := NewRegistry(store)
	registry.Rebuild([]models.Vendor{{
		ID:                    "http-1",
		Type:                  models.VendorTypeHTTP,
		Enabled:               true,
		HTTPAPIURL:            server.URL,
		TransactionsPerSecond: 100,
	}})

	worker, _ := registry.Destination("http-1")
	worker.Process(models.Message{InternalID: "m1", From: "A", To: "B", Text: "hi"}, "rule", "http-1")

	record, _ := store.Get("m1")
	if record.Status != models.DLRStatusFailed || record.ErrorCode != models.DLRErrorVendorFailure {
		t.Fatalf("expected FAILED with vendor error code, got %+v", record)
	}
}
