package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/smsgrid/sms-gateway/internal/dlr"
	"github.com/smsgrid/sms-gateway/internal/models"
	"github.com/smsgrid/sms-gateway/internal/ratelimit"
)

// vendorAPIKeyHeader carries the vendor-side credential on HTTP
// callouts.
const vendorAPIKeyHeader = "X-API-Key"

// tpsLimit converts the vendor throughput setting to a whole-message
// per-second budget. Zero disables pacing.
func tpsLimit(vendor models.Vendor) int {
	if vendor.TransactionsPerSecond <= 0 {
		return 0
	}
	if vendor.TransactionsPerSecond < 1 {
		return 1
	}
	return int(vendor.TransactionsPerSecond)
}

// logWorker stands in for the SMPP client session: it paces, logs the
// submission, and stamps the delivery record as if the vendor accepted
// the message.
type logWorker struct {
	vendor   models.Vendor
	dlrStore *dlr.Store
	limiter  ratelimit.Limiter
}

func newLogWorker(vendor models.Vendor, dlrStore *dlr.Store, limiter ratelimit.Limiter) *logWorker {
	return &logWorker{vendor: vendor, dlrStore: dlrStore, limiter: limiter}
}

func (w *logWorker) Process(msg models.Message, ruleName, destinationID string) {
	if errWait := ratelimit.Wait(context.Background(), w.limiter, w.vendor.ID, tpsLimit(w.vendor)); errWait != nil {
		log.WithError(errWait).WithField("vendor", w.vendor.ID).Warn("pacing interrupted")
		return
	}

	vendorMessageID := uuid.NewString()
	log.WithField("rule", ruleName).
		WithField("destination", destinationID).
		WithField("from", msg.From).
		WithField("to", msg.To).
		WithField("smscid", vendorMessageID).
		Info("smpp submit")
	w.dlrStore.MarkSent(msg.InternalID, vendorMessageID)
}

// httpWorker delivers messages to an HTTP vendor endpoint with the
// vendor's API key. A 2xx response marks the message SENT with the
// vendor-reported message id when one comes back.
type httpWorker struct {
	vendor   models.Vendor
	dlrStore *dlr.Store
	limiter  ratelimit.Limiter
	client   *http.Client
}

func newHTTPWorker(vendor models.Vendor, dlrStore *dlr.Store, limiter ratelimit.Limiter) *httpWorker {
	return &httpWorker{
		vendor:   vendor,
		dlrStore: dlrStore,
		limiter:  limiter,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (w *httpWorker) Process(msg models.Message, ruleName, destinationID string) {
	if errWait := ratelimit.Wait(context.Background(), w.limiter, w.vendor.ID, tpsLimit(w.vendor)); errWait != nil {
		log.WithError(errWait).WithField("vendor", w.vendor.ID).Warn("pacing interrupted")
		return
	}
	if w.vendor.HTTPAPIURL == "" {
		log.WithField("vendor", w.vendor.ID).Error("http vendor without endpoint url")
		w.dlrStore.MarkFailed(msg.InternalID, models.DLRErrorVendorFailure)
		return
	}

	body, errMarshal := json.Marshal(msg)
	if errMarshal != nil {
		log.WithError(errMarshal).WithField("vendor", w.vendor.ID).Error("encode message failed")
		w.dlrStore.MarkFailed(msg.InternalID, models.DLRErrorVendorFailure)
		return
	}

	req, errReq := http.NewRequest(http.MethodPost, w.vendor.HTTPAPIURL, bytes.NewReader(body))
	if errReq != nil {
		log.WithError(errReq).WithField("vendor", w.vendor.ID).Error("build vendor request failed")
		w.dlrStore.MarkFailed(msg.InternalID, models.DLRErrorVendorFailure)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if w.vendor.HTTPAPIKey != "" {
		req.Header.Set(vendorAPIKeyHeader, w.vendor.HTTPAPIKey)
	}

	resp, errPost := w.client.Do(req)
	if errPost != nil {
		log.WithError(errPost).
			WithField("vendor", w.vendor.ID).
			WithField("url", w.vendor.HTTPAPIURL).
			Error("vendor callout failed")
		w.dlrStore.MarkFailed(msg.InternalID, models.DLRErrorVendorFailure)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.WithField("vendor", w.vendor.ID).
			WithField("status", resp.StatusCode).
			Error("vendor rejected message")
		w.dlrStore.MarkFailed(msg.InternalID, models.DLRErrorVendorFailure)
		return
	}

	var reply struct {
		MessageID string `json:"messageId"`
	}
	if errDecode := json.NewDecoder(resp.Body).Decode(&reply); errDecode != nil || reply.MessageID == "" {
		reply.MessageID = uuid.NewString()
	}

	log.WithField("rule", ruleName).
		WithField("destination", destinationID).
		WithField("vendor", w.vendor.ID).
		WithField("smscid", reply.MessageID).
		Info("http vendor accepted message")
	w.dlrStore.MarkSent(msg.InternalID, reply.MessageID)
}

// analyticsWorker logs a synthetic analytics event for every routed
// message. It never touches delivery records.
type analyticsWorker struct{}

func (analyticsWorker) Process(msg models.Message, ruleName, destinationID string) {
	log.WithField("rule", ruleName).
		WithField("destination", destinationID).
		WithField("from", msg.From).
		WithField("to", msg.To).
		WithField("timestamp", msg.Timestamp).
		Info("analytics event: sms received")
}
