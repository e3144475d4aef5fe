package dlr

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/smsgrid/sms-gateway/internal/models"
)

// Forwarder pushes delivery-report payloads to an external collector
// over HTTP. A per-message forward URL overrides the configured
// default.
type Forwarder struct {
	store      *Store
	client     *http.Client
	enabled    bool
	defaultURL string
}

// NewForwarder constructs a Forwarder writing forward timestamps back
// into the store.
func NewForwarder(store *Store, enabled bool, defaultURL string) *Forwarder {
	return &Forwarder{
		store:      store,
		client:     &http.Client{Timeout: 10 * time.Second},
		enabled:    enabled,
		defaultURL: defaultURL,
	}
}

// Forward delivers the record to its collector and stamps the forward
// time. Disabled forwarding and missing URLs are logged and skipped;
// forwarding failures never fail the caller.
func (f *Forwarder) Forward(record models.DLRRecord, vendorID string) {
	if record.ForwardingID == "" {
		log.WithField("vendor", vendorID).Warn("dlr record without forwarding id, skipping forward")
		return
	}
	if !f.enabled {
		log.WithField("forwardingId", record.ForwardingID).
			WithField("vendor", vendorID).
			Debug("dlr forwarding disabled, skipping")
		return
	}

	url := record.ForwardURL
	if url == "" {
		url = f.defaultURL
	}
	if url == "" {
		log.WithField("forwardingId", record.ForwardingID).Warn("no dlr forward url configured")
		return
	}

	body, errMarshal := json.Marshal(record)
	if errMarshal != nil {
		log.WithError(errMarshal).WithField("forwardingId", record.ForwardingID).
			Error("encode dlr payload failed")
		return
	}

	resp, errPost := f.client.Post(url, "application/json", bytes.NewReader(body))
	if errPost != nil {
		log.WithError(errPost).
			WithField("forwardingId", record.ForwardingID).
			WithField("url", url).
			Error("forward dlr failed")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.WithField("forwardingId", record.ForwardingID).
			WithField("url", url).
			WithField("status", resp.StatusCode).
			Error("dlr collector rejected forward")
		return
	}

	f.store.MarkForwarded(record.ForwardingID)
	log.WithField("forwardingId", record.ForwardingID).
		WithField("smscid", record.SMSCID).
		WithField("vendor", vendorID).
		Info("forwarded dlr")
}
