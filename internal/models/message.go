package models

import "time"

// GSM default coding tag assigned to accepted messages.
const CodingGSM = "GSM"

// Delivery-report status codes carried by DLRRecord.Status.
const (
	DLRStatusAccepted  = "ACCEPTED"
	DLRStatusSent      = "SENT"
	DLRStatusDelivered = "DELIVRD"
	DLRStatusExpired   = "EXPIRED"
	DLRStatusFailed    = "FAILED"
)

// DLRErrorNoRoute marks messages no routing rule handled.
const DLRErrorNoRoute = "999"

// DLRErrorVendorFailure marks messages a vendor refused or that failed
// in transit to the vendor.
const DLRErrorVendorFailure = "998"

// Message is an accepted SMS on its way through routing. From, To and
// Text are caller-supplied; the gateway assigns InternalID and Coding.
type Message struct {
	From       string `json:"from"`                 // Sender address.
	To         string `json:"to"`                   // Recipient address.
	Text       string `json:"text"`                 // Message body.
	Timestamp  string `json:"timestamp,omitempty"`  // Caller-supplied timestamp, passed through.
	Coding     string `json:"coding,omitempty"`     // Character coding tag.
	InternalID string `json:"internalId,omitempty"` // Gateway-assigned message id.
	SessionID  *int64 `json:"sessionId,omitempty"`  // Originating inbound session, if any.
	Gateway    string `json:"gateway,omitempty"`    // Destination id chosen by routing.
	ForwardURL string `json:"forwardUrl,omitempty"` // Per-message DLR forward URL override.
}

// DLRRecord is one delivery-report entry as served by the status
// endpoint. Timestamps are pointers so unset stages stay null on the
// wire.
type DLRRecord struct {
	ForwardingID string `json:"forwardingId"`        // Gateway-internal message id.
	SMSCID       string `json:"smscid,omitempty"`    // Vendor-side message id.
	Status       string `json:"status"`              // Current delivery status code.
	ErrorCode    string `json:"errorCode,omitempty"` // Vendor or gateway error code.

	FromAddress string `json:"fromAddress,omitempty"` // Sender address.
	ToAddress   string `json:"toAddress,omitempty"`   // Recipient address.
	Body        string `json:"body,omitempty"`        // Message body.
	RawDLR      string `json:"rawDlr,omitempty"`      // Raw receipt text, when present.

	ForwardURL           string `json:"forwardUrl,omitempty"`           // Per-message forward URL override.
	OriginatingSessionID *int64 `json:"originatingSessionId,omitempty"` // Inbound session the message arrived on.

	ReceivedAt  *time.Time `json:"receivedAt,omitempty"`  // Accepted by the gateway.
	SentAt      *time.Time `json:"sentAt,omitempty"`      // Handed to a vendor.
	ProcessedAt *time.Time `json:"processedAt,omitempty"` // Routing finished.
	ForwardDate *time.Time `json:"forwardDate,omitempty"` // Receipt forwarded onward.
}
