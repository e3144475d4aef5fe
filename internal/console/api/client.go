// Package api implements the typed HTTP client the console pages use
// to talk to the gateway. Errors carry a kind so pages can distinguish
// authorization, validation, not-found, and transport failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smsgrid/sms-gateway/internal/models"
)

// ErrorKind classifies a failed API call.
type ErrorKind int

const (
	// KindTransport covers network failures and 5xx answers.
	KindTransport ErrorKind = iota
	// KindAuth covers 401 and 403 answers.
	KindAuth
	// KindValidation covers 400 and 409 answers.
	KindValidation
	// KindNotFound covers 404 answers.
	KindNotFound
)

// Error is a failed API call with enough detail to render user-facing
// text.
type Error struct {
	Kind       ErrorKind // Failure class.
	StatusCode int       // HTTP status, 0 on transport failure.
	Message    string    // Server-provided or synthesized message.
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// IsAuth reports whether err is an authorization failure.
func IsAuth(err error) bool { return kindOf(err) == KindAuth }

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return kindOf(err) == KindValidation }

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

func kindOf(err error) ErrorKind {
	if apiErr, ok := err.(*Error); ok {
		return apiErr.Kind
	}
	return KindTransport
}

// Client talks to the gateway REST API with an API key header.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient constructs a Client for the given base URL and credential.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// do issues one request and decodes the answer into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, errMarshal := json.Marshal(payload)
		if errMarshal != nil {
			return &Error{Kind: KindValidation, Message: "encode request: " + errMarshal.Error()}
		}
		body = bytes.NewReader(raw)
	}

	req, errReq := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if errReq != nil {
		return &Error{Kind: KindTransport, Message: "build request: " + errReq.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, errDo := c.http.Do(req)
	if errDo != nil {
		return &Error{Kind: KindTransport, Message: "request failed: " + errDo.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return &Error{Kind: KindTransport, StatusCode: resp.StatusCode, Message: "read response: " + errRead.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if errDecode := json.Unmarshal(raw, out); errDecode != nil {
			return &Error{Kind: KindTransport, StatusCode: resp.StatusCode, Message: "decode response: " + errDecode.Error()}
		}
	}
	return nil
}

// statusError maps a non-2xx answer to the error taxonomy, preferring
// the server's own error message.
func statusError(status int, body []byte) *Error {
	message := serverMessage(body)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		if message == "" {
			message = "invalid or missing API key"
		}
		return &Error{Kind: KindAuth, StatusCode: status, Message: message}
	case status == http.StatusNotFound:
		if message == "" {
			message = "resource not found"
		}
		return &Error{Kind: KindNotFound, StatusCode: status, Message: message}
	case status == http.StatusBadRequest || status == http.StatusConflict:
		if message == "" {
			message = "request rejected"
		}
		return &Error{Kind: KindValidation, StatusCode: status, Message: message}
	default:
		if message == "" {
			message = "server error"
		}
		return &Error{Kind: KindTransport, StatusCode: status, Message: message}
	}
}

func serverMessage(body []byte) string {
	var reply struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if errDecode := json.Unmarshal(body, &reply); errDecode != nil {
		return strings.TrimSpace(string(body))
	}
	if reply.Error != "" {
		return reply.Error
	}
	return reply.Message
}

// Vendors fetches every configured vendor.
func (c *Client) Vendors(ctx context.Context) ([]models.Vendor, error) {
	var vendors []models.Vendor
	if err := c.do(ctx, http.MethodGet, "/api/admin/vendors", nil, &vendors); err != nil {
		return nil, err
	}
	return vendors, nil
}

// Vendor fetches one vendor by id.
func (c *Client) Vendor(ctx context.Context, id string) (models.Vendor, error) {
	var vendor models.Vendor
	if err := c.do(ctx, http.MethodGet, "/api/admin/vendors/"+id, nil, &vendor); err != nil {
		return models.Vendor{}, err
	}
	return vendor, nil
}

// CreateVendor creates a vendor and returns the server's copy.
func (c *Client) CreateVendor(ctx context.Context, vendor models.Vendor) (models.Vendor, error) {
	var created models.Vendor
	if err := c.do(ctx, http.MethodPost, "/api/admin/vendors", vendor, &created); err != nil {
		return models.Vendor{}, err
	}
	return created, nil
}

// UpdateVendor replaces a vendor's configuration.
func (c *Client) UpdateVendor(ctx context.Context, vendor models.Vendor) (models.Vendor, error) {
	var updated models.Vendor
	if err := c.do(ctx, http.MethodPut, "/api/admin/vendors/"+vendor.ID, vendor, &updated); err != nil {
		return models.Vendor{}, err
	}
	return updated, nil
}

// DeleteVendor removes a vendor by id.
func (c *Client) DeleteVendor(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/vendors/"+id, nil, nil)
}

// APIKeys fetches the full key set, admin keys first.
func (c *Client) APIKeys(ctx context.Context) ([]models.APIKey, error) {
	var keys []models.APIKey
	if err := c.do(ctx, http.MethodGet, "/api/admin/api-keys", nil, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// ReplaceAPIKeys swaps the whole key set and returns the new set.
func (c *Client) ReplaceAPIKeys(ctx context.Context, keys []models.APIKey) ([]models.APIKey, error) {
	var replaced []models.APIKey
	if err := c.do(ctx, http.MethodPut, "/api/admin/api-keys", keys, &replaced); err != nil {
		return nil, err
	}
	return replaced, nil
}

// RoutingRules fetches the routing table as group name to ordered
// rules.
func (c *Client) RoutingRules(ctx context.Context) (models.RuleGroups, error) {
	var groups models.RuleGroups
	if err := c.do(ctx, http.MethodGet, "/api/admin/routing-rules", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ReplaceRoutingRules swaps the whole routing table.
func (c *Client) ReplaceRoutingRules(ctx context.Context, groups models.RuleGroups) error {
	return c.do(ctx, http.MethodPut, "/api/admin/routing-rules", groups, nil)
}

// DLRStatus fetches every delivery record.
func (c *Client) DLRStatus(ctx context.Context) ([]models.DLRRecord, error) {
	var records []models.DLRRecord
	if err := c.do(ctx, http.MethodGet, "/api/dlr/status", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// SendReceipt is the gateway's answer to an accepted message.
type SendReceipt struct {
	Status     string `json:"status"`
	InternalID string `json:"internalId"`
}

// SendSMS submits one message for delivery.
func (c *Client) SendSMS(ctx context.Context, from, to, text string) (SendReceipt, error) {
	payload := map[string]string{"from": from, "to": to, "text": text}
	var receipt SendReceipt
	if err := c.do(ctx, http.MethodPost, "/api/sms/send", payload, &receipt); err != nil {
		return SendReceipt{}, err
	}
	return receipt, nil
}
