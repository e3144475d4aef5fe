// Package dlr tracks delivery-report records for accepted messages and
// forwards them to external collectors.
package dlr

import (
	"sync"
	"time"

	"github.com/smsgrid/sms-gateway/internal/models"
)

// Store holds delivery-report records in memory, keyed by the
// gateway-internal forwarding id, with a bidirectional mapping to
// vendor-side message ids. Records live for the process lifetime and
// are not persisted.
type Store struct {
	mu               sync.RWMutex
	records          map[string]models.DLRRecord
	internalToVendor map[string]string
	vendorToInternal map[string]string
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		records:          map[string]models.DLRRecord{},
		internalToVendor: map[string]string{},
		vendorToInternal: map[string]string{},
	}
}

// Put stores or replaces the record for its forwarding id.
func (s *Store) Put(record models.DLRRecord) {
	if record.ForwardingID == "" {
		return
	}
	s.mu.Lock()
	s.records[record.ForwardingID] = record
	s.mu.Unlock()
}

// Get returns the record for an internal id.
func (s *Store) Get(internalID string) (models.DLRRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[internalID]
	return record, ok
}

// All returns a snapshot of every record.
func (s *Store) All() []models.DLRRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DLRRecord, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	return out
}

// MapVendorID links an internal id to the vendor-side message id.
func (s *Store) MapVendorID(internalID, vendorID string) {
	if internalID == "" || vendorID == "" {
		return
	}
	s.mu.Lock()
	s.internalToVendor[internalID] = vendorID
	s.vendorToInternal[vendorID] = internalID
	s.mu.Unlock()
}

// InternalID resolves a vendor-side message id back to the internal id.
func (s *Store) InternalID(vendorID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	internalID, ok := s.vendorToInternal[vendorID]
	return internalID, ok
}

// MarkAccepted records a freshly accepted message.
func (s *Store) MarkAccepted(msg models.Message) {
	now := time.Now().UTC()
	s.Put(models.DLRRecord{
		ForwardingID:         msg.InternalID,
		Status:               models.DLRStatusAccepted,
		FromAddress:          msg.From,
		ToAddress:            msg.To,
		Body:                 msg.Text,
		ForwardURL:           msg.ForwardURL,
		OriginatingSessionID: msg.SessionID,
		ReceivedAt:           &now,
	})
}

// MarkSent updates the record after a vendor accepted the message.
func (s *Store) MarkSent(internalID, vendorMessageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[internalID]
	if !ok {
		return
	}
	now := time.Now().UTC()
	record.Status = models.DLRStatusSent
	record.SMSCID = vendorMessageID
	record.SentAt = &now
	s.records[internalID] = record
	if vendorMessageID != "" {
		s.internalToVendor[internalID] = vendorMessageID
		s.vendorToInternal[vendorMessageID] = internalID
	}
}

// MarkProcessed stamps the routing-finished time.
func (s *Store) MarkProcessed(internalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[internalID]
	if !ok {
		return
	}
	now := time.Now().UTC()
	record.ProcessedAt = &now
	s.records[internalID] = record
}

// MarkFailed records a terminal failure with an error code.
func (s *Store) MarkFailed(internalID, errorCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[internalID]
	if !ok {
		return
	}
	now := time.Now().UTC()
	record.Status = models.DLRStatusFailed
	record.ErrorCode = errorCode
	record.ProcessedAt = &now
	s.records[internalID] = record
}

// MarkForwarded stamps the forward time after a receipt was pushed
// onward.
func (s *Store) MarkForwarded(internalID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[internalID]
	if !ok {
		return
	}
	now := time.Now().UTC()
	record.ForwardDate = &now
	s.records[internalID] = record
}
