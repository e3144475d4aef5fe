package console

import (
	"context"

	"github.com/smsgrid/sms-gateway/internal/console/api"
	"github.com/smsgrid/sms-gateway/internal/models"
)

// DLRStatusPage is the read-only delivery-report viewer. A refresh
// fully replaces the rows with the latest server snapshot.
type DLRStatusPage struct {
	Rows    *Collection[models.DLRRecord]
	Notices *Feedback

	client *api.Client
	guard  seqGuard
}

// NewDLRStatusPage constructs the page around an API client.
func NewDLRStatusPage(client *api.Client) *DLRStatusPage {
	return &DLRStatusPage{
		Rows:    NewCollection(func(r models.DLRRecord) string { return r.ForwardingID }),
		Notices: NewFeedback(0),
		client:  client,
	}
}

// Refresh replaces the rows with the current delivery records. Rows
// from the previous data set never survive a refresh that returned a
// disjoint set.
func (p *DLRStatusPage) Refresh(ctx context.Context) error {
	token := p.guard.next()
	records, errFetch := p.client.DLRStatus(ctx)
	if errFetch != nil {
		p.Notices.Error(errFetch.Error())
		return errFetch
	}
	p.ApplyFetch(token, records)
	return nil
}

// BeginFetch starts a refresh and returns its token.
func (p *DLRStatusPage) BeginFetch() uint64 { return p.guard.next() }

// ApplyFetch replaces the rows when the token is still the newest
// fetch. Stale responses are dropped.
func (p *DLRStatusPage) ApplyFetch(token uint64, records []models.DLRRecord) bool {
	if !p.guard.current(token) {
		return false
	}
	p.Rows.Reset(records)
	return true
}
