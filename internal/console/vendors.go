package console

import (
	"context"
	"strings"

	"github.com/smsgrid/sms-gateway/internal/console/api"
	"github.com/smsgrid/sms-gateway/internal/models"
)

// VendorsPage manages the vendor CRUD screen. Vendors mutate per item:
// every create, update, and delete goes to the backend immediately and
// the list is patched locally with the server-confirmed record.
type VendorsPage struct {
	Rows    *Collection[models.Vendor]
	Dialog  *Editor[models.Vendor]
	Notices *Feedback

	client *api.Client
	guard  seqGuard
}

// NewVendorsPage constructs the page around an API client.
func NewVendorsPage(client *api.Client) *VendorsPage {
	return &VendorsPage{
		Rows:    NewCollection(func(v models.Vendor) string { return v.ID }),
		Dialog:  NewEditor[models.Vendor](),
		Notices: NewFeedback(0),
		client:  client,
	}
}

// Load fetches the vendor list and replaces the rows.
func (p *VendorsPage) Load(ctx context.Context) error {
	token := p.guard.next()
	vendors, errFetch := p.client.Vendors(ctx)
	if errFetch != nil {
		p.Notices.Error(errFetch.Error())
		return errFetch
	}
	p.ApplyFetch(token, vendors)
	return nil
}

// BeginFetch starts a refresh and returns its token.
func (p *VendorsPage) BeginFetch() uint64 { return p.guard.next() }

// ApplyFetch replaces the rows when the token is still the newest
// fetch. Stale responses are dropped.
func (p *VendorsPage) ApplyFetch(token uint64, vendors []models.Vendor) bool {
	if !p.guard.current(token) {
		return false
	}
	p.Rows.Reset(vendors)
	return true
}

// VendorComplete reports whether the record carries every field its
// kind requires, which gates the dialog's save control.
func VendorComplete(v models.Vendor) bool {
	if strings.TrimSpace(v.ID) == "" {
		return false
	}
	if v.IsSMPP() {
		return v.Host != "" && v.Port > 0 && v.SystemID != "" && v.Password != ""
	}
	return v.HTTPAPIKey != "" && v.HTTPAPIURL != ""
}

// SwitchVendorKind changes the record's transport kind and drops the
// fields meaningless to the new kind.
func SwitchVendorKind(v models.Vendor, kind string) models.Vendor {
	if strings.EqualFold(kind, v.Type) {
		return v
	}
	v.Type = kind
	if v.IsSMPP() {
		v.HTTPAPIKey = ""
		v.HTTPAPIURL = ""
	} else {
		v.Host = ""
		v.Port = 0
		v.SystemID = ""
		v.Password = ""
	}
	return v
}

// Create submits a new vendor. On success the confirmed record becomes
// a row; on failure the dialog keeps its edits.
func (p *VendorsPage) Create(ctx context.Context, vendor models.Vendor) error {
	created, errCreate := p.client.CreateVendor(ctx, vendor)
	if errCreate != nil {
		p.Notices.Error(errCreate.Error())
		return errCreate
	}
	p.Rows.Upsert(created)
	p.Rows.MarkSaved()
	p.Notices.Success("Vendor created successfully")
	return nil
}

// Update submits changed vendor fields as one atomic replacement. A
// vendor deleted behind our back refreshes the list to drop the stale
// row.
func (p *VendorsPage) Update(ctx context.Context, vendor models.Vendor) error {
	updated, errUpdate := p.client.UpdateVendor(ctx, vendor)
	if errUpdate != nil {
		p.Notices.Error(errUpdate.Error())
		if api.IsNotFound(errUpdate) {
			_ = p.reloadRows(ctx)
		}
		return errUpdate
	}
	p.Rows.Upsert(updated)
	p.Rows.MarkSaved()
	p.Notices.Success("Vendor updated successfully")
	return nil
}

// Delete removes a vendor. A second delete of the same id fails with a
// not-found error and refreshes the list.
func (p *VendorsPage) Delete(ctx context.Context, id string) error {
	if errDelete := p.client.DeleteVendor(ctx, id); errDelete != nil {
		p.Notices.Error(errDelete.Error())
		if api.IsNotFound(errDelete) {
			_ = p.reloadRows(ctx)
		}
		return errDelete
	}
	p.Rows.Remove(id)
	p.Rows.MarkSaved()
	p.Notices.Success("Vendor deleted successfully")
	return nil
}

// reloadRows refreshes silently after a not-found, keeping the list in
// step with the backend.
func (p *VendorsPage) reloadRows(ctx context.Context) error {
	token := p.guard.next()
	vendors, errFetch := p.client.Vendors(ctx)
	if errFetch != nil {
		return errFetch
	}
	p.ApplyFetch(token, vendors)
	return nil
}
