package console

import (
	"context"

	"github.com/smsgrid/sms-gateway/internal/console/api"
	"github.com/smsgrid/sms-gateway/internal/models"
)

// APIKeysPage manages the key set as one replaceable collection: edits
// accumulate locally and an explicit save PUTs the whole desired set.
type APIKeysPage struct {
	Rows    *Collection[models.APIKey]
	Dialog  *Editor[models.APIKey]
	Notices *Feedback

	client *api.Client
	guard  seqGuard
}

// NewAPIKeysPage constructs the page around an API client.
func NewAPIKeysPage(client *api.Client) *APIKeysPage {
	return &APIKeysPage{
		Rows:    NewCollection(func(k models.APIKey) string { return k.Identifier() }),
		Dialog:  NewEditor[models.APIKey](),
		Notices: NewFeedback(0),
		client:  client,
	}
}

// Load fetches the key set and replaces the rows.
func (p *APIKeysPage) Load(ctx context.Context) error {
	token := p.guard.next()
	keys, errFetch := p.client.APIKeys(ctx)
	if errFetch != nil {
		p.Notices.Error(errFetch.Error())
		return errFetch
	}
	if p.guard.current(token) {
		p.Rows.Reset(keys)
	}
	return nil
}

// KeyComplete reports whether the record carries every field its kind
// requires, which gates the dialog's save control.
func KeyComplete(k models.APIKey) bool {
	if k.Type == models.APIKeyTypeSMPP {
		return k.SystemID != "" && k.Password != ""
	}
	return k.Key != ""
}

// Add stages a new key locally. Nothing reaches the backend until
// Save.
func (p *APIKeysPage) Add(key models.APIKey) {
	p.Rows.Upsert(key)
}

// UpdatePassword changes an SMPP credential's password in place. The
// system-id identifier stays untouched, so the row keeps resolving.
func (p *APIKeysPage) UpdatePassword(systemID, password string) bool {
	key, ok := p.Rows.Lookup(systemID)
	if !ok || key.Type != models.APIKeyTypeSMPP {
		return false
	}
	key.Password = password
	p.Rows.Upsert(key)
	return true
}

// Remove stages a key removal locally.
func (p *APIKeysPage) Remove(id string) bool {
	removed := p.Rows.Remove(id)
	if removed {
		p.Notices.Success("API key deleted successfully!")
	}
	return removed
}

// Dirty reports whether local edits have not been saved yet.
func (p *APIKeysPage) Dirty() bool { return p.Rows.Dirty() }

// Save PUTs the whole desired key set. The backend's response is
// authoritative: on success it replaces the rows and the saved
// snapshot; on failure local edits stay so the user can correct and
// retry.
func (p *APIKeysPage) Save(ctx context.Context) error {
	replaced, errReplace := p.client.ReplaceAPIKeys(ctx, p.Rows.Items())
	if errReplace != nil {
		p.Notices.Error(errReplace.Error())
		return errReplace
	}
	p.Rows.Reset(replaced)
	p.Notices.Success("API keys updated successfully!")
	return nil
}
