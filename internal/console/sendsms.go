package console

import (
	"context"

	"github.com/smsgrid/sms-gateway/internal/console/api"
)

// SendSMSPage is the message submission form.
type SendSMSPage struct {
	From string
	To   string
	Text string

	Notices *Feedback

	client   *api.Client
	inFlight bool
}

// NewSendSMSPage constructs the page around an API client.
func NewSendSMSPage(client *api.Client) *SendSMSPage {
	return &SendSMSPage{
		Notices: NewFeedback(0),
		client:  client,
	}
}

// Complete reports whether all form fields are filled, which gates the
// send control.
func (p *SendSMSPage) Complete() bool {
	return p.From != "" && p.To != "" && p.Text != ""
}

// InFlight reports whether a send is outstanding; the send control is
// disabled for its duration.
func (p *SendSMSPage) InFlight() bool { return p.inFlight }

// Send submits the message and reports the outcome. The internal id
// from the receipt is returned for delivery-status lookups.
func (p *SendSMSPage) Send(ctx context.Context) (string, error) {
	if p.inFlight {
		return "", ErrSubmitInFlight
	}
	if !p.Complete() {
		p.Notices.Error("All fields are required.")
		return "", nil
	}

	p.inFlight = true
	receipt, errSend := p.client.SendSMS(ctx, p.From, p.To, p.Text)
	p.inFlight = false
	if errSend != nil {
		p.Notices.Error(errSend.Error())
		return "", errSend
	}

	p.Notices.Success("Message sent successfully!")
	p.Text = ""
	return receipt.InternalID, nil
}
