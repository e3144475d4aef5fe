package console

// Page identifies a top-level console page.
type Page int

const (
	// PageSendSMS is the message submission form.
	PageSendSMS Page = iota
	// PageVendors is the vendor CRUD screen.
	PageVendors
	// PageAPIKeys is the API key management screen.
	PageAPIKeys
	// PageRoutingRules is the routing-rule group management screen.
	PageRoutingRules
	// PageDLRStatus is the delivery-report status viewer.
	PageDLRStatus
)

// routes is the pure path to page map. The root path redirects to the
// send form; there is no guarding at the routing layer.
var routes = map[string]Page{
	"/send-sms":            PageSendSMS,
	"/admin/vendors":       PageVendors,
	"/admin/api-keys":      PageAPIKeys,
	"/admin/routing-rules": PageRoutingRules,
	"/dlr-status":          PageDLRStatus,
}

// Resolve maps a URL path to its page. The root path resolves to the
// send page; unknown paths report false.
func Resolve(path string) (Page, bool) {
	if path == "" || path == "/" {
		return PageSendSMS, true
	}
	page, ok := routes[path]
	return page, ok
}
