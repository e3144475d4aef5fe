package console

import "time"

// DefaultNoticeTTL is how long a notice stays visible without explicit
// dismissal.
const DefaultNoticeTTL = 5 * time.Second

// NoticeLevel tags a notice as success or failure.
type NoticeLevel int

const (
	// NoticeSuccess reports a completed operation.
	NoticeSuccess NoticeLevel = iota
	// NoticeError reports a failed operation.
	NoticeError
)

// Notice is one transient notification.
type Notice struct {
	Level   NoticeLevel
	Message string
	shownAt time.Time
}

// Feedback is the single transient notification slot of a page. Each
// completed operation replaces the content; notices expire after the
// TTL or on explicit dismissal.
type Feedback struct {
	notice *Notice
	ttl    time.Duration
	now    func() time.Time
}

// NewFeedback constructs a Feedback slot with the given TTL. A zero
// TTL uses the default.
func NewFeedback(ttl time.Duration) *Feedback {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &Feedback{ttl: ttl, now: time.Now}
}

// Success shows a success notice, replacing any current one.
func (f *Feedback) Success(message string) {
	f.notice = &Notice{Level: NoticeSuccess, Message: message, shownAt: f.now()}
}

// Error shows an error notice, replacing any current one.
func (f *Feedback) Error(message string) {
	f.notice = &Notice{Level: NoticeError, Message: message, shownAt: f.now()}
}

// Current returns the visible notice, expiring it when the TTL has
// passed.
func (f *Feedback) Current() (Notice, bool) {
	if f.notice == nil {
		return Notice{}, false
	}
	if f.now().Sub(f.notice.shownAt) >= f.ttl {
		f.notice = nil
		return Notice{}, false
	}
	return *f.notice, true
}

// Dismiss clears the slot.
func (f *Feedback) Dismiss() {
	f.notice = nil
}
