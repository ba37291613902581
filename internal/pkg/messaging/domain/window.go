package messaging

import "time"

// ReplyWindow is the provider-defined window after a customer's last inbound
// message during which free-form (non-template) replies are allowed.
const ReplyWindow = 24 * time.Hour

// CanSendFreeform reports whether a free-form reply is currently permitted
// given the conversation's last inbound timestamp. The boundary is half-open:
// a message exactly ReplyWindow old is already outside the window. A nil
// timestamp (no inbound message yet) never permits a free-form send.
//
// Callers must evaluate this at send time, not at enqueue time; the window
// may expire while a job waits in queue.
func CanSendFreeform(lastInboundAt *time.Time, now time.Time) bool {
	if lastInboundAt == nil {
		return false
	}
	return now.Sub(*lastInboundAt) < ReplyWindow
}
