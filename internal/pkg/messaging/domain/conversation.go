package messaging

import "time"

// ConversationStatus is the lifecycle state of a customer thread.
type ConversationStatus string

const (
	ConversationOpen     ConversationStatus = "open"
	ConversationPending  ConversationStatus = "pending"
	ConversationResolved ConversationStatus = "resolved"
	ConversationClosed   ConversationStatus = "closed"
)

// Conversation is the single thread between a contact and one of the tenant's
// channel accounts. At most one conversation per (tenant, contact, account)
// triple may be open at a time; the storage layer enforces this with a partial
// unique index, not an application check.
type Conversation struct {
	ID         string             `db:"id"`
	TenantID   string             `db:"tenant_id"`
	ContactID  string             `db:"contact_id"`
	AccountID  string             `db:"wa_account_id"`
	AssignedTo *string            `db:"assigned_to"`
	Status     ConversationStatus `db:"status"`

	LastMessageAt *time.Time `db:"last_message_at"`
	LastInboundAt *time.Time `db:"last_inbound_at"`
	UnreadCount   int        `db:"unread_count"`

	AIIntent  *string    `db:"ai_intent"`
	AISummary *string    `db:"ai_summary"`
	ClosedAt  *time.Time `db:"closed_at"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
