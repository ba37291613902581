package messaging

import "time"

// MessageDirection distinguishes customer messages from agent/system replies.
type MessageDirection string

const (
	DirectionInbound  MessageDirection = "inbound"
	DirectionOutbound MessageDirection = "outbound"
)

// MessageStatus is the delivery lifecycle of a message. Inbound messages are
// stored as delivered; outbound messages move queued -> sent -> delivered ->
// read, or to failed. Statuses only move forward in practice, so out-of-order
// provider callbacks resolve as last-write-wins.
type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusQueued    MessageStatus = "queued"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusFailed    MessageStatus = "failed"
)

// Message is an immutable ledger entry in a conversation. Only the status and
// error fields mutate after creation: the dispatch worker attaches the
// provider message id and the reconciliation handler advances the status.
// ProviderMessageID, once set, is unique within a tenant and is the sole
// correlation key for status callbacks.
type Message struct {
	ID             string           `db:"id"`
	TenantID       string           `db:"tenant_id"`
	ConversationID string           `db:"conversation_id"`
	ContactID      *string          `db:"contact_id"`
	SenderID       *string          `db:"sender_id"`

	ProviderMessageID *string          `db:"wa_message_id"`
	Direction         MessageDirection `db:"direction"`
	Type              string           `db:"type"`
	Content           Content          `db:"content"`
	Status            MessageStatus    `db:"status"`

	ErrorCode  *int    `db:"error_code"`
	ErrorTitle *string `db:"error_message"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
