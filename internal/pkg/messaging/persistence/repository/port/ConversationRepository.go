package repository

import (
	"context"
	"time"

	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
)

// ConversationRepository is the conversation directory: it resolves the single
// open conversation per (tenant, contact, account) triple and mutates
// conversation metadata.
//
// FindOrCreateOpen must not create duplicate open rows under concurrent
// callers; adapters rely on the storage-level partial unique index and, on a
// unique violation during create, re-read and return the now-existing row.
type ConversationRepository interface {
	FindOrCreateOpen(ctx context.Context, tenantID, contactID, accountID string) (*messaging.Conversation, error)

	// FindByID returns messaging.ErrConversationNotFound for an unknown id.
	FindByID(ctx context.Context, tenantID, id string) (*messaging.Conversation, error)

	// Assign sets or clears (nil) the agent assignment.
	Assign(ctx context.Context, tenantID, id string, agentID *string) error

	// UpdateStatus transitions the conversation status. Transitioning to
	// closed stamps closed_at; transitioning away from closed clears it.
	UpdateStatus(ctx context.Context, tenantID, id string, status messaging.ConversationStatus) error

	// TouchInbound reopens a closed conversation, bumps last_inbound_at and
	// last_message_at to at, and increments the unread counter, all in a
	// single statement.
	TouchInbound(ctx context.Context, tenantID, id string, at time.Time) error

	// TouchOutbound bumps last_message_at only.
	TouchOutbound(ctx context.Context, tenantID, id string, at time.Time) error

	// SetAIIntent records the classifier's verdict for the conversation.
	SetAIIntent(ctx context.Context, tenantID, id, intent string) error
}
