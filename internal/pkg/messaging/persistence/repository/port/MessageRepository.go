package repository

import (
	"context"

	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
)

// MessageRepository is the append-only message ledger. Rows are immutable
// after insert except for the status/error fields and the provider message id
// attached by the dispatch worker.
type MessageRepository interface {
	// AppendInbound persists a customer message and returns it with the
	// generated id. Callers set Status (inbound messages arrive delivered).
	AppendInbound(ctx context.Context, m messaging.Message) (*messaging.Message, error)

	// AppendOutbound persists an agent/system reply, typically status=queued.
	AppendOutbound(ctx context.Context, m messaging.Message) (*messaging.Message, error)

	// MarkSent attaches the provider message id to a ledger row (by internal
	// id) and moves it to sent. Used by the dispatch worker on transport
	// success.
	MarkSent(ctx context.Context, tenantID, id, providerMessageID string) error

	// MarkFailed moves a ledger row to failed with provider error detail.
	MarkFailed(ctx context.Context, tenantID, id string, errCode *int, errTitle *string) error

	// UpdateStatusByProviderID transitions the status of the message carrying
	// the given provider id. An unknown id is an expected outcome under
	// callback reordering: it returns found=false and no error.
	UpdateStatusByProviderID(ctx context.Context, tenantID, providerMessageID string, status messaging.MessageStatus, errCode *int, errTitle *string) (found bool, err error)
}
