package repository

import (
	"context"

	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
)

// ContactRepository is the contact store collaborator. Only the upsert used by
// inbound ingestion and the phone lookup used by outbound dispatch are part of
// this core; list/CRUD surfaces live elsewhere.
type ContactRepository interface {
	// UpsertByPhone creates the contact on first sight of a phone number or
	// merges the patch into the existing row. Merging is additive: a nil name
	// keeps the stored name, tags are unioned, never removed.
	UpsertByPhone(ctx context.Context, tenantID, phone string, patch messaging.ContactPatch) (*messaging.Contact, error)

	// GetPhone resolves the stored phone number for a contact id.
	// Returns messaging.ErrContactNotFound when the contact does not exist.
	GetPhone(ctx context.Context, tenantID, contactID string) (string, error)
}
