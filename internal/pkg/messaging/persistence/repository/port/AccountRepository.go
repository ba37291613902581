package repository

import (
	"context"

	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
)

// AccountRepository is the channel directory collaborator.
type AccountRepository interface {
	// GetByPhoneNumberID resolves the account owning a provider endpoint id.
	// Returns messaging.ErrAccountNotFound for an unknown endpoint.
	GetByPhoneNumberID(ctx context.Context, phoneNumberID string) (*messaging.ChannelAccount, error)

	// Get resolves an account by tenant and id, for outbound dispatch.
	// Returns messaging.ErrAccountNotFound for an unknown id.
	Get(ctx context.Context, tenantID, id string) (*messaging.ChannelAccount, error)
}
