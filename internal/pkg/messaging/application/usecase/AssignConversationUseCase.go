package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/realtime"
	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
	repository "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/persistence/repository/port"
)

// AssignConversationInput assigns (or with a nil AgentID, unassigns) a
// conversation to an agent.
type AssignConversationInput struct {
	TenantID       string
	ConversationID string
	AgentID        *string
}

type AssignConversationUseCase struct {
	Conversations repository.ConversationRepository
	Notifier      realtime.Notifier
}

func NewAssignConversationUseCase(conversations repository.ConversationRepository, notifier realtime.Notifier) *AssignConversationUseCase {
	return &AssignConversationUseCase{Conversations: conversations, Notifier: notifier}
}

func (uc *AssignConversationUseCase) Execute(ctx context.Context, in AssignConversationInput) error {
	err := uc.Conversations.Assign(ctx, in.TenantID, in.ConversationID, in.AgentID)
	if err != nil {
		if errors.Is(err, messaging.ErrConversationNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	uc.Notifier.Notify(in.TenantID, realtime.EventConversationUpdate, messaging.ConversationUpdateEvent{
		ConversationID: in.ConversationID,
		Update:         map[string]any{"assigned_to": in.AgentID},
	})
	return nil
}
