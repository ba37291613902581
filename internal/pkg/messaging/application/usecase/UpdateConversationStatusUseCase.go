package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/realtime"
	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
	repository "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/persistence/repository/port"
)

// UpdateConversationStatusInput transitions a conversation's lifecycle state.
type UpdateConversationStatusInput struct {
	TenantID       string
	ConversationID string
	Status         messaging.ConversationStatus
}

type UpdateConversationStatusUseCase struct {
	Conversations repository.ConversationRepository
	Notifier      realtime.Notifier
}

func NewUpdateConversationStatusUseCase(conversations repository.ConversationRepository, notifier realtime.Notifier) *UpdateConversationStatusUseCase {
	return &UpdateConversationStatusUseCase{Conversations: conversations, Notifier: notifier}
}

// Execute sets the status; the repository stamps closed_at on transition to
// closed and clears it on transition away.
func (uc *UpdateConversationStatusUseCase) Execute(ctx context.Context, in UpdateConversationStatusInput) error {
	switch in.Status {
	case messaging.ConversationOpen, messaging.ConversationPending, messaging.ConversationResolved, messaging.ConversationClosed:
	default:
		return fmt.Errorf("unknown conversation status %q", in.Status)
	}

	err := uc.Conversations.UpdateStatus(ctx, in.TenantID, in.ConversationID, in.Status)
	if err != nil {
		if errors.Is(err, messaging.ErrConversationNotFound) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	uc.Notifier.Notify(in.TenantID, realtime.EventConversationUpdate, messaging.ConversationUpdateEvent{
		ConversationID: in.ConversationID,
		Update:         map[string]any{"status": in.Status},
	})
	return nil
}
