package usecase

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/realtime"
	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
	repository "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/persistence/repository/port"
)

// ReconcileStatusInput is one provider delivery-status callback.
type ReconcileStatusInput struct {
	TenantID          string
	ProviderMessageID string
	Status            messaging.MessageStatus
	ErrorCode         *int
	ErrorTitle        *string
}

// ReconcileStatusUseCase maps provider delivery callbacks onto the ledger and
// notifies observers. No business logic beyond the mapping: an unknown
// provider message id is an expected reordering artifact and resolves to a
// logged no-op, never an error.
type ReconcileStatusUseCase struct {
	Messages repository.MessageRepository
	Notifier realtime.Notifier
	Log      *logrus.Logger
}

func NewReconcileStatusUseCase(messages repository.MessageRepository, notifier realtime.Notifier, log *logrus.Logger) *ReconcileStatusUseCase {
	return &ReconcileStatusUseCase{Messages: messages, Notifier: notifier, Log: log}
}

// Execute applies one status callback. Concurrent and out-of-order callbacks
// are naturally idempotent: the provider message id is set exactly once per
// message and the update is a single-row last-write-wins statement.
func (uc *ReconcileStatusUseCase) Execute(ctx context.Context, in ReconcileStatusInput) error {
	found, err := uc.Messages.UpdateStatusByProviderID(ctx, in.TenantID, in.ProviderMessageID, in.Status, in.ErrorCode, in.ErrorTitle)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !found {
		uc.Log.WithFields(logrus.Fields{
			"provider_message_id": in.ProviderMessageID,
			"status":              in.Status,
		}).Debug("status callback for unknown message id")
		return nil
	}

	uc.Notifier.Notify(in.TenantID, realtime.EventMessageStatus, messaging.MessageStatusEvent{
		ProviderMessageID: in.ProviderMessageID,
		Status:            in.Status,
	})
	return nil
}
