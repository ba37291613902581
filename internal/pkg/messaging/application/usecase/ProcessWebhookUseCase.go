package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	qport "github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/queue/port"
	"github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/realtime"
	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/application/idempotency"
	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/application/task"
	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
	repository "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/persistence/repository/port"
)

// ProcessWebhookUseCase orchestrates inbound webhook ingestion: event
// admission, contact upsert, conversation resolution, ledger append and
// asynchronous fan-out. It runs after the HTTP layer has verified the
// signature and acknowledged the provider.
type ProcessWebhookUseCase struct {
	Admission     *idempotency.Admission
	Accounts      repository.AccountRepository
	Contacts      repository.ContactRepository
	Conversations repository.ConversationRepository
	Messages      repository.MessageRepository
	Queue         qport.Client
	Notifier      realtime.Notifier
	Reconcile     *ReconcileStatusUseCase
	Log           *logrus.Logger
}

func NewProcessWebhookUseCase(
	admission *idempotency.Admission,
	accounts repository.AccountRepository,
	contacts repository.ContactRepository,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	queue qport.Client,
	notifier realtime.Notifier,
	log *logrus.Logger,
) *ProcessWebhookUseCase {
	return &ProcessWebhookUseCase{
		Admission:     admission,
		Accounts:      accounts,
		Contacts:      contacts,
		Conversations: conversations,
		Messages:      messages,
		Queue:         queue,
		Notifier:      notifier,
		Reconcile:     NewReconcileStatusUseCase(messages, notifier, log),
		Log:           log,
	}
}

// Execute walks the nested entry/changes/value payload. Failures on one event
// never block the rest of the batch: the provider already got its 200 and
// will not redeliver, so each event is processed independently and failures
// are surfaced to the log. This pipeline is at-most-once, not exactly-once.
func (uc *ProcessWebhookUseCase) Execute(ctx context.Context, payload *messaging.WebhookPayload) {
	if payload.Object != "whatsapp_business_account" {
		return
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			uc.processChange(ctx, &change.Value)
		}
	}
}

func (uc *ProcessWebhookUseCase) processChange(ctx context.Context, value *messaging.WebhookValue) {
	account, err := uc.Accounts.GetByPhoneNumberID(ctx, value.Metadata.PhoneNumberID)
	if err != nil {
		if errors.Is(err, messaging.ErrAccountNotFound) {
			uc.Log.WithField("phone_number_id", value.Metadata.PhoneNumberID).Warn("webhook for unknown phone_number_id")
		} else {
			uc.Log.WithError(err).Error("resolve channel account")
		}
		return
	}

	var waContact *messaging.WebhookContact
	if len(value.Contacts) > 0 {
		waContact = &value.Contacts[0]
	}

	for i := range value.Messages {
		msg := &value.Messages[i]
		if err := uc.handleInbound(ctx, account, msg, waContact); err != nil {
			// The event is already admitted; redelivery will be skipped.
			uc.Log.WithField("wa_message_id", msg.ID).WithError(err).Error("inbound event partially processed")
		}
	}

	for i := range value.Statuses {
		status := &value.Statuses[i]
		if err := uc.handleStatus(ctx, account.TenantID, status); err != nil {
			uc.Log.WithField("wa_message_id", status.ID).WithError(err).Error("status callback failed")
		}
	}
}

func (uc *ProcessWebhookUseCase) handleInbound(ctx context.Context, account *messaging.ChannelAccount, msg *messaging.WebhookMessage, waContact *messaging.WebhookContact) error {
	admitted, err := uc.Admission.Admit(ctx, msg.ID)
	if err != nil {
		// Fail closed: with the admission store unreachable we cannot prove
		// first-seen, so the event is dropped here and the provider's retry
		// gets another chance.
		return err
	}
	if !admitted {
		uc.Log.WithField("wa_message_id", msg.ID).Debug("duplicate event skipped")
		return nil
	}

	patch := messaging.ContactPatch{}
	if waContact != nil && waContact.Profile.Name != "" {
		name := waContact.Profile.Name
		patch.Name = &name
	}
	contact, err := uc.Contacts.UpsertByPhone(ctx, account.TenantID, msg.From, patch)
	if err != nil {
		return fmt.Errorf("%w: upsert contact: %v", ErrPersistence, err)
	}

	convo, err := uc.Conversations.FindOrCreateOpen(ctx, account.TenantID, contact.ID, account.ID)
	if err != nil {
		return fmt.Errorf("%w: resolve conversation: %v", ErrPersistence, err)
	}

	content := messaging.NormalizeContent(msg)

	providerID := msg.ID
	stored, err := uc.Messages.AppendInbound(ctx, messaging.Message{
		TenantID:          account.TenantID,
		ConversationID:    convo.ID,
		ContactID:         &contact.ID,
		ProviderMessageID: &providerID,
		Type:              msg.Type,
		Content:           content,
		Status:            messaging.StatusDelivered,
	})
	if err != nil {
		return fmt.Errorf("%w: append inbound: %v", ErrPersistence, err)
	}

	now := time.Now().UTC()
	if err := uc.Conversations.TouchInbound(ctx, account.TenantID, convo.ID, now); err != nil {
		return fmt.Errorf("%w: touch inbound: %v", ErrPersistence, err)
	}

	uc.Notifier.Notify(account.TenantID, realtime.EventNewMessage, messaging.NewMessageEvent{
		ConversationID: convo.ID,
		Message:        stored,
	})

	// The two fan-out enqueues are independent: the downstream notification
	// goes out for every message type, even when the classify enqueue fails.
	var enqueueErr error
	if text, ok := content.TextBody(); ok {
		if err := uc.enqueue(ctx, task.ClassifyTaskType, task.ClassifyTaskPayload{
			MessageText:    text,
			ConversationID: convo.ID,
			TenantID:       account.TenantID,
		}); err != nil {
			enqueueErr = fmt.Errorf("enqueue classify: %w", err)
		}
	}

	if err := uc.enqueue(ctx, task.NotifyTaskType, task.NotifyTaskPayload{
		TenantID:       account.TenantID,
		ConversationID: convo.ID,
		ContactID:      contact.ID,
		MessageID:      stored.ID,
		Type:           msg.Type,
		Content:        content,
	}); err != nil {
		enqueueErr = errors.Join(enqueueErr, fmt.Errorf("enqueue notify: %w", err))
	}

	return enqueueErr
}

func (uc *ProcessWebhookUseCase) handleStatus(ctx context.Context, tenantID string, status *messaging.WebhookStatus) error {
	var errCode *int
	var errTitle *string
	if len(status.Errors) > 0 {
		errCode = &status.Errors[0].Code
		errTitle = &status.Errors[0].Title
	}
	return uc.Reconcile.Execute(ctx, ReconcileStatusInput{
		TenantID:          tenantID,
		ProviderMessageID: status.ID,
		Status:            messaging.MessageStatus(status.Status),
		ErrorCode:         errCode,
		ErrorTitle:        errTitle,
	})
}

func (uc *ProcessWebhookUseCase) enqueue(ctx context.Context, taskType string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = uc.Queue.Enqueue(ctx, qport.Task{Type: taskType, Payload: body}, qport.EnqueueOption{Queue: taskType})
	return err
}
