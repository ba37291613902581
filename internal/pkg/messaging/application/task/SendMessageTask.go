package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	qport "github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/queue/port"
	"github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/realtime"
	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
	repository "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/persistence/repository/port"
	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/transport"
)

// SendMessageTaskType is the queue contract name for outbound dispatch.
const SendMessageTaskType = "message.send"

// TemplateRef selects a pre-approved template; template sends bypass the
// 24h window per provider rules.
type TemplateRef struct {
	Name       string                        `json:"name"`
	Language   string                        `json:"language"`
	Components []transport.TemplateComponent `json:"components,omitempty"`
}

// SendMessageTaskPayload is the JSON payload transported via the queue. The
// ledger row identified by MessageID already exists with status=queued.
type SendMessageTaskPayload struct {
	TenantID       string       `json:"tenantId"`
	ConversationID string       `json:"conversationId"`
	AccountID      string       `json:"accountId"`
	To             string       `json:"to"`
	Body           string       `json:"body,omitempty"`
	Template       *TemplateRef `json:"template,omitempty"`
	MessageID      string       `json:"messageId"`
}

// RegisterSendMessageTask binds the outbound dispatch worker to the server.
//
// Failure taxonomy: configuration problems (unknown or inactive account) and
// an expired reply window are permanent and skip retries; transport problems
// (network, rate limit, provider 5xx) are returned plainly so the queue's
// backoff policy applies.
func RegisterSendMessageTask(
	srv qport.Server,
	accounts repository.AccountRepository,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	tp transport.Transport,
	notifier realtime.Notifier,
	log *logrus.Logger,
) {
	srv.Register(SendMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p SendMessageTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return fmt.Errorf("send: malformed payload: %v: %w", err, qport.SkipRetry)
		}

		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		account, err := accounts.Get(ctx, p.TenantID, p.AccountID)
		if err != nil {
			if errors.Is(err, messaging.ErrAccountNotFound) {
				failLedger(ctx, messages, p, nil, "channel account not found", log)
				return fmt.Errorf("send %s: %v: %w", p.MessageID, err, qport.SkipRetry)
			}
			return err
		}
		if !account.Active {
			failLedger(ctx, messages, p, nil, "channel account inactive", log)
			return fmt.Errorf("send %s: %v: %w", p.MessageID, messaging.ErrAccountInactive, qport.SkipRetry)
		}

		// Free-form sends re-validate the window here, at send time: the job
		// may have waited in queue past the boundary.
		if p.Template == nil {
			convo, err := conversations.FindByID(ctx, p.TenantID, p.ConversationID)
			if err != nil {
				if errors.Is(err, messaging.ErrConversationNotFound) {
					failLedger(ctx, messages, p, nil, "conversation not found", log)
					return fmt.Errorf("send %s: %v: %w", p.MessageID, err, qport.SkipRetry)
				}
				return err
			}
			if !messaging.CanSendFreeform(convo.LastInboundAt, time.Now()) {
				failLedger(ctx, messages, p, nil, "24h reply window expired", log)
				return fmt.Errorf("send %s: %v: %w", p.MessageID, messaging.ErrWindowExpired, qport.SkipRetry)
			}
		}

		var result transport.SendResult
		if p.Template != nil {
			result, err = tp.SendTemplate(ctx, account, p.To, p.Template.Name, p.Template.Language, p.Template.Components)
		} else {
			result, err = tp.SendText(ctx, account, p.To, p.Body)
		}
		if err != nil {
			var terr *transport.Error
			if errors.As(err, &terr) {
				code := terr.Code
				failLedger(ctx, messages, p, &code, terr.Detail, log)
			} else {
				failLedger(ctx, messages, p, nil, err.Error(), log)
			}
			return err
		}

		if err := messages.MarkSent(ctx, p.TenantID, p.MessageID, result.ProviderMessageID); err != nil {
			// The message went out but the ledger missed it; retrying the job
			// would transmit again. Accepted at-least-once risk, surfaced loud.
			log.WithFields(logrus.Fields{
				"message_id":  p.MessageID,
				"provider_id": result.ProviderMessageID,
			}).WithError(err).Error("sent but ledger update failed")
			return err
		}

		notifier.Notify(p.TenantID, realtime.EventMessageStatus, messaging.MessageStatusEvent{
			ProviderMessageID: result.ProviderMessageID,
			Status:            messaging.StatusSent,
		})
		return nil
	})
}

func failLedger(ctx context.Context, messages repository.MessageRepository, p SendMessageTaskPayload, code *int, title string, log *logrus.Logger) {
	if err := messages.MarkFailed(ctx, p.TenantID, p.MessageID, code, &title); err != nil {
		log.WithField("message_id", p.MessageID).WithError(err).Error("mark failed")
	}
}
