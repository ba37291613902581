package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/bus"
	qport "github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/queue/port"
	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
)

// NotifyTaskType is the queue contract name for downstream automation fan-out.
const NotifyTaskType = "webhook.notify"

// EventMessageReceived is the envelope type published for inbound messages.
const EventMessageReceived = "inbox.message.received.v1"

// NotifyTaskPayload is forwarded verbatim to the external automation layer.
type NotifyTaskPayload struct {
	TenantID       string            `json:"tenantId"`
	ConversationID string            `json:"conversationId"`
	ContactID      string            `json:"contactId"`
	MessageID      string            `json:"messageId"`
	Type           string            `json:"type"`
	Content        messaging.Content `json:"content"`
}

// RegisterNotifyTask binds the downstream-notify worker. A nil publisher
// means no automation bus is configured; jobs succeed as no-ops. A publish
// failure is retried by the queue and is never conflated with inbound
// processing, which already completed.
func RegisterNotifyTask(srv qport.Server, publisher bus.Publisher, log *logrus.Logger) {
	srv.Register(NotifyTaskType, func(ctx context.Context, t qport.Task) error {
		var p NotifyTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return fmt.Errorf("notify: malformed payload: %v: %w", err, qport.SkipRetry)
		}

		if publisher == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		return publisher.Publish(ctx, EventMessageReceived, bus.Envelope{
			Meta: bus.Meta{
				Type:          EventMessageReceived,
				TenantID:      p.TenantID,
				Time:          time.Now().UTC(),
				CorrelationID: p.MessageID,
			},
			Data: p,
		})
	})
}
