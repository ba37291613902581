package task

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	qport "github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/queue/port"
	"github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/realtime"
	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/ai"
	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
	repository "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/persistence/repository/port"
)

// ClassifyTaskType is the queue contract name for AI intent classification.
const ClassifyTaskType = "ai.classify"

// ClassifyTaskPayload carries the text of an inbound message.
type ClassifyTaskPayload struct {
	MessageText    string `json:"messageText"`
	ConversationID string `json:"conversationId"`
	TenantID       string `json:"tenantId"`
}

// RegisterClassifyTask binds the classification worker. A nil classifier
// means AI is disabled: jobs succeed as no-ops rather than erroring, so the
// queue stays clean when the feature is off.
func RegisterClassifyTask(
	srv qport.Server,
	classifier ai.Classifier,
	conversations repository.ConversationRepository,
	notifier realtime.Notifier,
	log *logrus.Logger,
) {
	srv.Register(ClassifyTaskType, func(ctx context.Context, t qport.Task) error {
		var p ClassifyTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return fmt.Errorf("classify: malformed payload: %v: %w", err, qport.SkipRetry)
		}

		if classifier == nil {
			log.WithField("conversation_id", p.ConversationID).Debug("AI disabled, skipping classify job")
			return nil
		}

		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		verdict, err := classifier.Classify(ctx, p.MessageText)
		if err != nil {
			return err
		}

		if err := conversations.SetAIIntent(ctx, p.TenantID, p.ConversationID, verdict.Intent); err != nil {
			return err
		}

		notifier.Notify(p.TenantID, realtime.EventConversationUpdate, messaging.ConversationUpdateEvent{
			ConversationID: p.ConversationID,
			Update:         map[string]any{"ai_intent": verdict.Intent, "ai_confidence": verdict.Confidence},
		})
		return nil
	})
}
