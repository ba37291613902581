package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	qport "github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/queue/port"
	"github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/realtime"
	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/application/task"
	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
	repository "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/persistence/repository/port"
)

// SendAgentReplyInput carries an agent's reply into a conversation. Either
// Body (free-form text, window-gated) or Template must be set.
type SendAgentReplyInput struct {
	TenantID       string
	ConversationID string
	AgentID        string
	Body           string
	Template       *task.TemplateRef
}

// SendAgentReplyOutput reports the queued ledger row.
type SendAgentReplyOutput struct {
	MessageID string
}

// SendAgentReplyUseCase appends an outbound message with status=queued and
// hands actual transmission to the dispatch worker. The 24h window is checked
// here for fast agent feedback AND re-checked by the worker at send time;
// this check alone would go stale while the job waits in queue.
type SendAgentReplyUseCase struct {
	Conversations repository.ConversationRepository
	Messages      repository.MessageRepository
	Queue         qport.Client
	Notifier      realtime.Notifier

	// LookupPhone resolves the recipient phone for a contact id. Kept as a
	// narrow func dependency: the full contact read surface lives outside
	// this core.
	LookupPhone func(ctx context.Context, tenantID, contactID string) (string, error)
}

func NewSendAgentReplyUseCase(
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	queue qport.Client,
	notifier realtime.Notifier,
	lookupPhone func(ctx context.Context, tenantID, contactID string) (string, error),
) *SendAgentReplyUseCase {
	return &SendAgentReplyUseCase{
		Conversations: conversations,
		Messages:      messages,
		Queue:         queue,
		Notifier:      notifier,
		LookupPhone:   lookupPhone,
	}
}

// Execute validates the reply and enqueues it for dispatch.
//
// Returns messaging.ErrConversationNotFound, messaging.ErrEmptyBody or
// messaging.ErrWindowExpired for the caller to map onto a specific rejection;
// a window-expired free-form reply appends nothing and enqueues nothing.
func (uc *SendAgentReplyUseCase) Execute(ctx context.Context, in SendAgentReplyInput) (*SendAgentReplyOutput, error) {
	isTemplate := in.Template != nil
	body := strings.TrimSpace(in.Body)
	if !isTemplate && body == "" {
		return nil, messaging.ErrEmptyBody
	}

	convo, err := uc.Conversations.FindByID(ctx, in.TenantID, in.ConversationID)
	if err != nil {
		return nil, err
	}

	if !isTemplate && !messaging.CanSendFreeform(convo.LastInboundAt, time.Now()) {
		return nil, messaging.ErrWindowExpired
	}

	to, err := uc.LookupPhone(ctx, in.TenantID, convo.ContactID)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve recipient: %v", ErrPersistence, err)
	}

	msgType := messaging.TypeText
	content := messaging.NewTextContent(body)
	if isTemplate {
		msgType = messaging.TypeTemplate
		raw, _ := json.Marshal(in.Template)
		content = messaging.Content{Kind: messaging.TypeTemplate, Raw: raw}
	}

	agentID := in.AgentID
	stored, err := uc.Messages.AppendOutbound(ctx, messaging.Message{
		TenantID:       in.TenantID,
		ConversationID: convo.ID,
		ContactID:      &convo.ContactID,
		SenderID:       &agentID,
		Type:           msgType,
		Content:        content,
		Status:         messaging.StatusQueued,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: append outbound: %v", ErrPersistence, err)
	}

	payload, err := json.Marshal(task.SendMessageTaskPayload{
		TenantID:       in.TenantID,
		ConversationID: convo.ID,
		AccountID:      convo.AccountID,
		To:             to,
		Body:           body,
		Template:       in.Template,
		MessageID:      stored.ID,
	})
	if err != nil {
		return nil, err
	}
	if _, err := uc.Queue.Enqueue(ctx, qport.Task{Type: task.SendMessageTaskType, Payload: payload},
		qport.EnqueueOption{Queue: task.SendMessageTaskType}); err != nil {
		return nil, fmt.Errorf("enqueue send: %w", err)
	}

	now := time.Now().UTC()
	if err := uc.Conversations.TouchOutbound(ctx, in.TenantID, convo.ID, now); err != nil {
		return nil, fmt.Errorf("%w: touch outbound: %v", ErrPersistence, err)
	}

	uc.Notifier.Notify(in.TenantID, realtime.EventConversationUpdate, messaging.ConversationUpdateEvent{
		ConversationID: convo.ID,
		Update:         map[string]any{"last_message_at": now},
	})

	return &SendAgentReplyOutput{MessageID: stored.ID}, nil
}
