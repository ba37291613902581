package messaging

// Realtime event payloads pushed to connected inbox observers. Kinds are
// defined by the realtime hub; these are their data shapes.

type NewMessageEvent struct {
	ConversationID string   `json:"conversation_id"`
	Message        *Message `json:"message"`
}

type ConversationUpdateEvent struct {
	ConversationID string         `json:"conversation_id"`
	Update         map[string]any `json:"update"`
}

// MessageStatusEvent correlates by provider message id, matching what status
// callbacks carry.
type MessageStatusEvent struct {
	ProviderMessageID string        `json:"message_id"`
	Status            MessageStatus `json:"status"`
}
