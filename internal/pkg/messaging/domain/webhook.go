package messaging

// Provider-shaped webhook payload for the WhatsApp Cloud API. The structure is
// nested entry[].changes[].value; each value carries account metadata plus
// optional message and status batches.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string `json:"messaging_product"`
	Metadata         struct {
		DisplayPhoneNumber string `json:"display_phone_number"`
		PhoneNumberID      string `json:"phone_number_id"`
	} `json:"metadata"`
	Contacts []WebhookContact `json:"contacts,omitempty"`
	Messages []WebhookMessage `json:"messages,omitempty"`
	Statuses []WebhookStatus  `json:"statuses,omitempty"`
}

type WebhookContact struct {
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
	WaID string `json:"wa_id"`
}

type WebhookMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`

	Text *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Image    *WebhookMedia    `json:"image,omitempty"`
	Video    *WebhookMedia    `json:"video,omitempty"`
	Audio    *WebhookMedia    `json:"audio,omitempty"`
	Document *WebhookDocument `json:"document,omitempty"`
	Location *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Name      *string `json:"name,omitempty"`
	} `json:"location,omitempty"`
	Reaction *struct {
		MessageID string `json:"message_id"`
		Emoji     string `json:"emoji"`
	} `json:"reaction,omitempty"`
}

type WebhookMedia struct {
	ID       string  `json:"id"`
	MimeType string  `json:"mime_type"`
	SHA256   string  `json:"sha256,omitempty"`
	Caption  *string `json:"caption,omitempty"`
}

type WebhookDocument struct {
	WebhookMedia
	Filename *string `json:"filename,omitempty"`
}

type WebhookStatus struct {
	ID          string        `json:"id"`
	Status      string        `json:"status"`
	Timestamp   string        `json:"timestamp"`
	RecipientID string        `json:"recipient_id"`
	Errors      []StatusError `json:"errors,omitempty"`
}

type StatusError struct {
	Code  int    `json:"code"`
	Title string `json:"title"`
}
