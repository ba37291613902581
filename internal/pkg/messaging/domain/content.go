package messaging

import "encoding/json"

// Message content kinds as declared by the provider.
const (
	TypeText     = "text"
	TypeImage    = "image"
	TypeVideo    = "video"
	TypeAudio    = "audio"
	TypeDocument = "document"
	TypeLocation = "location"
	TypeReaction = "reaction"
	TypeTemplate = "template"
	TypeUnknown  = "unknown"
)

// Content is the normalized message payload, discriminated by Kind. Exactly
// one variant field is populated. Provider types this platform does not model
// are preserved verbatim under Raw instead of being rejected, so new provider
// message types never break ingestion.
type Content struct {
	Kind     string           `json:"kind"`
	Text     *TextContent     `json:"text,omitempty"`
	Media    *MediaContent    `json:"media,omitempty"`
	Location *LocationContent `json:"location,omitempty"`
	Reaction *ReactionContent `json:"reaction,omitempty"`
	Raw      json.RawMessage  `json:"raw,omitempty"`
}

type TextContent struct {
	Body string `json:"body"`
}

// MediaContent covers image, video, audio and document payloads; the original
// kind is carried by Content.Kind. Filename is set for documents only.
type MediaContent struct {
	MediaID  string  `json:"media_id"`
	MimeType string  `json:"mime_type,omitempty"`
	Caption  *string `json:"caption,omitempty"`
	Filename *string `json:"filename,omitempty"`
}

type LocationContent struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      *string `json:"name,omitempty"`
}

type ReactionContent struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// TextBody returns the textual body of the content, if it has one. Only
// textual content is handed to AI classification.
func (c Content) TextBody() (string, bool) {
	if c.Kind == TypeText && c.Text != nil && c.Text.Body != "" {
		return c.Text.Body, true
	}
	return "", false
}

// NewTextContent builds a free-form text payload.
func NewTextContent(body string) Content {
	return Content{Kind: TypeText, Text: &TextContent{Body: body}}
}

// NormalizeContent maps a provider-shaped webhook message onto the internal
// content model based on its declared type. Unknown types fall back to a raw
// snapshot of the whole provider message.
func NormalizeContent(msg *WebhookMessage) Content {
	switch msg.Type {
	case TypeText:
		body := ""
		if msg.Text != nil {
			body = msg.Text.Body
		}
		return NewTextContent(body)
	case TypeImage:
		return mediaContent(TypeImage, msg.Image, nil)
	case TypeVideo:
		return mediaContent(TypeVideo, msg.Video, nil)
	case TypeAudio:
		return mediaContent(TypeAudio, msg.Audio, nil)
	case TypeDocument:
		var filename *string
		if msg.Document != nil {
			filename = msg.Document.Filename
		}
		var media *WebhookMedia
		if msg.Document != nil {
			media = &msg.Document.WebhookMedia
		}
		return mediaContent(TypeDocument, media, filename)
	case TypeLocation:
		loc := &LocationContent{}
		if msg.Location != nil {
			loc.Latitude = msg.Location.Latitude
			loc.Longitude = msg.Location.Longitude
			loc.Name = msg.Location.Name
		}
		return Content{Kind: TypeLocation, Location: loc}
	case TypeReaction:
		reaction := &ReactionContent{}
		if msg.Reaction != nil {
			reaction.MessageID = msg.Reaction.MessageID
			reaction.Emoji = msg.Reaction.Emoji
		}
		return Content{Kind: TypeReaction, Reaction: reaction}
	default:
		raw, err := json.Marshal(msg)
		if err != nil {
			raw = nil
		}
		return Content{Kind: TypeUnknown, Raw: raw}
	}
}

func mediaContent(kind string, media *WebhookMedia, filename *string) Content {
	mc := &MediaContent{Filename: filename}
	if media != nil {
		mc.MediaID = media.ID
		mc.MimeType = media.MimeType
		mc.Caption = media.Caption
	}
	return Content{Kind: kind, Media: mc}
}
