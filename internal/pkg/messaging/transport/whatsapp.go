// Package transport wraps the WhatsApp Cloud API send surface. Errors carry
// the provider's detail so the dispatch worker can record them on the ledger;
// whether to retry is the job queue's decision, not this package's.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
)

// SendResult carries the identifier the provider assigned to the message; all
// later status callbacks correlate by it.
type SendResult struct {
	ProviderMessageID string
}

// TemplateComponent is the provider-shaped component list for template sends.
type TemplateComponent map[string]any

// Transport is the outbound send collaborator.
type Transport interface {
	SendText(ctx context.Context, account *messaging.ChannelAccount, to, body string) (SendResult, error)
	SendTemplate(ctx context.Context, account *messaging.ChannelAccount, to, name, language string, components []TemplateComponent) (SendResult, error)
}

// Error is a failed provider call. StatusCode is zero for network failures.
type Error struct {
	StatusCode int
	Code       int
	Detail     string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("whatsapp transport: %s", e.Detail)
	}
	return fmt.Sprintf("whatsapp transport: status %d: %s", e.StatusCode, e.Detail)
}

// GraphClient talks to the WhatsApp Cloud (Graph) API.
type GraphClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGraphClient constructs a client. An empty baseURL falls back to the
// production Graph endpoint; a nil httpClient gets a 20s-timeout default.
func NewGraphClient(baseURL string, httpClient *http.Client) *GraphClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v21.0"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &GraphClient{baseURL: baseURL, httpClient: httpClient}
}

var _ Transport = (*GraphClient)(nil)

func (c *GraphClient) SendText(ctx context.Context, account *messaging.ChannelAccount, to, body string) (SendResult, error) {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": body},
	}
	return c.send(ctx, account, payload)
}

func (c *GraphClient) SendTemplate(ctx context.Context, account *messaging.ChannelAccount, to, name, language string, components []TemplateComponent) (SendResult, error) {
	template := map[string]any{
		"name":     name,
		"language": map[string]string{"code": language},
	}
	if len(components) > 0 {
		template["components"] = components
	}
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template":          template,
	}
	return c.send(ctx, account, payload)
}

func (c *GraphClient) send(ctx context.Context, account *messaging.ChannelAccount, payload map[string]any) (SendResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return SendResult{}, &Error{Detail: err.Error()}
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, account.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return SendResult{}, &Error{Detail: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+account.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return SendResult{}, &Error{Detail: err.Error()}
	}
	defer res.Body.Close()

	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
		Err *struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	// A body that fails to decode on a success status is still a failure: the
	// provider message id would be lost and the callback unmatchable.
	decodeErr := json.NewDecoder(res.Body).Decode(&parsed)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		detail := "unknown"
		code := 0
		if parsed.Err != nil {
			detail = parsed.Err.Message
			code = parsed.Err.Code
		}
		return SendResult{}, &Error{StatusCode: res.StatusCode, Code: code, Detail: detail}
	}
	if decodeErr != nil {
		return SendResult{}, &Error{StatusCode: res.StatusCode, Detail: "malformed response: " + decodeErr.Error()}
	}
	if len(parsed.Messages) == 0 || parsed.Messages[0].ID == "" {
		return SendResult{}, &Error{StatusCode: res.StatusCode, Detail: "response missing message id"}
	}
	return SendResult{ProviderMessageID: parsed.Messages[0].ID}, nil
}
