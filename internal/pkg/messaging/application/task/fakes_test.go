package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/bus"
	qport "github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/queue/port"
	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/ai"
	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
	"github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/transport"
)

var errBackendDown = errors.New("backend unavailable")

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeServer captures registered handlers so tests can invoke them directly.
type fakeServer struct {
	handlers map[string]qport.Handler
}

func newFakeServer() *fakeServer {
	return &fakeServer{handlers: make(map[string]qport.Handler)}
}

func (f *fakeServer) Register(taskType string, h qport.Handler) {
	f.handlers[taskType] = h
}

func (f *fakeServer) Run(ctx context.Context) error  { return nil }
func (f *fakeServer) Stop(ctx context.Context) error { return nil }

func (f *fakeServer) handle(taskType string, payload []byte) error {
	h, ok := f.handlers[taskType]
	if !ok {
		return fmt.Errorf("no handler registered for %q", taskType)
	}
	return h(context.Background(), qport.Task{Type: taskType, Payload: payload})
}

type fakeAccounts struct {
	accounts map[string]*messaging.ChannelAccount // by id
}

func (f *fakeAccounts) GetByPhoneNumberID(ctx context.Context, phoneNumberID string) (*messaging.ChannelAccount, error) {
	for _, a := range f.accounts {
		if a.PhoneNumberID == phoneNumberID {
			return a, nil
		}
	}
	return nil, messaging.ErrAccountNotFound
}

func (f *fakeAccounts) Get(ctx context.Context, tenantID, id string) (*messaging.ChannelAccount, error) {
	if a, ok := f.accounts[id]; ok && a.TenantID == tenantID {
		return a, nil
	}
	return nil, messaging.ErrAccountNotFound
}

type fakeConversations struct {
	byID    map[string]*messaging.Conversation
	intents map[string]string
}

func (f *fakeConversations) FindOrCreateOpen(ctx context.Context, tenantID, contactID, accountID string) (*messaging.Conversation, error) {
	panic("not used")
}

func (f *fakeConversations) FindByID(ctx context.Context, tenantID, id string) (*messaging.Conversation, error) {
	if c, ok := f.byID[id]; ok {
		return c, nil
	}
	return nil, messaging.ErrConversationNotFound
}

func (f *fakeConversations) Assign(ctx context.Context, tenantID, id string, agentID *string) error {
	panic("not used")
}

func (f *fakeConversations) UpdateStatus(ctx context.Context, tenantID, id string, status messaging.ConversationStatus) error {
	panic("not used")
}

func (f *fakeConversations) TouchInbound(ctx context.Context, tenantID, id string, at time.Time) error {
	panic("not used")
}

func (f *fakeConversations) TouchOutbound(ctx context.Context, tenantID, id string, at time.Time) error {
	panic("not used")
}

func (f *fakeConversations) SetAIIntent(ctx context.Context, tenantID, id, intent string) error {
	if f.intents == nil {
		f.intents = make(map[string]string)
	}
	f.intents[id] = intent
	return nil
}

type fakeMessages struct {
	sent   map[string]string // internal id -> provider id
	failed map[string]string // internal id -> error title
}

func (f *fakeMessages) AppendInbound(ctx context.Context, m messaging.Message) (*messaging.Message, error) {
	panic("not used")
}

func (f *fakeMessages) AppendOutbound(ctx context.Context, m messaging.Message) (*messaging.Message, error) {
	panic("not used")
}

func (f *fakeMessages) MarkSent(ctx context.Context, tenantID, id, providerMessageID string) error {
	if f.sent == nil {
		f.sent = make(map[string]string)
	}
	f.sent[id] = providerMessageID
	return nil
}

func (f *fakeMessages) MarkFailed(ctx context.Context, tenantID, id string, errCode *int, errTitle *string) error {
	if f.failed == nil {
		f.failed = make(map[string]string)
	}
	title := ""
	if errTitle != nil {
		title = *errTitle
	}
	f.failed[id] = title
	return nil
}

func (f *fakeMessages) UpdateStatusByProviderID(ctx context.Context, tenantID, providerMessageID string, status messaging.MessageStatus, errCode *int, errTitle *string) (bool, error) {
	panic("not used")
}

type sentCall struct {
	To   string
	Body string
	Tmpl string
}

type fakeTransport struct {
	calls  []sentCall
	result transport.SendResult
	err    error
}

func (f *fakeTransport) SendText(ctx context.Context, account *messaging.ChannelAccount, to, body string) (transport.SendResult, error) {
	f.calls = append(f.calls, sentCall{To: to, Body: body})
	return f.result, f.err
}

func (f *fakeTransport) SendTemplate(ctx context.Context, account *messaging.ChannelAccount, to, name, language string, components []transport.TemplateComponent) (transport.SendResult, error) {
	f.calls = append(f.calls, sentCall{To: to, Tmpl: name})
	return f.result, f.err
}

type notified struct {
	TenantID string
	Kind     string
	Payload  any
}

type fakeNotifier struct {
	events []notified
}

func (f *fakeNotifier) Notify(tenantID, kind string, payload any) {
	f.events = append(f.events, notified{TenantID: tenantID, Kind: kind, Payload: payload})
}

type fakeClassifier struct {
	verdict ai.Classification
	err     error
	calls   int
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (ai.Classification, error) {
	f.calls++
	return f.verdict, f.err
}

type published struct {
	Key      string
	Envelope bus.Envelope
}

type fakePublisher struct {
	published []published
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, key string, msg bus.Envelope) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, published{Key: key, Envelope: msg})
	return nil
}

func (f *fakePublisher) Close() error { return nil }
