package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	qport "github.com/Slim-LARIBI/whatsapp-project/internal/infrastructure/queue/port"
	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
)

var errBrokerDown = errors.New("broker unavailable")

// In-memory collaborators for use case tests. They cover the single happy
// path plus the specific failure the test injects; anything else panics so a
// test never silently exercises an unplanned path.

type fakeAccounts struct {
	byPhoneNumberID map[string]*messaging.ChannelAccount
}

func (f *fakeAccounts) GetByPhoneNumberID(ctx context.Context, phoneNumberID string) (*messaging.ChannelAccount, error) {
	if a, ok := f.byPhoneNumberID[phoneNumberID]; ok {
		return a, nil
	}
	return nil, messaging.ErrAccountNotFound
}

func (f *fakeAccounts) Get(ctx context.Context, tenantID, id string) (*messaging.ChannelAccount, error) {
	for _, a := range f.byPhoneNumberID {
		if a.ID == id && a.TenantID == tenantID {
			return a, nil
		}
	}
	return nil, messaging.ErrAccountNotFound
}

type fakeContacts struct {
	byPhone map[string]*messaging.Contact
	upserts int
}

func (f *fakeContacts) UpsertByPhone(ctx context.Context, tenantID, phone string, patch messaging.ContactPatch) (*messaging.Contact, error) {
	f.upserts++
	phone = messaging.NormalizePhone(phone)
	if f.byPhone == nil {
		f.byPhone = make(map[string]*messaging.Contact)
	}
	c, ok := f.byPhone[phone]
	if !ok {
		c = &messaging.Contact{
			ID:       fmt.Sprintf("contact-%d", len(f.byPhone)+1),
			TenantID: tenantID,
			Phone:    phone,
			Tags:     []string{},
		}
		f.byPhone[phone] = c
	}
	if patch.Name != nil {
		c.Name = patch.Name
	}
	return c, nil
}

func (f *fakeContacts) GetPhone(ctx context.Context, tenantID, contactID string) (string, error) {
	for _, c := range f.byPhone {
		if c.ID == contactID {
			return c.Phone, nil
		}
	}
	return "", messaging.ErrContactNotFound
}

type fakeConversations struct {
	byID map[string]*messaging.Conversation

	creates        int
	inboundTouches []time.Time
	outboundTouch  int
	intents        map[string]string
}

func (f *fakeConversations) FindOrCreateOpen(ctx context.Context, tenantID, contactID, accountID string) (*messaging.Conversation, error) {
	for _, c := range f.byID {
		if c.TenantID == tenantID && c.ContactID == contactID && c.AccountID == accountID && c.Status == messaging.ConversationOpen {
			return c, nil
		}
	}
	f.creates++
	if f.byID == nil {
		f.byID = make(map[string]*messaging.Conversation)
	}
	c := &messaging.Conversation{
		ID:        fmt.Sprintf("convo-%d", len(f.byID)+1),
		TenantID:  tenantID,
		ContactID: contactID,
		AccountID: accountID,
		Status:    messaging.ConversationOpen,
	}
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeConversations) FindByID(ctx context.Context, tenantID, id string) (*messaging.Conversation, error) {
	if c, ok := f.byID[id]; ok && c.TenantID == tenantID {
		return c, nil
	}
	return nil, messaging.ErrConversationNotFound
}

func (f *fakeConversations) Assign(ctx context.Context, tenantID, id string, agentID *string) error {
	c, ok := f.byID[id]
	if !ok || c.TenantID != tenantID {
		return messaging.ErrConversationNotFound
	}
	c.AssignedTo = agentID
	return nil
}

func (f *fakeConversations) UpdateStatus(ctx context.Context, tenantID, id string, status messaging.ConversationStatus) error {
	c, ok := f.byID[id]
	if !ok || c.TenantID != tenantID {
		return messaging.ErrConversationNotFound
	}
	c.Status = status
	return nil
}

func (f *fakeConversations) TouchInbound(ctx context.Context, tenantID, id string, at time.Time) error {
	c, ok := f.byID[id]
	if !ok {
		return messaging.ErrConversationNotFound
	}
	c.Status = messaging.ConversationOpen
	c.LastMessageAt = &at
	c.LastInboundAt = &at
	c.UnreadCount++
	f.inboundTouches = append(f.inboundTouches, at)
	return nil
}

func (f *fakeConversations) TouchOutbound(ctx context.Context, tenantID, id string, at time.Time) error {
	c, ok := f.byID[id]
	if !ok {
		return messaging.ErrConversationNotFound
	}
	c.LastMessageAt = &at
	f.outboundTouch++
	return nil
}

func (f *fakeConversations) SetAIIntent(ctx context.Context, tenantID, id, intent string) error {
	if f.intents == nil {
		f.intents = make(map[string]string)
	}
	f.intents[id] = intent
	return nil
}

type fakeMessages struct {
	appended []*messaging.Message

	sent   map[string]string // internal id -> provider id
	failed map[string]string // internal id -> error title

	byProviderID map[string]*messaging.Message
	statusErr    error
}

func (f *fakeMessages) AppendInbound(ctx context.Context, m messaging.Message) (*messaging.Message, error) {
	m.Direction = messaging.DirectionInbound
	return f.append(m), nil
}

func (f *fakeMessages) AppendOutbound(ctx context.Context, m messaging.Message) (*messaging.Message, error) {
	m.Direction = messaging.DirectionOutbound
	return f.append(m), nil
}

func (f *fakeMessages) append(m messaging.Message) *messaging.Message {
	m.ID = fmt.Sprintf("msg-%d", len(f.appended)+1)
	stored := &m
	f.appended = append(f.appended, stored)
	if m.ProviderMessageID != nil {
		if f.byProviderID == nil {
			f.byProviderID = make(map[string]*messaging.Message)
		}
		f.byProviderID[*m.ProviderMessageID] = stored
	}
	return stored
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
	if f.statusErr != nil {
		return false, f.statusErr
	}
	m, ok := f.byProviderID[providerMessageID]
	if !ok {
		return false, nil
	}
	m.Status = status
	m.ErrorCode = errCode
	m.ErrorTitle = errTitle
	return true, nil
}

type enqueued struct {
	Type    string
	Payload []byte
	Queue   string
}

type fakeQueue struct {
	mu       sync.Mutex
	tasks    []enqueued
	err      error
	failType string // when set, only this task type fails
}

func (f *fakeQueue) Enqueue(ctx context.Context, t qport.Task, opts ...qport.EnqueueOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil && (f.failType == "" || f.failType == t.Type) {
		return "", f.err
	}
	q := ""
	if len(opts) > 0 {
		q = opts[0].Queue
	}
	f.tasks = append(f.tasks, enqueued{Type: t.Type, Payload: t.Payload, Queue: q})
	return fmt.Sprintf("task-%d", len(f.tasks)), nil
}

func (f *fakeQueue) Close() error { return nil }

func (f *fakeQueue) ofType(taskType string) []enqueued {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []enqueued
	for _, t := range f.tasks {
		if t.Type == taskType {
			out = append(out, t)
		}
	}
	return out
}

type notified struct {
	TenantID string
	Kind     string
	Payload  any
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notified
}

func (f *fakeNotifier) Notify(tenantID, kind string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, notified{TenantID: tenantID, Kind: kind, Payload: payload})
}

func (f *fakeNotifier) ofKind(kind string) []notified {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []notified
	for _, e := range f.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// memCache is the minimal atomic set-if-absent store behind event admission.
type memCache struct {
	mu   sync.Mutex
	keys map[string]struct{}
	err  error
}

func newMemCache() *memCache { return &memCache{keys: make(map[string]struct{})} }

func (m *memCache) Get(ctx context.Context, key string) (string, error) { return "", nil }
func (m *memCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}

func (m *memCache) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = struct{}{}
	return true, nil
}

func (m *memCache) Del(ctx context.Context, keys ...string) (int64, error) { return 0, nil }
func (m *memCache) Ping(ctx context.Context) error                         { return nil }
func (m *memCache) Close() error                                           { return nil }
