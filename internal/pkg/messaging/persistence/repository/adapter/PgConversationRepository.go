package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
	repository "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/persistence/repository/port"
)

const pgUniqueViolation = "23505"

type PgConversationRepository struct {
	pool *pgxpool.Pool
}

func NewPgConversationRepository(pool *pgxpool.Pool) *PgConversationRepository {
	return &PgConversationRepository{pool: pool}
}

var _ repository.ConversationRepository = (*PgConversationRepository)(nil)

const conversationColumns = `
	id::text, tenant_id::text, contact_id::text, wa_account_id::text,
	assigned_to::text, status, last_message_at, last_inbound_at,
	unread_count, ai_intent, ai_summary, closed_at, created_at, updated_at`

func (r *PgConversationRepository) FindOrCreateOpen(ctx context.Context, tenantID, contactID, accountID string) (*messaging.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}

	convo, err := r.findOpen(ctx, tenantID, contactID, accountID)
	if err == nil {
		return convo, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO conversations (tenant_id, contact_id, wa_account_id, status)
		VALUES ($1::uuid, $2::uuid, $3::uuid, 'open')
		RETURNING `+conversationColumns,
		tenantID, contactID, accountID)
	convo, err = scanConversation(row)
	if err == nil {
		return convo, nil
	}

	// A concurrent inbound event won the insert race; the partial unique
	// index on the open triple is the source of truth, so re-read.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return r.findOpen(ctx, tenantID, contactID, accountID)
	}
	return nil, err
}

func (r *PgConversationRepository) findOpen(ctx context.Context, tenantID, contactID, accountID string) (*messaging.Conversation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE tenant_id = $1::uuid AND contact_id = $2::uuid AND wa_account_id = $3::uuid AND status = 'open'`,
		tenantID, contactID, accountID)
	return scanConversation(row)
}

func (r *PgConversationRepository) FindByID(ctx context.Context, tenantID, id string) (*messaging.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgConversationRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE id = $1::uuid AND tenant_id = $2::uuid`,
		id, tenantID)
	convo, err := scanConversation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, messaging.ErrConversationNotFound
	}
	return convo, err
}

func (r *PgConversationRepository) Assign(ctx context.Context, tenantID, id string, agentID *string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgConversationRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE conversations
		SET assigned_to = $3::uuid, updated_at = now()
		WHERE id = $1::uuid AND tenant_id = $2::uuid`,
		id, tenantID, agentID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return messaging.ErrConversationNotFound
	}
	return nil
}

func (r *PgConversationRepository) UpdateStatus(ctx context.Context, tenantID, id string, status messaging.ConversationStatus) error {
	if r == nil || r.pool == nil {
		return errors.New("PgConversationRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE conversations
		SET status = $3,
		    closed_at = CASE WHEN $3 = 'closed' THEN now() ELSE NULL END,
		    updated_at = now()
		WHERE id = $1::uuid AND tenant_id = $2::uuid`,
		id, tenantID, string(status))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return messaging.ErrConversationNotFound
	}
	return nil
}

func (r *PgConversationRepository) TouchInbound(ctx context.Context, tenantID, id string, at time.Time) error {
	if r == nil || r.pool == nil {
		return errors.New("PgConversationRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE conversations
		SET status = 'open',
		    closed_at = NULL,
		    last_inbound_at = $3,
		    last_message_at = $3,
		    unread_count = unread_count + 1,
		    updated_at = now()
		WHERE id = $1::uuid AND tenant_id = $2::uuid`,
		id, tenantID, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return messaging.ErrConversationNotFound
	}
	return nil
}

func (r *PgConversationRepository) TouchOutbound(ctx context.Context, tenantID, id string, at time.Time) error {
	if r == nil || r.pool == nil {
		return errors.New("PgConversationRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE conversations
		SET last_message_at = $3, updated_at = now()
		WHERE id = $1::uuid AND tenant_id = $2::uuid`,
		id, tenantID, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return messaging.ErrConversationNotFound
	}
	return nil
}

func (r *PgConversationRepository) SetAIIntent(ctx context.Context, tenantID, id, intent string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgConversationRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE conversations
		SET ai_intent = $3, updated_at = now()
		WHERE id = $1::uuid AND tenant_id = $2::uuid`,
		id, tenantID, intent)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return messaging.ErrConversationNotFound
	}
	return nil
}

func scanConversation(row pgx.Row) (*messaging.Conversation, error) {
	var c messaging.Conversation
	err := row.Scan(
		&c.ID, &c.TenantID, &c.ContactID, &c.AccountID,
		&c.AssignedTo, &c.Status, &c.LastMessageAt, &c.LastInboundAt,
		&c.UnreadCount, &c.AIIntent, &c.AISummary, &c.ClosedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
