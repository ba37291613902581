package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
	repository "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/persistence/repository/port"
)

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

var _ repository.MessageRepository = (*PgMessageRepository)(nil)

func (r *PgMessageRepository) AppendInbound(ctx context.Context, m messaging.Message) (*messaging.Message, error) {
	m.Direction = messaging.DirectionInbound
	return r.append(ctx, m)
}

func (r *PgMessageRepository) AppendOutbound(ctx context.Context, m messaging.Message) (*messaging.Message, error) {
	m.Direction = messaging.DirectionOutbound
	return r.append(ctx, m)
}

func (r *PgMessageRepository) append(ctx context.Context, m messaging.Message) (*messaging.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessageRepository: nil pool")
	}
	content, err := json.Marshal(m.Content)
	if err != nil {
		return nil, fmt.Errorf("message content: %w", err)
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO messages (
			tenant_id, conversation_id, contact_id, sender_id,
			wa_message_id, direction, type, content, status
		) VALUES ($1::uuid, $2::uuid, $3::uuid, $4::uuid, $5, $6, $7, $8::jsonb, $9)
		RETURNING id::text, created_at, updated_at
	`, m.TenantID, m.ConversationID, m.ContactID, m.SenderID,
		m.ProviderMessageID, string(m.Direction), m.Type, content, string(m.Status),
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PgMessageRepository) MarkSent(ctx context.Context, tenantID, id, providerMessageID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgMessageRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET status = 'sent', wa_message_id = $3, error_code = NULL, error_message = NULL, updated_at = now()
		WHERE id = $1::uuid AND tenant_id = $2::uuid`,
		id, tenantID, providerMessageID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("messages: no row with id %s", id)
	}
	return nil
}

func (r *PgMessageRepository) MarkFailed(ctx context.Context, tenantID, id string, errCode *int, errTitle *string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgMessageRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET status = 'failed', error_code = $3, error_message = $4, updated_at = now()
		WHERE id = $1::uuid AND tenant_id = $2::uuid`,
		id, tenantID, errCode, errTitle)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("messages: no row with id %s", id)
	}
	return nil
}

func (r *PgMessageRepository) UpdateStatusByProviderID(ctx context.Context, tenantID, providerMessageID string, status messaging.MessageStatus, errCode *int, errTitle *string) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errors.New("PgMessageRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET status = $3, error_code = $4, error_message = $5, updated_at = now()
		WHERE tenant_id = $1::uuid AND wa_message_id = $2`,
		tenantID, providerMessageID, string(status), errCode, errTitle)
	if err != nil {
		return false, err
	}
	// Zero rows is expected when a callback outruns the send job's ledger
	// update or references a message we never stored.
	return ct.RowsAffected() > 0, nil
}
