package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
	repository "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/persistence/repository/port"
)

type PgAccountRepository struct {
	pool *pgxpool.Pool
}

func NewPgAccountRepository(pool *pgxpool.Pool) *PgAccountRepository {
	return &PgAccountRepository{pool: pool}
}

var _ repository.AccountRepository = (*PgAccountRepository)(nil)

const accountColumns = `
	id::text, tenant_id::text, phone_number_id, waba_id, display_phone, access_token, active, created_at`

func (r *PgAccountRepository) GetByPhoneNumberID(ctx context.Context, phoneNumberID string) (*messaging.ChannelAccount, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgAccountRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM wa_accounts
		WHERE phone_number_id = $1`,
		phoneNumberID)
	return scanAccount(row)
}

func (r *PgAccountRepository) Get(ctx context.Context, tenantID, id string) (*messaging.ChannelAccount, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgAccountRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM wa_accounts
		WHERE id = $1::uuid AND tenant_id = $2::uuid`,
		id, tenantID)
	return scanAccount(row)
}

func scanAccount(row pgx.Row) (*messaging.ChannelAccount, error) {
	var a messaging.ChannelAccount
	err := row.Scan(
		&a.ID, &a.TenantID, &a.PhoneNumberID, &a.WABAID,
		&a.DisplayPhone, &a.AccessToken, &a.Active, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, messaging.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
