package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	messaging "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/domain"
	repository "github.com/Slim-LARIBI/whatsapp-project/internal/pkg/messaging/persistence/repository/port"
)

type PgContactRepository struct {
	pool *pgxpool.Pool
}

func NewPgContactRepository(pool *pgxpool.Pool) *PgContactRepository {
	return &PgContactRepository{pool: pool}
}

var _ repository.ContactRepository = (*PgContactRepository)(nil)

// UpsertByPhone inserts the contact or merges the patch into the existing row
// in a single statement, so concurrent inbound events for the same phone race
// safely on the (tenant_id, phone) unique constraint. Merging is additive:
// name falls back to the stored value, tags are unioned.
func (r *PgContactRepository) UpsertByPhone(ctx context.Context, tenantID, phone string, patch messaging.ContactPatch) (*messaging.Contact, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgContactRepository: nil pool")
	}
	phone = messaging.NormalizePhone(phone)

	tags := patch.Tags
	if tags == nil {
		tags = []string{}
	}

	var c messaging.Contact
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contacts (tenant_id, phone, name, opt_in_status, tags)
		VALUES ($1::uuid, $2, $3, 'pending', $4)
		ON CONFLICT (tenant_id, phone)
		DO UPDATE SET name = COALESCE(EXCLUDED.name, contacts.name),
		              tags = ARRAY(SELECT DISTINCT unnest(contacts.tags || EXCLUDED.tags)),
		              updated_at = now()
		RETURNING id::text, tenant_id::text, phone, name, opt_in_status, tags, created_at, updated_at
	`, tenantID, phone, patch.Name, tags).Scan(
		&c.ID, &c.TenantID, &c.Phone, &c.Name, &c.OptInStatus, &c.Tags, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetPhone resolves the stored phone number for a contact id.
func (r *PgContactRepository) GetPhone(ctx context.Context, tenantID, contactID string) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgContactRepository: nil pool")
	}

	var phone string
	err := r.pool.QueryRow(ctx, `
		SELECT phone FROM contacts
		WHERE tenant_id = $1::uuid AND id = $2::uuid
	`, tenantID, contactID).Scan(&phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", messaging.ErrContactNotFound
		}
		return "", err
	}
	return phone, nil
}
