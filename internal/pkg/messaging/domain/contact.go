package messaging

import (
	"strings"
	"time"
)

// Contact is a customer identity, unique per (tenant, normalized phone).
type Contact struct {
	ID          string     `db:"id"`
	TenantID    string     `db:"tenant_id"`
	Phone       string     `db:"phone"`
	Name        *string    `db:"name"`
	OptInStatus string     `db:"opt_in_status"`
	Tags        []string   `db:"tags"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// ContactPatch carries optional fields for an upsert-by-phone. Nil fields are
// left untouched on an existing row; Tags are merged, never replaced.
type ContactPatch struct {
	Name *string
	Tags []string
}

// NormalizePhone reduces a phone number to +digits. Good enough for the
// provider, which always reports E.164 without the plus.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	return "+" + digits
}
