package messaging

import "time"

// ChannelAccount is one provisioned WhatsApp sending/receiving identity of a
// tenant. Immutable for the purposes of the ingestion pipeline; lifecycle is
// managed elsewhere.
type ChannelAccount struct {
	ID            string    `db:"id"`
	TenantID      string    `db:"tenant_id"`
	PhoneNumberID string    `db:"phone_number_id"`
	WABAID        string    `db:"waba_id"`
	DisplayPhone  string    `db:"display_phone"`
	AccessToken   string    `db:"access_token"`
	Active        bool      `db:"active"`
	CreatedAt     time.Time `db:"created_at"`
}
