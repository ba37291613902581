package messaging

import "errors"

// Domain-level errors for the messaging pipeline. Expected outcomes that are
// part of normal control flow (duplicate events, unknown provider ids) are
// NOT errors; they are reported via boolean results at the call sites.
var (
	ErrConversationNotFound = errors.New("messaging: conversation not found")
	ErrContactNotFound      = errors.New("messaging: contact not found")
	ErrAccountNotFound      = errors.New("messaging: channel account not found")
	ErrAccountInactive      = errors.New("messaging: channel account inactive")
	ErrWindowExpired        = errors.New("messaging: 24h reply window expired, use a template message")
	ErrEmptyBody            = errors.New("messaging: message body is required")
)
