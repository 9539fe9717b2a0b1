package domain

import "time"

// Token usages. A token is only valid for the usage it was issued with.
const (
	TokenUsageInvite = "invite"
	TokenUsageUpdate = "update"
	TokenUsageCancel = "cancel"
)

// Token entity kinds.
const (
	TokenEntityParticipant = "participant"
	TokenEntityContact     = "contact"
)

// TokenCodec encodes and decodes signed, usage-scoped tokens that resolve
// to an entity id without a login. Decoding with the wrong entity or usage
// must fail.
type TokenCodec interface {
	Encode(entity, id, usage string, ttl time.Duration) (string, error)
	Decode(entity, token, usage string) (id string, err error)
}
