package token

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"remoteevents/internal/domain"
)

func TestJWTCodec_RoundTrip(t *testing.T) {
	codec := NewJWTCodec("test-secret")

	token, err := codec.Encode(domain.TokenEntityParticipant, "pt-123", domain.TokenUsageUpdate, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	id, err := codec.Decode(domain.TokenEntityParticipant, token, domain.TokenUsageUpdate)
	require.NoError(t, err)
	assert.Equal(t, "pt-123", id)
}

func TestJWTCodec_Decode(t *testing.T) {
	codec := NewJWTCodec("test-secret")
	token, err := codec.Encode(domain.TokenEntityParticipant, "pt-123", domain.TokenUsageCancel, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		entity string
		token  string
		usage  string
	}{
		{name: "wrong usage", entity: domain.TokenEntityParticipant, token: token, usage: domain.TokenUsageUpdate},
		{name: "wrong entity", entity: domain.TokenEntityContact, token: token, usage: domain.TokenUsageCancel},
		{name: "garbage token", entity: domain.TokenEntityParticipant, token: "not-a-token", usage: domain.TokenUsageCancel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := codec.Decode(tt.entity, tt.token, tt.usage)
			require.True(t, errors.Is(err, domain.ErrInvalidToken))
			assert.Empty(t, id)
		})
	}

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTCodec("other-secret")
		id, err := other.Decode(domain.TokenEntityParticipant, token, domain.TokenUsageCancel)
		require.True(t, errors.Is(err, domain.ErrInvalidToken))
		assert.Empty(t, id)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := codec.Encode(domain.TokenEntityParticipant, "pt-123", domain.TokenUsageCancel, -time.Minute)
		require.NoError(t, err)
		id, err := codec.Decode(domain.TokenEntityParticipant, expired, domain.TokenUsageCancel)
		require.True(t, errors.Is(err, domain.ErrInvalidToken))
		assert.Empty(t, id)
	})
}
