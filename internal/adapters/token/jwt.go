package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"remoteevents/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Entity string `json:"entity"`
	Usage  string `json:"usage"`
}

type jwtCodec struct {
	secret []byte
}

// NewJWTCodec returns a TokenCodec that signs HS256 JWTs with the given
// secret. Each token carries the entity kind and usage it was issued for;
// decoding with a different entity or usage fails.
func NewJWTCodec(secret string) domain.TokenCodec {
	return &jwtCodec{secret: []byte(secret)}
}

func (c *jwtCodec) Encode(entity, id, usage string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Entity: entity,
		Usage:  usage,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (c *jwtCodec) Decode(entity, tokenString, usage string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return "", domain.ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return "", domain.ErrInvalidToken
	}
	if claims.Entity != entity || claims.Usage != usage || claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}
