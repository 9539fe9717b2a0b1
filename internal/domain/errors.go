package domain

import "errors"

// Sentinel errors shared across services and repositories.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrNoContact     = errors.New("no contact could be identified")
	ErrEventRequired = errors.New("event could not be determined")
)
