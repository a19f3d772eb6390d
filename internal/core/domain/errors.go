package domain

import "errors"

var (
	// ErrInvalidToken indicates a session token is malformed or its signature does not verify.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrExpiredToken indicates a session token whose expiry has passed.
	ErrExpiredToken = errors.New("session token expired")
)
