package service

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password, so login failures never reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidResetToken is returned for unknown, expired, or already
	// consumed password-reset tokens.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)
