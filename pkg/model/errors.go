package model

import "errors"

// Error taxonomy shared by stores, managers and session handlers. Callers
// match with errors.Is; wrapped variants carry operation context.
var (
	// ErrNotFound signals a referenced button, content item or admin is
	// absent. Most call sites treat it as a defensive no-op.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput signals input that cannot be interpreted, such as a
	// non-numeric, non-forwarded identity during admin addition.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized signals a non-admin attempting an editor action. It is
	// logged but never surfaced to the end user.
	ErrUnauthorized = errors.New("unauthorized")
)
