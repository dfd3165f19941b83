package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrNoResults       = errors.New("no valid results returned from AI service")
	ErrGatewayFailure  = errors.New("gateway failure")
	ErrSigningFailure  = errors.New("signing failure")
)
