package connection

import "errors"

var (
	ErrConnectionFailed     = errors.New("failed to connect external account")
	ErrProviderNotConnected = errors.New("provider is not connected")
	ErrInvalidProvider      = errors.New("provider must be linkedin or github")
	ErrProviderDisabled     = errors.New("provider is not configured")
	ErrInvalidOAuthState    = errors.New("invalid or expired oauth state")
)
