package service

import "errors"

// Sentinel errors shared by the session and config managers so transports
// can map them with errors.Is.
var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrConfigNotFound       = errors.New("configuration not found")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrInvalidAction        = errors.New("invalid edit action")
)
