package services

import "errors"

// ErrNotConfigured is returned when a provider has no credentials.
var ErrNotConfigured = errors.New("provider not configured")
