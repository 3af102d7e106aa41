package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrAccountLocked   = errors.New("account locked")
	ErrAccountInactive = errors.New("account inactive")
	ErrTokenExpired    = errors.New("token expired")
	ErrNotRetryable    = errors.New("job not retryable")
	ErrNotCancellable  = errors.New("job not cancellable")
	ErrNotCompleted    = errors.New("job not completed")
	ErrProviderFailure = errors.New("provider failure")
)
