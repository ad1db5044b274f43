package services

import "errors"

// Errors returned by the matching core. Handlers map them to HTTP statuses;
// "no more candidates" and idempotent repeats are not errors.
var (
	ErrUnauthorized  = errors.New("actor is not allowed to perform this action")
	ErrQuotaExceeded = errors.New("daily invite limit reached")
	ErrInvalidState  = errors.New("invite is not in the required state")
	ErrNotFound      = errors.New("not found")
	ErrIneligible    = errors.New("target is outside the actor's candidate pool")
)

// Validation errors.
var (
	ErrSelfInvite     = errors.New("cannot invite yourself")
	ErrSelfSkip       = errors.New("cannot skip yourself")
	ErrInvalidInput   = errors.New("invalid input")
	ErrImmutableField = errors.New("gender and organization cannot be changed")
)
