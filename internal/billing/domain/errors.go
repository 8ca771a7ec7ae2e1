package domain

import "errors"

var (
	// ErrSubscriptionNotFound indicates no subscription record exists for the user.
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrInvalidTransition indicates an invalid plan/status transition was attempted.
	ErrInvalidTransition = errors.New("invalid subscription transition")

	// ErrUnknownBillingEvent indicates a webhook event type this engine does not handle.
	ErrUnknownBillingEvent = errors.New("unknown billing event type")
)
