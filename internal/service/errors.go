package service

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrPolicyViolation   = errors.New("policy violation")
	ErrDeliveryFailure   = errors.New("delivery failure")
)
