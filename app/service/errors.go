package service

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrBadSignature    = errors.New("invalid webhook signature")
	ErrRequestConflict = errors.New("request id replayed with a different payload")
)
