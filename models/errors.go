package models

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidState  = errors.New("invalid state")
	ErrValidation    = errors.New("validation failed")
	ErrUpstream      = errors.New("upstream provider failure")
	ErrDuplicateVote = errors.New("duplicate vote")
)
