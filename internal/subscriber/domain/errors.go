package domain

import "errors"

var (
	ErrNotFound      = errors.New("not_found")
	ErrInvalidEmail  = errors.New("invalid_email")
	ErrEmailTaken    = errors.New("email_taken")
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidFields = errors.New("invalid_fields")
)
