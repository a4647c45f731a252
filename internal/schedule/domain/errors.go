package domain

import "errors"

var (
	ErrInvalidRange           = errors.New("invalid_range")
	ErrMalformedConfig        = errors.New("malformed_config")
	ErrUnresolvedUserSchedule = errors.New("unresolved_user_schedule")
)
