package types

import "errors"

// exported errors
var (
	ErrRuleSourceUnavailable = errors.New("rule source unavailable")
	ErrUnknownIdentity       = errors.New("unknown identity")
	ErrUnknownAction         = errors.New("unknown action")
	ErrUnknownSubject        = errors.New("unknown subject")
	ErrMalformedRule         = errors.New("malformed rule")
	ErrNoRuleSource          = errors.New("rule source is not configured")
)
