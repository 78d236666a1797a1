package ability

import "github.com/supremind/ability/types"

// errors callers tell apart
var (
	ErrRuleSourceUnavailable = types.ErrRuleSourceUnavailable
	ErrUnknownIdentity       = types.ErrUnknownIdentity
	ErrNoRuleSource          = types.ErrNoRuleSource
)
