package types

import "context"

// RawRule is a permission row as stored externally, in the storage's own vocabulary
type RawRule struct {
	Subject string `json:"subject" yaml:"subject"`
	Action  string `json:"action" yaml:"action"`
	// Field is empty when the row is not restricted to a field
	Field string `json:"field,omitempty" yaml:"field,omitempty"`
	// Access is nil when the row carries no access flag, false is an explicit deny
	Access *bool `json:"access,omitempty" yaml:"access,omitempty"`
}

// Denied tells if the row carries an explicit deny flag
func (r RawRule) Denied() bool {
	return r.Access != nil && !*r.Access
}

// RuleSource loads the raw permission rows of an identity from an external storage.
// An identity without permissions yields an empty list and no error,
// a storage failure yields an error wrapping ErrRuleSourceUnavailable.
type RuleSource interface {
	RawRules(ctx context.Context, id Identity) ([]RawRule, error)
}

// RuleSourceFunc adapts a function to a RuleSource
type RuleSourceFunc func(ctx context.Context, id Identity) ([]RawRule, error)

// RawRules calls f
func (f RuleSourceFunc) RawRules(ctx context.Context, id Identity) ([]RawRule, error) {
	return f(ctx, id)
}

// Preset derives extra rules for an authenticated identity
type Preset func(id Identity) []Rule
