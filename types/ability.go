package types

import "context"

// Ability answers authorization questions for exactly one identity.
// It is built from a rule list and never changes afterwards; queries never fail,
// anything not explicitly granted is denied.
type Ability interface {
	// Can tells if act is granted on sub, on any instance or field of it
	Can(act Action, sub Subject) bool

	// CanField tells if act is granted on field of sub
	CanField(act Action, sub Subject, field string) bool

	// CanOn tells if act is granted on the instance of sub described by attrs
	CanOn(act Action, sub Subject, attrs Attributes) bool

	// Rules returns a copy of the rules the ability was built from, in order
	Rules() []Rule
}

// Authorizer is the top level interface for end use.
// It loads the rules of an identity and compiles them into an Ability.
type Authorizer interface {
	// Rules loads the valid rules of an identity, guests never touch the rule source
	Rules(ctx context.Context, id Identity) ([]Rule, error)

	// Ability loads rules of an identity and compiles them
	Ability(ctx context.Context, id Identity) (Ability, error)
}
