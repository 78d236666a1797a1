package types

import (
	"fmt"
	"strings"
)

// Action can be done on subjects by identities.
// Actions are power of twos, so a rule granting an action set is a single bitwise test.
// Manage is the union of every other action.
type Action uint8

// the closed set of actions
const (
	Read Action = 1 << iota
	Create
	Update
	Delete

	None   Action = 0
	Manage        = Read | Create | Update | Delete
)

var actionNames = map[Action]string{
	Read:   "read",
	Create: "create",
	Update: "update",
	Delete: "delete",
	Manage: "manage",
}

// Actions lists every valid action, manage first
func Actions() []Action {
	return []Action{Manage, Read, Create, Update, Delete}
}

// ParseAction parses the canonical name of an action, case insensitively
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manage":
		return Manage, nil
	case "read":
		return Read, nil
	case "create":
		return Create, nil
	case "update":
		return Update, nil
	case "delete":
		return Delete, nil
	}

	return None, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Valid tells if a is one of the named actions
func (a Action) Valid() bool {
	_, ok := actionNames[a]
	return ok
}

// IsIn tells if all actions in a are members of b: a is subset of b
func (a Action) IsIn(b Action) bool {
	return a|b == b
}

// Includes tells if all actions in b are members of a: a is superset of b
func (a Action) Includes(b Action) bool {
	return b.IsIn(a)
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler
func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (a *Action) UnmarshalText(b []byte) error {
	act, e := ParseAction(string(b))
	if e != nil {
		return e
	}
	*a = act
	return nil
}
