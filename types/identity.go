package types

import (
	"fmt"
	"strconv"
)

// Identity is the id of a user rules are loaded for
type Identity int64

// Guest is the identity of requests without an authenticated session
const Guest Identity = 0

// ParseIdentity parses a decimal user id, an empty string is the guest
func ParseIdentity(s string) (Identity, error) {
	if s == "" {
		return Guest, nil
	}
	n, e := strconv.ParseInt(s, 10, 64)
	if e != nil || n < 0 {
		return Guest, fmt.Errorf("%w: %q", ErrUnknownIdentity, s)
	}
	return Identity(n), nil
}

// IsGuest tells if id is the guest sentinel
func (id Identity) IsGuest() bool {
	return id == Guest
}

// Valid tells if id is the guest or a positive user id
func (id Identity) Valid() bool {
	return id >= 0
}

func (id Identity) String() string {
	if id.IsGuest() {
		return "guest"
	}
	return "user:" + strconv.FormatInt(int64(id), 10)
}
