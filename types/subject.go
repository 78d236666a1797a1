package types

import (
	"fmt"
	"strings"
)

// Subject is a domain noun rules are granted on.
// Subject is a closed set, values outside of it are never granted anything.
type Subject string

// the closed set of subjects
const (
	// All matches every subject
	All        Subject = "all"
	User       Subject = "User"
	Item       Subject = "Item"
	Category   Subject = "Category"
	Department Subject = "Department"
	Floor      Subject = "Floor"
	Rank       Subject = "Rank"
	// Stock is a stock movement
	Stock      Subject = "Stock"
	Statistics Subject = "Statistics"
	Dashboard  Subject = "Dashboard"
	Reports    Subject = "Reports"
)

// Subjects lists every valid subject, the wildcard first
func Subjects() []Subject {
	return []Subject{All, User, Item, Category, Department, Floor, Rank, Stock, Statistics, Dashboard, Reports}
}

// ParseSubject parses the canonical name of a subject, case insensitively
func ParseSubject(s string) (Subject, error) {
	name := strings.TrimSpace(s)
	for _, sub := range Subjects() {
		if strings.EqualFold(string(sub), name) {
			return sub, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownSubject, s)
}

// Valid tells if s is one of the named subjects
func (s Subject) Valid() bool {
	switch s {
	case All, User, Item, Category, Department, Floor, Rank, Stock, Statistics, Dashboard, Reports:
		return true
	}
	return false
}

func (s Subject) String() string {
	return string(s)
}

// MarshalText implements encoding.TextMarshaler
func (s Subject) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSubject, string(s))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Subject) UnmarshalText(b []byte) error {
	sub, e := ParseSubject(string(b))
	if e != nil {
		return e
	}
	*s = sub
	return nil
}
