package types

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Rule grants an action on a subject, optionally restricted to some fields of it
// and to instances matching the conditions.
// Rules are data: they are cloned when compiled and never changed afterwards.
type Rule struct {
	Action  Action  `json:"action" yaml:"action"`
	Subject Subject `json:"subject" yaml:"subject"`
	// Fields nil means the whole subject, an empty but non-nil list grants nothing
	Fields []string `json:"fields,omitempty" yaml:"fields,omitempty"`
	// Conditions nil means the rule is unconditional
	Conditions Conditions `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// Validate checks action and subject are drawn from the closed vocabularies
func (r Rule) Validate() error {
	if !r.Action.Valid() {
		return fmt.Errorf("%w: %w: %d", ErrMalformedRule, ErrUnknownAction, uint8(r.Action))
	}
	if !r.Subject.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrMalformedRule, ErrUnknownSubject, string(r.Subject))
	}
	return nil
}

// Clone returns a deep enough copy of r, sharing nothing mutable with it
func (r Rule) Clone() Rule {
	c := Rule{Action: r.Action, Subject: r.Subject}
	if r.Fields != nil {
		c.Fields = append(make([]string, 0, len(r.Fields)), r.Fields...)
	}
	if r.Conditions != nil {
		c.Conditions = make(Conditions, len(r.Conditions))
		for k, v := range r.Conditions {
			c.Conditions[k] = v
		}
	}
	return c
}

type ruleJSON struct {
	Action     Action     `json:"action"`
	Subject    Subject    `json:"subject"`
	Fields     *[]string  `json:"fields,omitempty"`
	Conditions Conditions `json:"conditions,omitempty"`
}

// MarshalJSON keeps an empty field list in the payload, it must not become an unrestricted rule
func (r Rule) MarshalJSON() ([]byte, error) {
	j := ruleJSON{Action: r.Action, Subject: r.Subject, Conditions: r.Conditions}
	if r.Fields != nil {
		fields := r.Fields
		j.Fields = &fields
	}
	return json.Marshal(j)
}

func (r Rule) String() string {
	var b strings.Builder
	b.WriteString(r.Action.String())
	b.WriteByte(' ')
	b.WriteString(r.Subject.String())
	if r.Fields != nil {
		b.WriteString(" [")
		b.WriteString(strings.Join(r.Fields, ","))
		b.WriteByte(']')
	}
	if len(r.Conditions) > 0 {
		fmt.Fprintf(&b, " if %v", map[string]interface{}(r.Conditions))
	}
	return b.String()
}

// Attributes are the field values of a subject instance conditions are evaluated against
type Attributes map[string]interface{}

// Conditions is a conjunction of field equality predicates
type Conditions map[string]interface{}

// Match tells if every condition holds on attrs.
// Numbers are compared by value, whatever their Go type is.
func (c Conditions) Match(attrs Attributes) bool {
	for k, want := range c {
		got, ok := attrs[k]
		if !ok {
			return false
		}
		if !equalValues(want, got) {
			return false
		}
	}
	return true
}

func equalValues(a, b interface{}) bool {
	na, ok := asNumber(a)
	if !ok {
		return reflect.DeepEqual(a, b)
	}
	nb, ok := asNumber(b)
	if !ok {
		return false
	}
	return na.equal(nb)
}

// number keeps integers exact, floats only come from decoded payloads
type number struct {
	kind reflect.Kind // Int64, Uint64 or Float64
	i    int64
	u    uint64
	f    float64
}

func asNumber(v interface{}) (number, bool) {
	if v == nil {
		return number{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{kind: reflect.Int64, i: rv.Int()}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return number{kind: reflect.Uint64, u: rv.Uint()}, true
	case reflect.Float32, reflect.Float64:
		return number{kind: reflect.Float64, f: rv.Float()}, true
	}
	return number{}, false
}

func (n number) equal(m number) bool {
	if n.kind == reflect.Float64 && m.kind != reflect.Float64 {
		return m.equal(n)
	}

	switch n.kind {
	case reflect.Int64:
		switch m.kind {
		case reflect.Int64:
			return n.i == m.i
		case reflect.Uint64:
			return n.i >= 0 && uint64(n.i) == m.u
		}
	case reflect.Uint64:
		switch m.kind {
		case reflect.Int64:
			return m.i >= 0 && uint64(m.i) == n.u
		case reflect.Uint64:
			return n.u == m.u
		}
	case reflect.Float64:
		return n.f == m.f
	}

	// an integer against a float: equal only if the float is that exact integer
	f := m.f
	if f != math.Trunc(f) {
		return false
	}
	if n.kind == reflect.Int64 {
		return f >= -(1<<63) && f < 1<<63 && int64(f) == n.i
	}
	return f >= 0 && f < 1<<64 && uint64(f) == n.u
}
