package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/supremind/ability/types"
)

var _ types.RuleSource = (*RuleSource)(nil)

// RuleSource keeps raw rows in memory, it should not be used in real works
type RuleSource struct {
	rows  map[types.Identity][]types.RawRule
	fail  error
	calls int
	sync.RWMutex
}

// NewRuleSource returns a fake rule source serving the given rows
func NewRuleSource(rows map[types.Identity][]types.RawRule) *RuleSource {
	s := &RuleSource{rows: make(map[types.Identity][]types.RawRule, len(rows))}
	for id, rs := range rows {
		s.rows[id] = append([]types.RawRule(nil), rs...)
	}
	return s
}

// Insert appends a row to the rows of id
func (s *RuleSource) Insert(id types.Identity, row types.RawRule) {
	s.Lock()
	defer s.Unlock()
	s.rows[id] = append(s.rows[id], row)
}

// Remove drops all rows of id
func (s *RuleSource) Remove(id types.Identity) {
	s.Lock()
	defer s.Unlock()
	delete(s.rows, id)
}

// Fail makes every following load fail with e, a nil e recovers
func (s *RuleSource) Fail(e error) {
	s.Lock()
	defer s.Unlock()
	s.fail = e
}

// Calls counts loads, failed ones included
func (s *RuleSource) Calls() int {
	s.RLock()
	defer s.RUnlock()
	return s.calls
}

// RawRules returns a copy of the rows of id
func (s *RuleSource) RawRules(_ context.Context, id types.Identity) ([]types.RawRule, error) {
	s.Lock()
	defer s.Unlock()

	s.calls++
	if s.fail != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrRuleSourceUnavailable, s.fail)
	}
	return append(make([]types.RawRule, 0, len(s.rows[id])), s.rows[id]...), nil
}
