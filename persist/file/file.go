// Package file reads rules and raw permission rows from yaml files
package file

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/supremind/ability/types"
)

// RulesFile is a list of rules in the closed vocabularies, like the guest rules
//
//	rules:
//	  - action: read
//	    subject: Item
type RulesFile struct {
	Rules []types.Rule `yaml:"rules"`
}

// LoadRules reads a rules file. Unlike rows from storage, a rule out of the vocabularies is an error.
func LoadRules(path string) ([]types.Rule, error) {
	data, e := os.ReadFile(path)
	if e != nil {
		return nil, fmt.Errorf("read rules file: %w", e)
	}

	var f RulesFile
	if e := yaml.Unmarshal(data, &f); e != nil {
		return nil, fmt.Errorf("%w: parse rules file %s: %w", types.ErrMalformedRule, path, e)
	}
	for i, r := range f.Rules {
		if e := r.Validate(); e != nil {
			return nil, fmt.Errorf("rule %d of %s: %w", i, path, e)
		}
	}
	if f.Rules == nil {
		f.Rules = make([]types.Rule, 0)
	}

	return f.Rules, nil
}

// RowsFile holds raw permission rows by identity, in the storage vocabulary
//
//	identities:
//	  2:
//	    - {subject: ITEMS, action: MANAGE}
//	    - {subject: USERS, action: MANAGE, access: false}
type RowsFile struct {
	Identities map[types.Identity][]types.RawRule `yaml:"identities"`
}

var _ types.RuleSource = (*RuleSource)(nil)

// RuleSource serves raw rows read once from a rows file
type RuleSource struct {
	rows map[types.Identity][]types.RawRule
}

// NewRuleSource reads a rows file
func NewRuleSource(path string) (*RuleSource, error) {
	data, e := os.ReadFile(path)
	if e != nil {
		return nil, fmt.Errorf("read rows file: %w", e)
	}

	var f RowsFile
	if e := yaml.Unmarshal(data, &f); e != nil {
		return nil, fmt.Errorf("parse rows file %s: %w", path, e)
	}
	if f.Identities == nil {
		f.Identities = make(map[types.Identity][]types.RawRule)
	}

	return &RuleSource{rows: f.Identities}, nil
}

// RawRules returns a copy of the rows of id
func (s *RuleSource) RawRules(_ context.Context, id types.Identity) ([]types.RawRule, error) {
	return append(make([]types.RawRule, 0, len(s.rows[id])), s.rows[id]...), nil
}
