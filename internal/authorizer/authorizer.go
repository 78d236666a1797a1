package authorizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/supremind/ability/internal/ability"
	"github.com/supremind/ability/internal/mapper"
	"github.com/supremind/ability/types"
)

var _ types.Authorizer = (*authorizer)(nil)

type authorizer struct {
	src     types.RuleSource
	guest   []types.Rule
	presets []types.Preset
	opts    []ability.Option
	l       logr.Logger
}

// New creates an authorizer loading rules from src.
// Guests are given the guest rules, presets are added to the rules of every other identity.
func New(src types.RuleSource, guest []types.Rule, l logr.Logger, opts []ability.Option, presets ...types.Preset) types.Authorizer {
	return &authorizer{
		src:     src,
		guest:   guest,
		presets: presets,
		opts:    append([]ability.Option{ability.WithLogger(l.WithName("ability"))}, opts...),
		l:       l,
	}
}

// Rules loads the valid rules of an identity
func (a *authorizer) Rules(ctx context.Context, id types.Identity) ([]types.Rule, error) {
	a.l.V(4).Info("load rules", "identity", id)

	if !id.Valid() {
		return nil, fmt.Errorf("%w: %d", types.ErrUnknownIdentity, int64(id))
	}

	if id.IsGuest() {
		rules := make([]types.Rule, 0, len(a.guest))
		for _, r := range a.guest {
			rules = append(rules, r.Clone())
		}
		return rules, nil
	}

	if a.src == nil {
		return nil, fmt.Errorf("%w: %w", types.ErrRuleSourceUnavailable, types.ErrNoRuleSource)
	}

	raws, e := a.src.RawRules(ctx, id)
	if e != nil {
		a.l.Error(e, "load raw rules", "identity", id)
		if !errors.Is(e, types.ErrRuleSourceUnavailable) {
			e = fmt.Errorf("%w: %w", types.ErrRuleSourceUnavailable, e)
		}
		return nil, e
	}

	rules := mapper.Map(raws, a.l.WithName("mapper"))
	for _, preset := range a.presets {
		rules = append(rules, preset(id)...)
	}
	a.l.V(4).Info("rules loaded", "identity", id, "rows", len(raws), "rules", len(rules))

	return rules, nil
}

// Ability loads rules of an identity and compiles them,
// no ability is built when the rules could not be loaded
func (a *authorizer) Ability(ctx context.Context, id types.Identity) (types.Ability, error) {
	rules, e := a.Rules(ctx, id)
	if e != nil {
		return nil, e
	}
	return ability.New(rules, a.opts...), nil
}
