// Package ability decides what an identity may do in the warehouse.
//
// Rules are loaded per identity from a RuleSource, translated from the storage vocabulary,
// and compiled into an Ability answering Can queries. Route guards and clients compiling the
// same rules get the same answers.
package ability

import (
	"context"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	internal "github.com/supremind/ability/internal/ability"
	"github.com/supremind/ability/internal/authorizer"
	"github.com/supremind/ability/types"
)

// New creates an Authorizer
func New(ctx context.Context, opts ...AuthorizerOption) (types.Authorizer, error) {
	cfg := &AuthorizerConfig{guest: GuestRules()}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.log == nil {
		l := stdr.New(log.New(os.Stderr, "", log.LstdFlags|log.Lshortfile))
		cfg.log = &l
	}
	if cfg.src == nil {
		return nil, types.ErrNoRuleSource
	}

	var abilityOpts []internal.Option
	if cfg.strict {
		abilityOpts = append(abilityOpts, internal.WithStrictFields())
	}

	cfg.log.V(4).Info("authorizer created", "guest rules", len(cfg.guest), "presets", len(cfg.presets), "strict fields", cfg.strict)

	return authorizer.New(cfg.src, cfg.guest, cfg.log.WithName("authorizer"), abilityOpts, cfg.presets...), nil
}

// Compile builds an Ability from rules, the way authorizers do.
// Clients use it on the rules payload served to them.
func Compile(rules []types.Rule, opts ...CompileOption) types.Ability {
	cfg := &compileConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var abilityOpts []internal.Option
	if cfg.strict {
		abilityOpts = append(abilityOpts, internal.WithStrictFields())
	}
	if cfg.log != nil {
		abilityOpts = append(abilityOpts, internal.WithLogger(*cfg.log))
	}

	return internal.New(rules, abilityOpts...)
}

// Permitted is the check guards make before serving a protected resource:
// managing everything, the exact action, or managing the subject.
func Permitted(ab types.Ability, act types.Action, sub types.Subject) bool {
	if ab == nil {
		return false
	}
	return ab.Can(types.Manage, types.All) || ab.Can(act, sub) || ab.Can(types.Manage, sub)
}

// WithRuleSource sets where rules of authenticated identities are loaded from
func WithRuleSource(src types.RuleSource) AuthorizerOption {
	return func(cfg *AuthorizerConfig) {
		cfg.src = src
	}
}

// WithGuestRules replaces the rules given to guests
func WithGuestRules(rules ...types.Rule) AuthorizerOption {
	return func(cfg *AuthorizerConfig) {
		cfg.guest = rules
	}
}

// WithPresets adds preset rules to every authenticated identity
func WithPresets(presets ...types.Preset) AuthorizerOption {
	return func(cfg *AuthorizerConfig) {
		cfg.presets = append(cfg.presets, presets...)
	}
}

// WithStrictFields makes field queries check the field is listed by the rule
func WithStrictFields() AuthorizerOption {
	return func(cfg *AuthorizerConfig) {
		cfg.strict = true
	}
}

// WithLogger sets logger for ability components
func WithLogger(l logr.Logger) AuthorizerOption {
	return func(cfg *AuthorizerConfig) {
		cfg.log = &l
	}
}

// AuthorizerConfig works together with AuthorizerOption to control the initialization of authorizer
type AuthorizerConfig struct {
	src     types.RuleSource
	guest   []types.Rule
	presets []types.Preset
	strict  bool
	log     *logr.Logger
}

// AuthorizerOption controls how to init an authorizer
type AuthorizerOption func(*AuthorizerConfig)

type compileConfig struct {
	strict bool
	log    *logr.Logger
}

// CompileOption controls how rules are compiled
type CompileOption func(*compileConfig)

// StrictFields makes field queries of the compiled ability check the field is listed by the rule
func StrictFields() CompileOption {
	return func(cfg *compileConfig) {
		cfg.strict = true
	}
}

// CompileLogger sets logger for the compiled ability
func CompileLogger(l logr.Logger) CompileOption {
	return func(cfg *compileConfig) {
		cfg.log = &l
	}
}
