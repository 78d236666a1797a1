// Package provider keeps the ability of the signed in identity on the client side.
//
// The ability is compiled from the rules payload the server serves, and rebuilt only when
// that payload changes. It is handed down explicitly through contexts.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"

	"github.com/go-logr/logr"
	"github.com/supremind/ability"
	"github.com/supremind/ability/types"
)

// Provider holds the current ability, it is safe for concurrent use
type Provider struct {
	payload []byte
	ab      types.Ability
	opts    []ability.CompileOption
	log     logr.Logger
	sync.RWMutex
}

// Option configures a Provider
type Option func(*Provider)

// WithCompileOptions sets how rules payloads are compiled
func WithCompileOptions(opts ...ability.CompileOption) Option {
	return func(p *Provider) {
		p.opts = append(p.opts, opts...)
	}
}

// WithLogger sets logger for the provider
func WithLogger(l logr.Logger) Option {
	return func(p *Provider) {
		p.log = l
	}
}

// New creates a provider, its ability denies everything until rules are set
func New(opts ...Option) *Provider {
	p := &Provider{log: logr.Discard()}
	for _, opt := range opts {
		opt(p)
	}
	p.ab = ability.Compile(nil, p.opts...)
	return p
}

// Ability returns the current ability
func (p *Provider) Ability() types.Ability {
	p.RLock()
	defer p.RUnlock()
	return p.ab
}

// Can tells if the current ability permits act on sub, the way route guards check
func (p *Provider) Can(act types.Action, sub types.Subject) bool {
	return ability.Permitted(p.Ability(), act, sub)
}

// Set compiles rules into the current ability, unless they are the rules it was built from.
// It tells if the ability was rebuilt.
func (p *Provider) Set(rules []types.Rule) (bool, error) {
	payload, e := json.Marshal(rules)
	if e != nil {
		return false, e
	}
	return p.set(payload, rules), nil
}

// SetPayload decodes a rules payload and compiles it, unless it did not change
func (p *Provider) SetPayload(payload []byte) (bool, error) {
	var rules []types.Rule
	if e := json.Unmarshal(payload, &rules); e != nil {
		return false, e
	}

	// the canonical form, so formatting changes do not rebuild
	canonical, e := json.Marshal(rules)
	if e != nil {
		return false, e
	}
	return p.set(canonical, rules), nil
}

func (p *Provider) set(payload []byte, rules []types.Rule) bool {
	p.Lock()
	defer p.Unlock()

	if p.payload != nil && bytes.Equal(p.payload, payload) {
		p.log.V(6).Info("rules unchanged")
		return false
	}

	p.payload = payload
	p.ab = ability.Compile(rules, p.opts...)
	p.log.V(4).Info("ability rebuilt", "rules", len(rules))
	return true
}

// Reset drops the rules, as when the identity signs out
func (p *Provider) Reset() {
	p.Lock()
	defer p.Unlock()

	p.payload = nil
	p.ab = ability.Compile(nil, p.opts...)
}

type providerKey struct{}

// NewContext returns a context carrying p
func NewContext(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, providerKey{}, p)
}

// FromContext returns the provider carried by ctx
func FromContext(ctx context.Context) (*Provider, bool) {
	p, ok := ctx.Value(providerKey{}).(*Provider)
	return p, ok
}
