package ability

import (
	"github.com/go-logr/logr"
	"github.com/supremind/ability/types"
)

var _ types.Ability = (*ability)(nil)

// grant is a compiled rule
type grant struct {
	act    types.Action
	fields []string
	conds  types.Conditions
}

// ability knows only direct subject-action grants, indexed by subject
type ability struct {
	rules     []types.Rule
	bySubject map[types.Subject][]grant
	strict    bool
	log       logr.Logger
}

// Option controls how rules are compiled
type Option func(*ability)

// WithStrictFields makes field queries check the field is listed by the rule.
// Without it any rule restricted to a non empty field list allows every field.
func WithStrictFields() Option {
	return func(a *ability) {
		a.strict = true
	}
}

// WithLogger sets logger for the compiled ability
func WithLogger(l logr.Logger) Option {
	return func(a *ability) {
		a.log = l
	}
}

// New compiles rules into an ability.
// Rules outside of the vocabularies are discarded, rules are cloned so the ability never changes afterwards.
func New(rules []types.Rule, opts ...Option) types.Ability {
	a := &ability{
		rules:     make([]types.Rule, 0, len(rules)),
		bySubject: make(map[types.Subject][]grant),
		log:       logr.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}

	for _, r := range rules {
		if e := r.Validate(); e != nil {
			a.log.V(4).Info("discard rule", "rule", r, "reason", e.Error())
			continue
		}

		r = r.Clone()
		a.rules = append(a.rules, r)
		a.permit(r)
	}

	return a
}

func (a *ability) permit(r types.Rule) {
	// an empty field list restricts the rule to nothing
	if r.Fields != nil && len(r.Fields) == 0 {
		return
	}

	a.bySubject[r.Subject] = append(a.bySubject[r.Subject], grant{
		act:    r.Action,
		fields: r.Fields,
		conds:  r.Conditions,
	})
}

// Can tells if act is granted on sub, on any instance or field of it
func (a *ability) Can(act types.Action, sub types.Subject) bool {
	return a.match(act, sub, func(grant) bool { return true })
}

// CanField tells if act is granted on field of sub
func (a *ability) CanField(act types.Action, sub types.Subject, field string) bool {
	return a.match(act, sub, func(g grant) bool { return a.fieldAllowed(g, field) })
}

// CanOn tells if act is granted on the instance of sub described by attrs
func (a *ability) CanOn(act types.Action, sub types.Subject, attrs types.Attributes) bool {
	return a.match(act, sub, func(g grant) bool { return g.conds == nil || g.conds.Match(attrs) })
}

// Rules returns a copy of the rules the ability was built from
func (a *ability) Rules() []types.Rule {
	rules := make([]types.Rule, 0, len(a.rules))
	for _, r := range a.rules {
		rules = append(rules, r.Clone())
	}
	return rules
}

func (a *ability) match(act types.Action, sub types.Subject, allowed func(grant) bool) bool {
	if !act.Valid() || !sub.Valid() {
		return false
	}

	for _, s := range [2]types.Subject{sub, types.All} {
		for _, g := range a.bySubject[s] {
			if g.act.Includes(act) && allowed(g) {
				a.log.V(6).Info("granted", "action", act, "subject", sub, "by", s)
				return true
			}
		}
		if sub == types.All {
			break
		}
	}

	return false
}

func (a *ability) fieldAllowed(g grant, field string) bool {
	if g.fields == nil || field == "" {
		return true
	}
	if !a.strict {
		return len(g.fields) > 0
	}
	for _, f := range g.fields {
		if f == field {
			return true
		}
	}
	return false
}
