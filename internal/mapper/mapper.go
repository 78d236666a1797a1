// Package mapper translates raw permission rows, in the storage's own vocabulary,
// into rules of the closed action and subject vocabularies.
package mapper

import (
	"strings"

	"github.com/go-logr/logr"
	"github.com/supremind/ability/types"
)

// storage names of subjects, upper cased
var subjects = map[string]types.Subject{
	"ALL":             types.All,
	"USER":            types.User,
	"USERS":           types.User,
	"ITEM":            types.Item,
	"ITEMS":           types.Item,
	"CATEGORY":        types.Category,
	"CATEGORIES":      types.Category,
	"DEPARTMENT":      types.Department,
	"DEPARTMENTS":     types.Department,
	"FLOOR":           types.Floor,
	"FLOORS":          types.Floor,
	"RANK":            types.Rank,
	"RANKS":           types.Rank,
	"STOCK":           types.Stock,
	"STOCKS":          types.Stock,
	"STOCK_MOVEMENT":  types.Stock,
	"STOCK_MOVEMENTS": types.Stock,
	"STATISTIC":       types.Statistics,
	"STATISTICS":      types.Statistics,
	"DASHBOARD":       types.Dashboard,
	"DASHBOARDS":      types.Dashboard,
	"REPORT":          types.Reports,
	"REPORTS":         types.Reports,
}

// storage names of actions, upper cased
var actions = map[string]types.Action{
	"MANAGE": types.Manage,
	"READ":   types.Read,
	"CREATE": types.Create,
	"UPDATE": types.Update,
	"DELETE": types.Delete,
}

// Subject translates a storage subject name
func Subject(name string) (types.Subject, bool) {
	sub, ok := subjects[normalize(name)]
	return sub, ok
}

// Action translates a storage action name
func Action(name string) (types.Action, bool) {
	act, ok := actions[normalize(name)]
	return act, ok
}

func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Map translates raw rows into rules, in order.
// Rows not mapping onto the vocabularies, and rows explicitly denied, are dropped:
// there are no negative rules.
func Map(raws []types.RawRule, l logr.Logger) []types.Rule {
	rules := make([]types.Rule, 0, len(raws))

	for i, raw := range raws {
		if raw.Denied() {
			l.V(6).Info("drop denied row", "index", i, "row", raw)
			continue
		}
		sub, ok := Subject(raw.Subject)
		if !ok {
			l.V(4).Info("drop row of unknown subject", "index", i, "subject", raw.Subject)
			continue
		}
		act, ok := Action(raw.Action)
		if !ok {
			l.V(4).Info("drop row of unknown action", "index", i, "action", raw.Action)
			continue
		}

		rule := types.Rule{Action: act, Subject: sub}
		if field := strings.TrimSpace(raw.Field); field != "" {
			rule.Fields = []string{field}
		}
		rules = append(rules, rule)
	}

	return rules
}
