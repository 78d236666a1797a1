// Package testdata holds permission rows of a small warehouse staff shared by tests
package testdata

import "github.com/supremind/ability/types"

// staff identities
const (
	Admin       types.Identity = 1
	Storekeeper types.Identity = 2
	Auditor     types.Identity = 3
	Clerk       types.Identity = 4
	Newcomer    types.Identity = 5
)

var allow, deny = true, false

// RawRules are the rows of the permissions view, by identity
var RawRules = map[types.Identity][]types.RawRule{
	Admin: {
		{Subject: "ALL", Action: "MANAGE", Access: &allow},
	},
	Storekeeper: {
		{Subject: "ITEMS", Action: "MANAGE", Access: &allow},
		{Subject: "STOCK_MOVEMENTS", Action: "CREATE", Access: &allow},
		{Subject: "STOCK_MOVEMENTS", Action: "READ", Access: &allow},
		{Subject: "FLOORS", Action: "READ"},
		{Subject: "USERS", Action: "MANAGE", Access: &deny},
	},
	Auditor: {
		{Subject: "ALL", Action: "READ"},
		{Subject: "REPORTS", Action: "CREATE"},
		{Subject: "USERS", Action: "UPDATE", Field: "password", Access: &deny},
	},
	Clerk: {
		{Subject: "ITEMS", Action: "READ", Access: &allow},
		{Subject: "ITEMS", Action: "UPDATE", Field: "quantity", Access: &allow},
		{Subject: "WIDGETS", Action: "READ", Access: &allow},
		{Subject: "DEPARTMENTS", Action: "APPROVE", Access: &allow},
	},
	Newcomer: {},
}

// Rules are what the mapper makes of RawRules
var Rules = map[types.Identity][]types.Rule{
	Admin: {
		{Action: types.Manage, Subject: types.All},
	},
	Storekeeper: {
		{Action: types.Manage, Subject: types.Item},
		{Action: types.Create, Subject: types.Stock},
		{Action: types.Read, Subject: types.Stock},
		{Action: types.Read, Subject: types.Floor},
	},
	Auditor: {
		{Action: types.Read, Subject: types.All},
		{Action: types.Create, Subject: types.Reports},
	},
	Clerk: {
		{Action: types.Read, Subject: types.Item},
		{Action: types.Update, Subject: types.Item, Fields: []string{"quantity"}},
	},
	Newcomer: {},
}
