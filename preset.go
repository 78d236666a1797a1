package ability

import "github.com/supremind/ability/types"

// GuestRules are given to identities without an authenticated session: reading items
func GuestRules() []types.Rule {
	return []types.Rule{
		{Action: types.Read, Subject: types.Item},
	}
}

// OwnProfile lets everybody read and update their own user record
func OwnProfile(id types.Identity) []types.Rule {
	own := types.Conditions{"id": id}
	return []types.Rule{
		{Action: types.Read, Subject: types.User, Conditions: own},
		{Action: types.Update, Subject: types.User, Conditions: own},
	}
}

// SuperUsers can do any action on anything
func SuperUsers(ids ...types.Identity) types.Preset {
	su := make(map[types.Identity]struct{}, len(ids))
	for _, id := range ids {
		su[id] = struct{}{}
	}

	return func(id types.Identity) []types.Rule {
		if _, ok := su[id]; ok {
			return []types.Rule{{Action: types.Manage, Subject: types.All}}
		}
		return nil
	}
}
