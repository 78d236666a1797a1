package ability

import (
	"context"
	"errors"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	"github.com/supremind/ability/internal/testdata"
	"github.com/supremind/ability/persist/fake"
	"github.com/supremind/ability/types"
)

var _ = Describe("authorizer", func() {
	ctx := context.Background()
	allow, deny := true, false

	var (
		src   *fake.RuleSource
		authz types.Authorizer
	)

	BeforeEach(func() {
		src = fake.NewRuleSource(testdata.RawRules)
		var e error
		authz, e = New(ctx, WithRuleSource(src), WithLogger(logr.Discard()))
		Expect(e).To(Succeed())
	})

	It("needs a rule source", func() {
		_, e := New(ctx)
		Expect(errors.Is(e, ErrNoRuleSource)).To(BeTrue())
	})

	It("maps rows of an identity into rules and compiles them", func() {
		src.Insert(types.Identity(10), types.RawRule{Subject: "ITEMS", Action: "READ", Access: &allow})
		src.Insert(types.Identity(10), types.RawRule{Subject: "USERS", Action: "MANAGE", Access: &deny})

		Expect(authz.Rules(ctx, types.Identity(10))).To(Equal([]types.Rule{{Action: types.Read, Subject: types.Item}}))

		ab, e := authz.Ability(ctx, types.Identity(10))
		Expect(e).To(Succeed())
		Expect(ab).To(grant(types.Item, types.Read))
		Expect(ab).NotTo(grant(types.Item, types.Update))
		Expect(ab).NotTo(grant(types.User, types.Manage))
	})

	Context("guests", func() {
		It("are given the guest rules without touching the source", func() {
			ab, e := authz.Ability(ctx, types.Guest)
			Expect(e).To(Succeed())
			Expect(ab.Rules()).To(Equal(GuestRules()))
			Expect(ab).To(grant(types.Item, types.Read))
			Expect(ab).To(denyAll(types.Item, types.Create, types.Update, types.Delete, types.Manage))
			Expect(ab).To(denyAll(types.User, types.Read))
			Expect(src.Calls()).To(BeZero())
		})

		It("are given the guest rules while the source is down", func() {
			src.Fail(errors.New("connection refused"))
			ab, e := authz.Ability(ctx, types.Guest)
			Expect(e).To(Succeed())
			Expect(ab).To(grant(types.Item, types.Read))
		})

		It("can be given other rules", func() {
			a, e := New(ctx, WithRuleSource(src), WithGuestRules(types.Rule{Action: types.Read, Subject: types.Floor}))
			Expect(e).To(Succeed())
			ab, _ := a.Ability(ctx, types.Guest)
			Expect(ab).To(grant(types.Floor, types.Read))
			Expect(ab).NotTo(grant(types.Item, types.Read))
		})

		It("cannot change the guest rules through loaded rules", func() {
			rules, _ := authz.Rules(ctx, types.Guest)
			rules[0].Action = types.Manage
			Expect(authz.Rules(ctx, types.Guest)).To(Equal(GuestRules()))
		})
	})

	It("tells no permissions from unavailable permissions", func() {
		rules, e := authz.Rules(ctx, testdata.Newcomer)
		Expect(e).To(Succeed())
		Expect(rules).To(BeEmpty())

		src.Fail(errors.New("connection refused"))
		ab, e := authz.Ability(ctx, testdata.Admin)
		Expect(errors.Is(e, ErrRuleSourceUnavailable)).To(BeTrue())
		Expect(ab).To(BeNil())
		Expect(Permitted(ab, types.Read, types.Item)).To(BeFalse())
	})

	It("wraps foreign source errors as unavailable", func() {
		a, e := New(ctx, WithRuleSource(types.RuleSourceFunc(func(context.Context, types.Identity) ([]types.RawRule, error) {
			return nil, context.DeadlineExceeded
		})))
		Expect(e).To(Succeed())

		_, e = a.Ability(ctx, testdata.Admin)
		Expect(errors.Is(e, ErrRuleSourceUnavailable)).To(BeTrue())
		Expect(errors.Is(e, context.DeadlineExceeded)).To(BeTrue())
	})

	It("rejects negative identities", func() {
		_, e := authz.Ability(ctx, types.Identity(-3))
		Expect(errors.Is(e, ErrUnknownIdentity)).To(BeTrue())
		Expect(src.Calls()).To(BeZero())
	})

	It("reloads rules on every build", func() {
		before, _ := authz.Ability(ctx, testdata.Clerk)
		src.Insert(testdata.Clerk, types.RawRule{Subject: "RANKS", Action: "DELETE"})
		after, _ := authz.Ability(ctx, testdata.Clerk)

		Expect(before).NotTo(grant(types.Rank, types.Delete))
		Expect(after).To(grant(types.Rank, types.Delete))
		Expect(src.Calls()).To(Equal(2))
	})

	Context("presets", func() {
		var a types.Authorizer

		BeforeEach(func() {
			var e error
			a, e = New(ctx, WithRuleSource(src), WithPresets(OwnProfile, SuperUsers(testdata.Newcomer)))
			Expect(e).To(Succeed())
		})

		It("lets identities update their own record only", func() {
			ab, e := a.Ability(ctx, testdata.Clerk)
			Expect(e).To(Succeed())
			Expect(ab.CanOn(types.Update, types.User, types.Attributes{"id": int64(testdata.Clerk)})).To(BeTrue())
			Expect(ab.CanOn(types.Update, types.User, types.Attributes{"id": int64(testdata.Admin)})).To(BeFalse())
			Expect(ab.CanOn(types.Delete, types.User, types.Attributes{"id": int64(testdata.Clerk)})).To(BeFalse())
		})

		It("tells large identities apart", func() {
			own := types.Identity(9007199254740993)
			src.Insert(own, types.RawRule{Subject: "ITEMS", Action: "READ"})

			ab, e := a.Ability(ctx, own)
			Expect(e).To(Succeed())
			Expect(ab.CanOn(types.Update, types.User, types.Attributes{"id": int64(own)})).To(BeTrue())
			Expect(ab.CanOn(types.Update, types.User, types.Attributes{"id": int64(own) - 1})).To(BeFalse())
		})

		It("makes super users manage everything", func() {
			ab, _ := a.Ability(ctx, testdata.Newcomer)
			Expect(ab).To(grant(types.All, types.Manage))

			ab, _ = a.Ability(ctx, testdata.Clerk)
			Expect(ab).NotTo(grant(types.All, types.Manage))
		})

		It("are not given to guests", func() {
			ab, _ := a.Ability(ctx, types.Guest)
			Expect(ab.Rules()).To(Equal(GuestRules()))
		})
	})

	It("honours strict fields", func() {
		a, e := New(ctx, WithRuleSource(src), WithStrictFields())
		Expect(e).To(Succeed())

		ab, _ := a.Ability(ctx, testdata.Clerk)
		Expect(ab.CanField(types.Update, types.Item, "quantity")).To(BeTrue())
		Expect(ab.CanField(types.Update, types.Item, "price")).To(BeFalse())

		ab, _ = authz.Ability(ctx, testdata.Clerk)
		Expect(ab.CanField(types.Update, types.Item, "price")).To(BeTrue())
	})
})

var _ = Describe("guard check", func() {
	DescribeTable("ors managing all, the action, and managing the subject",
		func(rules []types.Rule, act types.Action, sub types.Subject, permitted bool) {
			Expect(Permitted(Compile(rules), act, sub)).To(Equal(permitted))
		},
		Entry("manage all", []types.Rule{{Action: types.Manage, Subject: types.All}}, types.Delete, types.Floor, true),
		Entry("exact action", []types.Rule{{Action: types.Update, Subject: types.Floor}}, types.Update, types.Floor, true),
		Entry("manage subject", []types.Rule{{Action: types.Manage, Subject: types.Floor}}, types.Delete, types.Floor, true),
		Entry("other action", []types.Rule{{Action: types.Read, Subject: types.Floor}}, types.Delete, types.Floor, false),
		Entry("other subject", []types.Rule{{Action: types.Manage, Subject: types.Rank}}, types.Read, types.Floor, false),
		Entry("no rules", nil, types.Read, types.Floor, false),
	)

	It("denies without an ability", func() {
		Expect(Permitted(nil, types.Read, types.Item)).To(BeFalse())
	})
})

var _ = Describe("compile", func() {
	It("answers like the authorizer on the same rules", func() {
		ctx := context.Background()
		authz, _ := New(ctx, WithRuleSource(fake.NewRuleSource(testdata.RawRules)), WithLogger(logr.Discard()))

		for _, id := range []types.Identity{types.Guest, testdata.Admin, testdata.Storekeeper, testdata.Auditor, testdata.Clerk} {
			server, e := authz.Ability(ctx, id)
			Expect(e).To(Succeed())
			client := Compile(server.Rules())

			for _, act := range types.Actions() {
				for _, sub := range types.Subjects() {
					Expect(client.Can(act, sub)).To(Equal(server.Can(act, sub)), id.String())
					Expect(Permitted(client, act, sub)).To(Equal(Permitted(server, act, sub)))
				}
			}
		}
	})

	It("honours strict fields", func() {
		rules := []types.Rule{{Action: types.Update, Subject: types.Item, Fields: []string{"quantity"}}}
		Expect(Compile(rules).CanField(types.Update, types.Item, "price")).To(BeTrue())
		Expect(Compile(rules, StrictFields(), CompileLogger(logr.Discard())).CanField(types.Update, types.Item, "price")).To(BeFalse())
	})
})
