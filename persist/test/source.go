// Package test holds test cases every rule source implementation should pass
package test

import (
	"context"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/supremind/ability/internal/testdata"
	"github.com/supremind/ability/types"
)

// RuleSourceTestCases checks the source serves the rows seeded from testdata.RawRules,
// src returns a source ready to serve one load of the given identity
func RuleSourceTestCases(ctx context.Context, name string, src func(types.Identity) types.RuleSource) bool {
	return Describe(name, func() {
		It("serves the rows of every identity in order", func() {
			for _, id := range []types.Identity{testdata.Admin, testdata.Storekeeper, testdata.Auditor, testdata.Clerk} {
				Expect(src(id).RawRules(ctx, id)).To(Equal(testdata.RawRules[id]), id.String())
			}
		})

		It("serves an empty list for identities without rows", func() {
			for _, id := range []types.Identity{testdata.Newcomer, types.Identity(404)} {
				rows, e := src(id).RawRules(ctx, id)
				Expect(e).To(Succeed())
				Expect(rows).To(BeEmpty())
			}
		})
	})
}
