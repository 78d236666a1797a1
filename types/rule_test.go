package types_test

import (
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"

	. "github.com/supremind/ability/types"
)

var _ = Describe("rule", func() {
	It("validates the vocabularies", func() {
		Expect(Rule{Action: Read, Subject: Item}.Validate()).To(Succeed())

		e := Rule{Action: Read | Create, Subject: Item}.Validate()
		Expect(errors.Is(e, ErrMalformedRule)).To(BeTrue())
		Expect(errors.Is(e, ErrUnknownAction)).To(BeTrue())

		e = Rule{Action: Read, Subject: "Widget"}.Validate()
		Expect(errors.Is(e, ErrUnknownSubject)).To(BeTrue())
	})

	It("clones without sharing fields or conditions", func() {
		r := Rule{Action: Update, Subject: User, Fields: []string{"name"}, Conditions: Conditions{"id": 7}}
		c := r.Clone()
		r.Fields[0] = "password"
		r.Conditions["id"] = 8

		Expect(c.Fields).To(Equal([]string{"name"}))
		Expect(c.Conditions).To(Equal(Conditions{"id": 7}))
	})

	It("keeps an empty field list distinct from no field list", func() {
		Expect(Rule{Fields: []string{}}.Clone().Fields).NotTo(BeNil())
		Expect(Rule{}.Clone().Fields).To(BeNil())
	})

	It("round trips the rules payload", func() {
		in := []Rule{
			{Action: Read, Subject: Item},
			{Action: Update, Subject: User, Fields: []string{"name"}, Conditions: Conditions{"id": float64(3)}},
			{Action: Manage, Subject: Stock, Fields: []string{}},
		}
		b, e := json.Marshal(in)
		Expect(e).To(Succeed())
		Expect(string(b)).To(ContainSubstring(`{"action":"read","subject":"Item"}`))

		var out []Rule
		Expect(json.Unmarshal(b, &out)).To(Succeed())
		Expect(out[0]).To(Equal(in[0]))
		Expect(out[1]).To(Equal(in[1]))
		Expect(string(b)).To(ContainSubstring(`"fields":[]`))
		Expect(out[2].Fields).NotTo(BeNil())
		Expect(out[2].Fields).To(BeEmpty())
	})

	It("rejects payloads outside of the vocabularies", func() {
		var out []Rule
		Expect(json.Unmarshal([]byte(`[{"action":"approve","subject":"Item"}]`), &out)).NotTo(Succeed())
		Expect(json.Unmarshal([]byte(`[{"action":"read","subject":"Widget"}]`), &out)).NotTo(Succeed())
	})
})

var _ = Describe("conditions", func() {
	DescribeTable("match",
		func(c Conditions, attrs Attributes, matched bool) {
			Expect(c.Match(attrs)).To(Equal(matched))
		},
		Entry("empty conditions match anything", Conditions{}, Attributes{"id": 1}, true),
		Entry("numbers of different types", Conditions{"owner": Identity(7)}, Attributes{"owner": float64(7)}, true),
		Entry("different numbers", Conditions{"owner": 7}, Attributes{"owner": 8}, false),
		Entry("missing attribute", Conditions{"owner": 7}, Attributes{"id": 7}, false),
		Entry("strings", Conditions{"floor": "B1"}, Attributes{"floor": "B1", "rank": 2}, true),
		Entry("string against number", Conditions{"floor": "1"}, Attributes{"floor": 1}, false),
		Entry("large identities beyond float precision", Conditions{"id": Identity(9007199254740993)}, Attributes{"id": int64(9007199254740992)}, false),
		Entry("equal large identities", Conditions{"id": Identity(9007199254740993)}, Attributes{"id": uint64(9007199254740993)}, true),
		Entry("negative against unsigned", Conditions{"rank": -1}, Attributes{"rank": uint64(18446744073709551615)}, false),
		Entry("decoded float against integer", Conditions{"id": Identity(42)}, Attributes{"id": float64(42)}, true),
		Entry("fractional float against integer", Conditions{"id": Identity(42)}, Attributes{"id": 42.5}, false),
		Entry("floats", Conditions{"weight": 2.5}, Attributes{"weight": float32(2.5)}, true),
	)
})
