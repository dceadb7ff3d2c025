package selection_test

import (
	"github.com/frahmantamala/access-audit-reports/internal/selection"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Render", func() {
	It("should mark checked, partial and pseudo nodes", func() {
		cat := category("user_data")
		state := selection.Render(cat, selection.NewSet("users", "user.name"))

		Expect(state.Category).To(Equal("user_data"))
		Expect(state.Selected).To(Equal([]string{"users", "user.name"}))
		Expect(state.CompareActive).To(BeFalse())

		users := state.Nodes[0]
		Expect(users.ID).To(Equal("users"))
		Expect(users.Checked).To(BeTrue())
		Expect(users.Partial).To(BeTrue())
		Expect(users.Children[0].Checked).To(BeTrue())
		Expect(users.Children[1].Checked).To(BeFalse())

		Expect(state.Nodes[1].Checked).To(BeFalse())
	})

	It("should report an active compare filter", func() {
		cat := category("user_data")
		state := selection.Render(cat, selection.NewSet("compare"))

		Expect(state.CompareActive).To(BeTrue())
		compare := state.Nodes[len(state.Nodes)-1]
		Expect(compare.Pseudo).To(BeTrue())
		Expect(compare.Checked).To(BeTrue())
	})

	It("should not mark a parent with every leaf checked as partial", func() {
		cat := category("sharing_settings")
		state := selection.Render(cat, selection.NewSet("sharing_rules", "rules.criteria", "rules.owner"))
		Expect(state.Nodes[1].Checked).To(BeTrue())
		Expect(state.Nodes[1].Partial).To(BeFalse())
	})

	It("should be a pure function of the selection", func() {
		cat := category("object_access")
		s := selection.NewSet("object_permissions", "op.read")
		Expect(selection.Render(cat, s)).To(Equal(selection.Render(cat, s)))
	})
})

var _ = Describe("Set", func() {
	It("should keep insertion order and ignore duplicates", func() {
		s := selection.NewSet("b", "a", "b", "")
		Expect(s.IDs()).To(Equal([]string{"b", "a"}))
		Expect(s.Len()).To(Equal(2))
		Expect(s.Has("a")).To(BeTrue())
		Expect(s.Has("c")).To(BeFalse())
	})

	It("should hand out copies of its ids", func() {
		s := selection.NewSet("a")
		ids := s.IDs()
		ids[0] = "z"
		Expect(s.Has("a")).To(BeTrue())
	})
})
