package export_test

import (
	"github.com/frahmantamala/access-audit-reports/internal/export"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FieldCanonicalizer", func() {
	var c *export.FieldCanonicalizer

	BeforeEach(func() {
		c = export.NewFieldCanonicalizer(nil)
	})

	It("maps aliases to one canonical field", func() {
		Expect(c.Canonical("Assignee.Id")).To(Equal("AssigneeId"))
		Expect(c.Canonical("User ID")).To(Equal("AssigneeId"))
		Expect(c.Canonical("PermissionSet.Label")).To(Equal("PermissionSet.Name"))
	})

	It("leaves unknown fields untouched", func() {
		Expect(c.Canonical("Profile.UserLicense")).To(Equal("Profile.UserLicense"))
	})

	It("dedupes aliases and keeps first appearance order", func() {
		out := c.Apply([]string{"Assignee.Name", "AssigneeId", "user name", "Assignee.Id", "", "Custom__c"})
		Expect(out).To(Equal([]string{"Assignee.Name", "AssigneeId", "Custom__c"}))
	})

	It("layers overrides on the defaults", func() {
		c = export.NewFieldCanonicalizer(map[string]string{"Login Name": "Assignee.Username"})
		Expect(c.Canonical("login name")).To(Equal("Assignee.Username"))
		Expect(c.Canonical("assignee.email")).To(Equal("Assignee.Email"))
	})
})
