package catalog_test

import (
	"github.com/frahmantamala/access-audit-reports/internal/catalog"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LabelResolver", func() {
	It("should prefer earlier tables", func() {
		r := catalog.NewLabelResolver(
			map[string]string{"Name": "Parent Name"},
			map[string]string{"Name": "Sub Name", "Email": "Sub Email"},
		)
		Expect(r.Resolve("Name")).To(Equal("Parent Name"))
		Expect(r.Resolve("Email")).To(Equal("Sub Email"))
	})

	It("should prefer an exact match in a later table over a case-insensitive one", func() {
		r := catalog.NewLabelResolver(
			map[string]string{"isactive": "Lower"},
			map[string]string{"IsActive": "Exact"},
		)
		Expect(r.Resolve("IsActive")).To(Equal("Exact"))
		Expect(r.Resolve("ISACTIVE")).To(Equal("Lower"))
	})

	It("should return the key itself when nothing matches", func() {
		r := catalog.NewLabelResolver()
		Expect(r.Resolve("Custom__c")).To(Equal("Custom__c"))

		var nilResolver *catalog.LabelResolver
		Expect(nilResolver.Resolve("Id")).To(Equal("Id"))
	})

	Describe("category labels", func() {
		var c *catalog.Catalog

		BeforeEach(func() {
			c = catalog.MustDefault()
		})

		It("should resolve sub-filter fields before static fallbacks", func() {
			cat, _ := c.Category("permission_assignment")
			labels := cat.Labels()
			Expect(labels.Resolve("Assignee.Name")).To(Equal("User Name"))
			Expect(labels.Resolve("PermissionSetGroup.DeveloperName")).To(Equal("Permission Set Group"))
			Expect(labels.Resolve("CreatedDate")).To(Equal("Created Date"))
		})

		It("should let the first parent's sub-filters win on shared fields", func() {
			cat, _ := c.Category("user_data")
			Expect(cat.Labels().Resolve("Profile.Name")).To(Equal("Profile"))
		})

		It("should use category fallbacks before global ones", func() {
			cat, _ := c.Category("sharing_settings")
			labels := cat.Labels()
			Expect(labels.Resolve("DefaultInternalAccess")).To(Equal("Default Internal Access"))
			Expect(labels.Resolve("DeveloperName")).To(Equal("API Name"))
		})
	})
})
