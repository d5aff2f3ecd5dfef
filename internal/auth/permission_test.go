package auth

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Permission resolver", func() {
	ginkgo.It("should accept the built-in role table", func() {
		gomega.Expect(ValidateRoleTable()).To(gomega.Succeed())
	})

	ginkgo.Describe("ResolveCapabilities", func() {
		ginkgo.It("should give the owner the wildcard", func() {
			set := ResolveCapabilities(RoleOwner)

			gomega.Expect(set.Strings()).To(gomega.Equal([]string{"*"}))
			gomega.Expect(set.Has(CapSettingsUpdate)).To(gomega.BeTrue())
			gomega.Expect(set.Has(CapDashboardUpdateOwn)).To(gomega.BeTrue())
		})

		ginkgo.It("should resolve an unknown role to nothing", func() {
			set := ResolveCapabilities(Role("intern"))

			gomega.Expect(set).To(gomega.BeEmpty())
			gomega.Expect(set.Has(CapCompanyRead)).To(gomega.BeFalse())
		})

		ginkgo.It("should return an independent set on every call", func() {
			first := ResolveCapabilities(RoleViewer)
			first[CapSettingsUpdate] = struct{}{}

			gomega.Expect(ResolveCapabilities(RoleViewer).Has(CapSettingsUpdate)).To(gomega.BeFalse())
		})
	})

	ginkgo.DescribeTable("IsAllowed",
		func(role Role, capability Capability, expected bool) {
			gomega.Expect(IsAllowed(role, capability)).To(gomega.Equal(expected))
		},
		ginkgo.Entry("owner may update settings", RoleOwner, CapSettingsUpdate, true),
		ginkgo.Entry("admin may remove members", RoleAdmin, CapCompanyMembersRemove, true),
		ginkgo.Entry("admin lacks dashboard.update.own", RoleAdmin, CapDashboardUpdateOwn, false),
		ginkgo.Entry("manager may update any dashboard", RoleManager, CapDashboardUpdate, true),
		ginkgo.Entry("manager may not delete dashboards", RoleManager, CapDashboardDelete, false),
		ginkgo.Entry("manager may not add members", RoleManager, CapCompanyMembersAdd, false),
		ginkgo.Entry("employee may update own dashboards", RoleEmployee, CapDashboardUpdateOwn, true),
		ginkgo.Entry("employee may not update any dashboard", RoleEmployee, CapDashboardUpdate, false),
		ginkgo.Entry("employee may create dashboards", RoleEmployee, CapDashboardCreate, true),
		ginkgo.Entry("viewer may read analytics", RoleViewer, CapAnalyticsRead, true),
		ginkgo.Entry("viewer may not create dashboards", RoleViewer, CapDashboardCreate, false),
		ginkgo.Entry("unknown role is denied", Role("ghost"), CapCompanyRead, false),
	)

	ginkgo.It("should evaluate any and all combinations", func() {
		gomega.Expect(HasAnyPermission(RoleViewer, CapDashboardDelete, CapDashboardRead)).To(gomega.BeTrue())
		gomega.Expect(HasAnyPermission(RoleViewer)).To(gomega.BeFalse())
		gomega.Expect(HasAllPermissions(RoleManager, CapReportCreate, CapReportUpdate)).To(gomega.BeTrue())
		gomega.Expect(HasAllPermissions(RoleManager, CapReportCreate, CapReportDelete)).To(gomega.BeFalse())
		gomega.Expect(HasAllPermissions(RoleViewer)).To(gomega.BeTrue())
	})

	ginkgo.It("should single out owners and admins", func() {
		gomega.Expect(IsOwnerOrAdmin(RoleOwner)).To(gomega.BeTrue())
		gomega.Expect(IsOwnerOrAdmin(RoleAdmin)).To(gomega.BeTrue())
		gomega.Expect(IsOwnerOrAdmin(RoleManager)).To(gomega.BeFalse())
	})

	ginkgo.It("should only accept known role names", func() {
		gomega.Expect(Role("owner").Valid()).To(gomega.BeTrue())
		gomega.Expect(Role("Owner").Valid()).To(gomega.BeFalse())
		gomega.Expect(RoleNames()).To(gomega.HaveLen(5))
	})
})
