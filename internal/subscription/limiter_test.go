package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/frahmantamala/bizanalytics/internal/company"
	"github.com/frahmantamala/bizanalytics/internal/user"
	"github.com/frahmantamala/bizanalytics/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func TestSubscription(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Subscription Suite")
}

type fixedCounter struct {
	count int64
	err   error
	calls int
}

func (f *fixedCounter) CountByCompany(context.Context, string) (int64, error) {
	f.calls++
	return f.count, f.err
}

var _ = ginkgo.Describe("Limiter", func() {
	var (
		counter *fixedCounter
		limiter *Limiter
		now     time.Time
		c       *company.Company
	)

	ginkgo.BeforeEach(func() {
		now = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
		counter = &fixedCounter{}
		limiter = NewLimiter(counter, logger.Discard())
		limiter.now = func() time.Time { return now }
		c = company.New("c1", &user.User{ID: "owner"}, "Acme", "a@acme.io", now)
	})

	ginkgo.DescribeTable("CanCreateDashboard",
		func(plan company.Plan, count int64, expected bool) {
			c.Subscription.Plan = plan
			counter.count = count

			ok, err := limiter.CanCreateDashboard(context.Background(), c)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(ok).To(gomega.Equal(expected))
		},
		ginkgo.Entry("free plan below quota", company.PlanFree, int64(4), true),
		ginkgo.Entry("free plan at quota", company.PlanFree, int64(5), false),
		ginkgo.Entry("pro plan below quota", company.PlanPro, int64(49), true),
		ginkgo.Entry("pro plan at quota", company.PlanPro, int64(50), false),
		ginkgo.Entry("enterprise plan is unlimited", company.PlanEnterprise, int64(100000), true),
		ginkgo.Entry("unknown plan falls back to free", company.Plan("legacy"), int64(5), false),
	)

	ginkgo.It("should refuse once the subscription has expired", func() {
		c.Subscription.Plan = company.PlanEnterprise
		c.Subscription.ExpiresAt = now.Add(-time.Second)

		ok, err := limiter.CanCreateDashboard(context.Background(), c)

		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(ok).To(gomega.BeFalse())
		gomega.Expect(counter.calls).To(gomega.Equal(0))
	})

	ginkgo.It("should allow creation at the exact expiry instant", func() {
		c.Subscription.ExpiresAt = now

		ok, _ := limiter.CanCreateDashboard(context.Background(), c)

		gomega.Expect(ok).To(gomega.BeTrue())
	})

	ginkgo.It("should not count for an unlimited plan", func() {
		c.Subscription.Plan = company.PlanEnterprise

		_, _ = limiter.CanCreateDashboard(context.Background(), c)

		gomega.Expect(counter.calls).To(gomega.Equal(0))
	})

	ginkgo.It("should surface a counting failure", func() {
		counter.err = errors.New("db down")

		_, err := limiter.CanCreateDashboard(context.Background(), c)

		gomega.Expect(err).To(gomega.MatchError(gomega.ContainSubstring("db down")))
	})

	ginkgo.Describe("HasPlan", func() {
		ginkgo.It("should rank plans", func() {
			c.Subscription.Plan = company.PlanPro

			gomega.Expect(limiter.HasPlan(c, company.PlanFree)).To(gomega.BeTrue())
			gomega.Expect(limiter.HasPlan(c, company.PlanPro)).To(gomega.BeTrue())
			gomega.Expect(limiter.HasPlan(c, company.PlanEnterprise)).To(gomega.BeFalse())
		})

		ginkgo.It("should deny an expired subscription", func() {
			c.Subscription.Plan = company.PlanEnterprise
			c.Subscription.ExpiresAt = now.Add(-time.Hour)

			gomega.Expect(limiter.HasPlan(c, company.PlanFree)).To(gomega.BeFalse())
		})
	})
})
