package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/pkg/logger"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

func TestAnalytics(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Analytics Suite")
}

type stubRepository struct {
	windows []Window
	totals  []map[string]decimal.Decimal
	queries []SnapshotQuery
	err     error
}

func (s *stubRepository) ListSnapshots(_ context.Context, q SnapshotQuery) ([]Snapshot, error) {
	s.queries = append(s.queries, q)
	return nil, s.err
}

func (s *stubRepository) TotalsByMetric(_ context.Context, _ string, w Window) (map[string]decimal.Decimal, error) {
	if s.err != nil {
		return nil, s.err
	}
	i := len(s.windows)
	s.windows = append(s.windows, w)
	if i < len(s.totals) {
		return s.totals[i], nil
	}
	return map[string]decimal.Decimal{}, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var _ = ginkgo.Describe("NewKPI", func() {
	ginkgo.DescribeTable("period over period",
		func(current, previous string, rate interface{}, trend Trend) {
			k := NewKPI("revenue", dec(current), dec(previous))

			gomega.Expect(k.Change.Equal(dec(current).Sub(dec(previous)))).To(gomega.BeTrue())
			gomega.Expect(k.Trend).To(gomega.Equal(trend))
			if rate == nil {
				gomega.Expect(k.ChangeRate).To(gomega.BeNil())
				return
			}
			gomega.Expect(k.ChangeRate).NotTo(gomega.BeNil())
			gomega.Expect(k.ChangeRate.String()).To(gomega.Equal(rate))
		},
		ginkgo.Entry("growth", "150", "100", "50", TrendUp),
		ginkgo.Entry("decline", "75.5", "100", "-24.5", TrendDown),
		ginkgo.Entry("flat", "100", "100", "0", TrendStable),
		ginkgo.Entry("no previous period", "100", "0", nil, TrendUp),
		ginkgo.Entry("nothing at all", "0", "0", nil, TrendStable),
		ginkgo.Entry("rounded to two places", "1", "3", "-66.67", TrendDown),
		ginkgo.Entry("exact cents", "0.3", "0.1", "200", TrendUp),
	)
})

var _ = ginkgo.Describe("Service", func() {
	var (
		ctx     context.Context
		repo    *stubRepository
		service *Service
		now     time.Time
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		repo = &stubRepository{}
		service = NewService(repo, logger.Discard())
		now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
		service.now = func() time.Time { return now }
	})

	ginkgo.Describe("KPIs", func() {
		ginkgo.It("should compare adjacent windows of the requested length", func() {
			repo.totals = []map[string]decimal.Decimal{
				{"revenue": dec("1500.25"), "orders": dec("30")},
				{"revenue": dec("1000"), "churn": dec("4")},
			}

			summary, err := service.KPIs(ctx, "c1", 7)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(repo.windows).To(gomega.HaveLen(2))
			gomega.Expect(repo.windows[0].To).To(gomega.Equal(now))
			gomega.Expect(repo.windows[0].From).To(gomega.Equal(now.AddDate(0, 0, -7)))
			gomega.Expect(repo.windows[1].To).To(gomega.Equal(repo.windows[0].From))
			gomega.Expect(repo.windows[1].From).To(gomega.Equal(now.AddDate(0, 0, -14)))

			gomega.Expect(summary.Days).To(gomega.Equal(7))
			gomega.Expect(summary.HasData).To(gomega.BeTrue())
			gomega.Expect(summary.KPIs).To(gomega.HaveLen(3))
			gomega.Expect(summary.KPIs[0].Metric).To(gomega.Equal("churn"))
			gomega.Expect(summary.KPIs[0].Trend).To(gomega.Equal(TrendDown))
			gomega.Expect(summary.KPIs[1].Metric).To(gomega.Equal("orders"))
			gomega.Expect(summary.KPIs[1].ChangeRate).To(gomega.BeNil())
			gomega.Expect(summary.KPIs[2].Metric).To(gomega.Equal("revenue"))
			gomega.Expect(summary.KPIs[2].ChangeRate.String()).To(gomega.Equal("50.03"))
		})

		ginkgo.It("should default to thirty days", func() {
			summary, err := service.KPIs(ctx, "c1", 0)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(summary.Days).To(gomega.Equal(DefaultDays))
			gomega.Expect(summary.HasData).To(gomega.BeFalse())
			gomega.Expect(summary.KPIs).To(gomega.BeEmpty())
		})

		ginkgo.It("should reject a window longer than a year", func() {
			_, err := service.KPIs(ctx, "c1", MaxDays+1)

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeValidation))
			gomega.Expect(repo.windows).To(gomega.BeEmpty())
		})

		ginkgo.It("should wrap store failures", func() {
			repo.err = errors.New("connection refused")

			_, err := service.KPIs(ctx, "c1", 30)

			gomega.Expect(err).To(gomega.MatchError(gomega.ContainSubstring("connection refused")))
		})
	})

	ginkgo.Describe("Snapshots", func() {
		ginkgo.It("should pass the window and filters through", func() {
			list, err := service.Snapshots(ctx, "c1", "revenue", 10, 5)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(list).NotTo(gomega.BeNil())
			gomega.Expect(repo.queries).To(gomega.HaveLen(1))
			q := repo.queries[0]
			gomega.Expect(q.CompanyID).To(gomega.Equal("c1"))
			gomega.Expect(q.Metric).To(gomega.Equal("revenue"))
			gomega.Expect(q.Limit).To(gomega.Equal(5))
			gomega.Expect(q.Window.From).To(gomega.Equal(now.AddDate(0, 0, -10)))
		})

		ginkgo.It("should cap the page size", func() {
			_, err := service.Snapshots(ctx, "c1", "", 30, MaxLimit+1)

			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})
})
