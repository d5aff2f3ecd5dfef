package dashboard_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/activity"
	"github.com/frahmantamala/bizanalytics/internal/auth"
	"github.com/frahmantamala/bizanalytics/internal/company"
	"github.com/frahmantamala/bizanalytics/internal/core/events"
	"github.com/frahmantamala/bizanalytics/internal/dashboard"
	"github.com/frahmantamala/bizanalytics/internal/subscription"
	"github.com/frahmantamala/bizanalytics/internal/user"
	"github.com/frahmantamala/bizanalytics/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// memoryRepository stores copies so a caller holding a stale aggregate can be detected.
type memoryRepository struct {
	mu         sync.Mutex
	rows       map[string]dashboard.Dashboard
	viewErr    error
	viewsSaved int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{rows: map[string]dashboard.Dashboard{}}
}

func (m *memoryRepository) Create(_ context.Context, d *dashboard.Dashboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[d.ID] = *d
	return nil
}

func (m *memoryRepository) GetByID(_ context.Context, id string) (*dashboard.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, internal.ErrDashboardNotFound
	}
	return &row, nil
}

func (m *memoryRepository) ListForUser(_ context.Context, userID, companyID string) ([]*dashboard.Dashboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*dashboard.Dashboard
	for _, row := range m.rows {
		if row.UserID == userID && !row.IsTemplate && (companyID == "" || row.CompanyID == companyID) {
			r := row
			out = append(out, &r)
		}
	}
	return out, nil
}

func (m *memoryRepository) ListTemplates(context.Context, string) ([]*dashboard.Dashboard, error) {
	return nil, nil
}

func (m *memoryRepository) Save(_ context.Context, d *dashboard.Dashboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[d.ID]
	if !ok {
		return internal.ErrDashboardNotFound
	}
	if row.Version != d.Version {
		return internal.ErrStaleWrite
	}
	d.Version++
	m.rows[d.ID] = *d
	return nil
}

func (m *memoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return internal.ErrDashboardNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memoryRepository) IncrementView(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.viewErr != nil {
		return m.viewErr
	}
	row := m.rows[id]
	row.RecordView(at)
	m.rows[id] = row
	m.viewsSaved++
	return nil
}

func (m *memoryRepository) CountByCompany(_ context.Context, companyID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, row := range m.rows {
		if row.CompanyID == companyID && !row.IsTemplate {
			n++
		}
	}
	return n, nil
}

type companyDirectory map[string]*company.Company

func (c companyDirectory) GetByID(_ context.Context, id string) (*company.Company, error) {
	if found, ok := c[id]; ok {
		return found, nil
	}
	return nil, internal.ErrCompanyNotFound
}

type recordedActivity struct {
	mu      sync.Mutex
	entries []activity.Entry
}

func (r *recordedActivity) Record(_ context.Context, e activity.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

type publishedEvents struct {
	mu      sync.Mutex
	topics  []string
	changes []string
}

func (p *publishedEvents) Publish(_ context.Context, topic string, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	if de, ok := evt.(*events.DashboardEvent); ok {
		p.changes = append(p.changes, de.Change)
	}
	return nil
}

var _ = Describe("Dashboard Service", func() {
	var (
		ctx       context.Context
		repo      *memoryRepository
		acme      *company.Company
		other     *company.Company
		recorder  *recordedActivity
		published *publishedEvents
		service   *dashboard.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		now := time.Now().UTC()
		repo = newMemoryRepository()

		acme = company.New("11111111-1111-1111-1111-111111111111", &user.User{ID: "owner", Email: "owner@acme.io"}, "Acme", "hi@acme.io", now)
		_, err := acme.AddMember(&user.User{ID: "analyst", Email: "analyst@acme.io"}, auth.RoleEmployee, now)
		Expect(err).NotTo(HaveOccurred())
		other = company.New("22222222-2222-2222-2222-222222222222", &user.User{ID: "rival", Email: "rival@other.io"}, "Other", "hi@other.io", now)

		recorder = &recordedActivity{}
		published = &publishedEvents{}
		service = dashboard.NewService(repo, dashboard.Dependencies{
			Companies:   companyDirectory{acme.ID: acme, other.ID: other},
			Quota:       subscription.NewLimiter(repo, logger.Discard()),
			Recorder:    recorder,
			Broadcaster: published,
		}, logger.Discard())
	})

	create := func(userID, name string) (*dashboard.Dashboard, error) {
		return service.Create(ctx, userID, dashboard.CreateDashboardDTO{CompanyID: acme.ID, Name: name})
	}

	Describe("Create", func() {
		It("should stop a free company at its fifth dashboard", func() {
			for i := 1; i <= 5; i++ {
				_, err := create("owner", fmt.Sprintf("D%d", i))
				Expect(err).NotTo(HaveOccurred())
			}
			count, _ := repo.CountByCompany(ctx, acme.ID)
			Expect(count).To(Equal(int64(5)))

			_, err := create("owner", "D6")

			Expect(errors.Is(err, internal.ErrQuotaExceeded)).To(BeTrue())
			appErr, _ := internal.IsAppError(err)
			Expect(appErr.StatusCode).To(Equal(403))
			count, _ = repo.CountByCompany(ctx, acme.ID)
			Expect(count).To(Equal(int64(5)))
		})

		It("should treat the quota as best-effort when creates race past the count", func() {
			for i := 1; i <= 4; i++ {
				_, err := create("owner", fmt.Sprintf("D%d", i))
				Expect(err).NotTo(HaveOccurred())
			}

			const racers = 8
			var wg sync.WaitGroup
			errs := make(chan error, racers)
			for i := 0; i < racers; i++ {
				wg.Add(1)
				go func(n int) {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := create("owner", fmt.Sprintf("Race%d", n))
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)

			succeeded := 0
			for err := range errs {
				if err == nil {
					succeeded++
					continue
				}
				Expect(errors.Is(err, internal.ErrQuotaExceeded)).To(BeTrue())
			}

			// count then create is not atomic: every racer that counted before
			// another committed may get through, never more than that
			count, _ := repo.CountByCompany(ctx, acme.ID)
			Expect(succeeded).To(BeNumerically(">=", 1))
			Expect(count).To(Equal(int64(4 + succeeded)))
			Expect(count).To(BeNumerically("<=", 4+racers))
		})

		It("should reject an expired subscription", func() {
			acme.Subscription.ExpiresAt = time.Now().Add(-time.Hour)

			_, err := create("owner", "Late")

			Expect(errors.Is(err, internal.ErrQuotaExceeded)).To(BeTrue())
		})

		It("should reject callers outside the company", func() {
			_, err := create("rival", "Spy")

			Expect(errors.Is(err, internal.ErrNotMember)).To(BeTrue())
			Expect(repo.rows).To(BeEmpty())
		})

		It("should record and broadcast the creation", func() {
			d, err := create("analyst", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(d.Name).To(Equal(dashboard.DefaultName))
			Expect(d.UserID).To(Equal("analyst"))
			Expect(recorder.entries).To(HaveLen(1))
			Expect(recorder.entries[0].Action).To(Equal(activity.ActionDashboardCreated))
			Expect(published.topics).To(ConsistOf(events.CompanyTopic(acme.ID)))
			Expect(published.changes).To(ConsistOf("created"))
		})
	})

	Describe("View", func() {
		It("should count the view", func() {
			d, _ := create("owner", "Sales")

			viewed := service.View(ctx, d)

			Expect(viewed.ViewCount).To(Equal(int64(1)))
			Expect(repo.viewsSaved).To(Equal(1))
		})

		It("should still return the dashboard when the counter fails", func() {
			d, _ := create("owner", "Sales")
			repo.viewErr = errors.New("db down")

			viewed := service.View(ctx, d)

			Expect(viewed).To(Equal(d))
			Expect(viewed.ViewCount).To(BeZero())
		})
	})

	Describe("concurrent edits", func() {
		It("should reject a write based on a stale version", func() {
			d, _ := create("owner", "Sales")
			first, _ := repo.GetByID(ctx, d.ID)
			second, _ := repo.GetByID(ctx, d.ID)

			_, err := service.AddWidget(ctx, first, "owner", dashboard.Widget{Type: dashboard.WidgetKPI, Title: "A"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.AddWidget(ctx, second, "owner", dashboard.Widget{Type: dashboard.WidgetKPI, Title: "B"})

			Expect(errors.Is(err, internal.ErrStaleWrite)).To(BeTrue())
			stored, _ := repo.GetByID(ctx, d.ID)
			Expect(stored.Widgets).To(HaveLen(1))
			Expect(stored.Widgets[0].Title).To(Equal("A"))
			Expect(stored.Version).To(Equal(int64(2)))
		})
	})

	Describe("widgets", func() {
		var d *dashboard.Dashboard

		BeforeEach(func() {
			d, _ = create("owner", "Sales")
		})

		It("should not save or broadcast for an unknown widget", func() {
			title := "X"

			resp, err := service.UpdateWidget(ctx, d, "owner", "widget-999", dashboard.WidgetPatch{Title: &title})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Changed).To(BeFalse())
			Expect(repo.rows[d.ID].Version).To(Equal(int64(1)))
			Expect(published.changes).To(ConsistOf("created"))
		})

		It("should remove a widget once", func() {
			w, err := service.AddWidget(ctx, d, "owner", dashboard.Widget{Type: dashboard.WidgetTable, Title: "Orders"})
			Expect(err).NotTo(HaveOccurred())

			first, err := service.RemoveWidget(ctx, d, "owner", w.ID)
			Expect(err).NotTo(HaveOccurred())
			second, err := service.RemoveWidget(ctx, d, "owner", w.ID)
			Expect(err).NotTo(HaveOccurred())

			Expect(first.Changed).To(BeTrue())
			Expect(second.Changed).To(BeFalse())
			Expect(published.changes).To(Equal([]string{"created", "widget_added", "widget_removed"}))
		})
	})

	Describe("Share", func() {
		It("should not save when everyone already has access", func() {
			d, _ := create("owner", "Sales")
			_, err := service.Share(ctx, d, "owner", dashboard.ShareDTO{UserIDs: []string{"analyst"}, Permission: "view"})
			Expect(err).NotTo(HaveOccurred())

			resp, err := service.Share(ctx, d, "owner", dashboard.ShareDTO{UserIDs: []string{"analyst"}, Permission: "edit"})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Added).To(BeEmpty())
			Expect(repo.rows[d.ID].Version).To(Equal(int64(2)))
			Expect(repo.rows[d.ID].SharedWith[0].Permission).To(Equal(dashboard.ShareView))
		})

		It("should require at least one user", func() {
			d, _ := create("owner", "Sales")

			_, err := service.Share(ctx, d, "owner", dashboard.ShareDTO{Permission: "view"})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		var template *dashboard.Dashboard

		BeforeEach(func() {
			template = dashboard.New("seed", other.ID, "Finance Overview", time.Now())
			template.IsTemplate = true
			_, _ = template.AddWidget(dashboard.Widget{Type: dashboard.WidgetChart, Title: "Cash"})
			Expect(repo.Create(ctx, template)).To(Succeed())
		})

		It("should clone into the caller's company", func() {
			clone, err := service.Clone(ctx, template, "analyst", dashboard.CloneDTO{CompanyID: acme.ID})

			Expect(err).NotTo(HaveOccurred())
			Expect(clone.CompanyID).To(Equal(acme.ID))
			Expect(clone.UserID).To(Equal("analyst"))
			Expect(clone.Name).To(Equal("Finance Overview (Copy)"))
			Expect(clone.IsTemplate).To(BeFalse())
			Expect(repo.rows).To(HaveKey(clone.ID))
		})

		It("should refuse a company the caller does not belong to", func() {
			_, err := service.Clone(ctx, template, "analyst", dashboard.CloneDTO{})

			Expect(errors.Is(err, internal.ErrNotMember)).To(BeTrue())
		})

		It("should let a member of another company start from a template", func() {
			Expect(template.CanDo("analyst", dashboard.ActionView, false)).To(BeTrue())

			clone, err := service.Clone(ctx, template, "analyst", dashboard.CloneDTO{CompanyID: acme.ID})

			Expect(err).NotTo(HaveOccurred())
			Expect(clone.Widgets).To(HaveLen(1))
			Expect(repo.rows[template.ID].IsTemplate).To(BeTrue())
		})

		It("should fail instead of dropping widgets that cannot be copied", func() {
			template.Widgets[0].Config.CustomSettings = map[string]interface{}{"ratio": math.Inf(1)}

			_, err := service.Clone(ctx, template, "analyst", dashboard.CloneDTO{CompanyID: acme.ID})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(500))
			Expect(repo.rows).To(HaveLen(1))
		})

		It("should count clones against the quota", func() {
			for i := 0; i < 5; i++ {
				_, err := create("owner", fmt.Sprintf("D%d", i))
				Expect(err).NotTo(HaveOccurred())
			}

			_, err := service.Clone(ctx, template, "owner", dashboard.CloneDTO{CompanyID: acme.ID})

			Expect(errors.Is(err, internal.ErrQuotaExceeded)).To(BeTrue())
		})
	})

	Describe("Update", func() {
		var d *dashboard.Dashboard

		BeforeEach(func() {
			d, _ = create("owner", "Sales")
			_, err := service.Share(ctx, d, "owner", dashboard.ShareDTO{UserIDs: []string{"analyst"}, Permission: "edit"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should keep isDefault for the owner", func() {
			yes := true

			_, err := service.Update(ctx, d, "analyst", dashboard.UpdateDashboardDTO{IsDefault: &yes})

			Expect(err).To(MatchError(internal.ErrDefaultOwnerOnly))
			Expect(repo.rows[d.ID].IsDefault).To(BeFalse())

			updated, err := service.Update(ctx, d, "owner", dashboard.UpdateDashboardDTO{IsDefault: &yes})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.IsDefault).To(BeTrue())
		})

		It("should let an editor resend the current isDefault with other changes", func() {
			no, name := false, "Renamed"

			updated, err := service.Update(ctx, d, "analyst", dashboard.UpdateDashboardDTO{Name: &name, IsDefault: &no})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Renamed"))
		})
	})

	Describe("Delete", func() {
		It("should free quota", func() {
			d, _ := create("owner", "Sales")

			Expect(service.Delete(ctx, d, "owner")).To(Succeed())

			Expect(repo.rows).NotTo(HaveKey(d.ID))
			Expect(published.changes).To(Equal([]string{"created", "deleted"}))
		})
	})
})
