package company_test

import (
	"context"
	"errors"
	"sync"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/activity"
	"github.com/frahmantamala/bizanalytics/internal/auth"
	"github.com/frahmantamala/bizanalytics/internal/company"
	"github.com/frahmantamala/bizanalytics/internal/core/events"
	"github.com/frahmantamala/bizanalytics/internal/user"
	"github.com/frahmantamala/bizanalytics/pkg/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type mockRepository struct {
	companies map[string]*company.Company
	removed   []string
}

func newMockRepository() *mockRepository {
	return &mockRepository{companies: map[string]*company.Company{}}
}

func (m *mockRepository) Create(_ context.Context, c *company.Company) error {
	m.companies[c.ID] = c
	return nil
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*company.Company, error) {
	if c, ok := m.companies[id]; ok {
		return c, nil
	}
	return nil, internal.ErrCompanyNotFound
}

func (m *mockRepository) ExistsByOwner(_ context.Context, ownerID string) (bool, error) {
	for _, c := range m.companies {
		if c.OwnerID == ownerID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepository) ListForUser(_ context.Context, userID string) ([]*company.Company, error) {
	var out []*company.Company
	for _, c := range m.companies {
		if c.IsMember(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockRepository) Update(context.Context, *company.Company) error { return nil }

func (m *mockRepository) AddMember(context.Context, string, company.Membership, int) error {
	return nil
}

func (m *mockRepository) RemoveMember(_ context.Context, _ string, userID string) (bool, error) {
	m.removed = append(m.removed, userID)
	return true, nil
}

type mockUsers struct {
	users map[string]*user.User
	cache map[string]string
}

func (m *mockUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, internal.ErrUserNotFound
}

func (m *mockUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, internal.ErrUserNotFound
}

func (m *mockUsers) SetCompany(_ context.Context, userID, companyID string) error {
	m.cache[userID] = companyID
	return nil
}

type countingDashboards struct{ count int64 }

func (c countingDashboards) CountByCompany(context.Context, string) (int64, error) {
	return c.count, nil
}

type capturingBroadcaster struct {
	mu     sync.Mutex
	topics []string
	types  []string
}

func (b *capturingBroadcaster) Publish(_ context.Context, topic string, evt events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, topic)
	b.types = append(b.types, evt.EventType())
	return nil
}

type capturingRecorder struct {
	entries []activity.Entry
}

func (r *capturingRecorder) Record(_ context.Context, e activity.Entry) {
	r.entries = append(r.entries, e)
}

type staticActivities struct{}

func (staticActivities) GetRecent(_ context.Context, companyID string, limit int) ([]activity.Entry, error) {
	return []activity.Entry{{CompanyID: companyID, Action: activity.ActionLogin}}, nil
}

var _ = Describe("Company Service", func() {
	var (
		ctx         context.Context
		repo        *mockRepository
		users       *mockUsers
		broadcaster *capturingBroadcaster
		recorder    *capturingRecorder
		service     *company.Service
	)

	validCreate := func() company.CreateCompanyDTO {
		return company.CreateCompanyDTO{
			Name:     "Acme",
			Email:    "Hello@Acme.io",
			Industry: "Technology",
			Size:     "11-50",
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockRepository()
		users = &mockUsers{
			users: map[string]*user.User{
				"owner": newUser("owner"),
				"u2":    newUser("u2"),
			},
			cache: map[string]string{},
		}
		broadcaster = &capturingBroadcaster{}
		recorder = &capturingRecorder{}
		service = company.NewService(repo, company.Dependencies{
			Users:       users,
			Dashboards:  countingDashboards{count: 3},
			Activities:  staticActivities{},
			Recorder:    recorder,
			Broadcaster: broadcaster,
		}, logger.Discard())
	})

	Describe("Create", func() {
		It("should create a company owned by the caller", func() {
			c, err := service.Create(ctx, "owner", validCreate())

			Expect(err).NotTo(HaveOccurred())
			Expect(c.Email).To(Equal("hello@acme.io"))
			Expect(c.OwnerID).To(Equal("owner"))
			role, ok := c.RoleOf("owner")
			Expect(ok).To(BeTrue())
			Expect(role).To(Equal(auth.RoleOwner))
			Expect(users.cache).To(HaveKeyWithValue("owner", c.ID))
			Expect(recorder.entries).To(HaveLen(1))
			Expect(recorder.entries[0].Action).To(Equal(activity.ActionCompanyCreated))
		})

		It("should refuse a second company for the same owner", func() {
			_, err := service.Create(ctx, "owner", validCreate())
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(ctx, "owner", validCreate())

			Expect(errors.Is(err, internal.ErrCompanyOwned)).To(BeTrue())
		})

		It("should validate the industry", func() {
			dto := validCreate()
			dto.Industry = "Mining"

			_, err := service.Create(ctx, "owner", dto)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		})
	})

	Describe("membership", func() {
		var c *company.Company

		BeforeEach(func() {
			var err error
			c, err = service.Create(ctx, "owner", validCreate())
			Expect(err).NotTo(HaveOccurred())
		})

		It("should add a member by email and broadcast it", func() {
			m, err := service.AddMember(ctx, c, "owner", company.AddMemberDTO{Email: "u2@example.com", Role: "manager"})

			Expect(err).NotTo(HaveOccurred())
			Expect(m.UserID).To(Equal("u2"))
			Expect(broadcaster.topics).To(ContainElement(events.CompanyTopic(c.ID)))
			Expect(broadcaster.types).To(ContainElement(events.EventTypeMemberAdded))
		})

		It("should add a member by id", func() {
			_, err := service.AddMember(ctx, c, "owner", company.AddMemberDTO{UserID: "u2", Role: "viewer"})

			Expect(err).NotTo(HaveOccurred())
			Expect(c.IsMember("u2")).To(BeTrue())
		})

		It("should report an unknown user", func() {
			_, err := service.AddMember(ctx, c, "owner", company.AddMemberDTO{Email: "ghost@example.com", Role: "viewer"})

			Expect(errors.Is(err, internal.ErrUserNotFound)).To(BeTrue())
		})

		It("should reject a duplicate member", func() {
			_, err := service.AddMember(ctx, c, "owner", company.AddMemberDTO{UserID: "u2", Role: "viewer"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.AddMember(ctx, c, "owner", company.AddMemberDTO{UserID: "u2", Role: "admin"})

			Expect(errors.Is(err, internal.ErrAlreadyMember)).To(BeTrue())
		})

		It("should reject an invalid role before looking up the user", func() {
			_, err := service.AddMember(ctx, c, "owner", company.AddMemberDTO{UserID: "u2", Role: "boss"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
		})

		It("should remove a member and broadcast it", func() {
			_, _ = service.AddMember(ctx, c, "owner", company.AddMemberDTO{UserID: "u2", Role: "viewer"})

			Expect(service.RemoveMember(ctx, c, "owner", "u2")).To(Succeed())
			Expect(repo.removed).To(ConsistOf("u2"))
			Expect(broadcaster.types).To(ContainElement(events.EventTypeMemberRemoved))
		})

		It("should forbid removing the owner", func() {
			err := service.RemoveMember(ctx, c, "owner", "owner")

			Expect(errors.Is(err, internal.ErrOwnerRemoval)).To(BeTrue())
			Expect(repo.removed).To(BeEmpty())
		})

		It("should paginate and filter members", func() {
			_, _ = service.AddMember(ctx, c, "owner", company.AddMemberDTO{UserID: "u2", Role: "viewer"})

			page := service.GetMembers(ctx, c, company.MembersQuery{Page: 1, PageSize: 1})
			Expect(page.Members).To(HaveLen(1))
			Expect(page.Total).To(Equal(2))
			Expect(page.TotalPages).To(Equal(2))

			viewers := service.GetMembers(ctx, c, company.MembersQuery{Role: auth.RoleViewer})
			Expect(viewers.Members).To(HaveLen(1))
			Expect(viewers.Members[0].UserID).To(Equal("u2"))

			beyond := service.GetMembers(ctx, c, company.MembersQuery{Page: 9, PageSize: 5})
			Expect(beyond.Members).To(BeEmpty())
		})
	})

	Describe("Update", func() {
		It("should apply allow-listed fields and report them", func() {
			c, _ := service.Create(ctx, "owner", validCreate())
			name := "Acme Corp"

			updated, err := service.Update(ctx, c, "owner", company.UpdateCompanyDTO{
				Name:     &name,
				Settings: map[string]interface{}{"currency": "EUR"},
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("Acme Corp"))
			Expect(updated.Settings).To(HaveKeyWithValue("currency", "EUR"))
			Expect(updated.Settings).To(HaveKeyWithValue("language", "en"))
			Expect(broadcaster.types).To(ContainElement(events.EventTypeCompanyUpdated))
		})
	})

	Describe("ListForUser", func() {
		It("should include the caller's role", func() {
			_, _ = service.Create(ctx, "owner", validCreate())

			list, err := service.ListForUser(ctx, "owner")

			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].UserRole).To(Equal(auth.RoleOwner))
			Expect(list[0].Access.Administer).To(BeTrue())
			Expect(list[0].Access.ManageMembers).To(BeTrue())
		})
	})

	Describe("Statistics", func() {
		It("should combine counts and recent activity", func() {
			c, _ := service.Create(ctx, "owner", validCreate())

			stats, err := service.Statistics(ctx, c)

			Expect(err).NotTo(HaveOccurred())
			Expect(stats.MemberCount).To(Equal(1))
			Expect(stats.DashboardCount).To(Equal(int64(3)))
			Expect(stats.SubscriptionActive).To(BeTrue())
			Expect(stats.RecentActivity).To(HaveLen(1))
		})
	})
})
