package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/activity"
	"github.com/frahmantamala/bizanalytics/internal/auth"
	"github.com/frahmantamala/bizanalytics/internal/core/events"
	"github.com/frahmantamala/bizanalytics/internal/user"
	"github.com/google/uuid"
)

type RepositoryAPI interface {
	// Create stores the company together with its initial members.
	Create(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, id string) (*Company, error)
	ExistsByOwner(ctx context.Context, ownerID string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]*Company, error)
	Update(ctx context.Context, c *Company) error
	AddMember(ctx context.Context, companyID string, m Membership, position int) error
	// RemoveMember reports false when no row matched.
	RemoveMember(ctx context.Context, companyID, userID string) (bool, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	SetCompany(ctx context.Context, userID, companyID string) error
}

type DashboardCounter interface {
	CountByCompany(ctx context.Context, companyID string) (int64, error)
}

type ServiceAPI interface {
	Create(ctx context.Context, ownerID string, dto CreateCompanyDTO) (*Company, error)
	GetByID(ctx context.Context, id string) (*Company, error)
	ListForUser(ctx context.Context, userID string) ([]CompanyWithRole, error)
	Update(ctx context.Context, c *Company, actorID string, dto UpdateCompanyDTO) (*Company, error)
	GetMembers(ctx context.Context, c *Company, q MembersQuery) MembersPage
	AddMember(ctx context.Context, c *Company, actorID string, dto AddMemberDTO) (Membership, error)
	RemoveMember(ctx context.Context, c *Company, actorID, memberID string) error
	Statistics(ctx context.Context, c *Company) (*Statistics, error)
}

const recentActivityForStatistics = 5

type Service struct {
	repo        RepositoryAPI
	users       UserLookup
	dashboards  DashboardCounter
	activities  activity.ServiceAPI
	recorder    activity.Recorder
	broadcaster events.Broadcaster
	logger      *slog.Logger
	now         func() time.Time
}

type Dependencies struct {
	Users       UserLookup
	Dashboards  DashboardCounter
	Activities  activity.ServiceAPI
	Recorder    activity.Recorder
	Broadcaster events.Broadcaster
}

func NewService(repo RepositoryAPI, deps Dependencies, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		users:       deps.Users,
		dashboards:  deps.Dashboards,
		activities:  deps.Activities,
		recorder:    deps.Recorder,
		broadcaster: deps.Broadcaster,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) Create(ctx context.Context, ownerID string, dto CreateCompanyDTO) (*Company, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	owned, err := s.repo.ExistsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check company ownership: %w", err)
	}
	if owned {
		return nil, internal.ErrCompanyOwned
	}

	owner, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := New(uuid.NewString(), owner, dto.Name, dto.Email, now)
	c.Industry = Industry(dto.Industry)
	c.Size = Size(dto.Size)
	c.Website = dto.Website
	c.Phone = dto.Phone
	c.Address = dto.Address

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	if err := s.users.SetCompany(ctx, ownerID, c.ID); err != nil {
		s.logger.Warn("failed to cache company on owner", "company_id", c.ID, "user_id", ownerID, "error", err)
	}

	s.logger.Info("company created", "company_id", c.ID, "owner_id", ownerID)
	s.record(ctx, c.ID, ownerID, activity.ActionCompanyCreated, map[string]interface{}{"name": c.Name})
	return c, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Company, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]CompanyWithRole, error) {
	companies, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	out := make([]CompanyWithRole, 0, len(companies))
	for _, c := range companies {
		role, ok := c.RoleOf(userID)
		if !ok {
			continue
		}
		out = append(out, CompanyWithRole{Company: c, UserRole: role, Access: AccessFor(role)})
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, c *Company, actorID string, dto UpdateCompanyDTO) (*Company, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	changed := dto.Apply(c)
	if len(changed) == 0 {
		return c, nil
	}
	c.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.record(ctx, c.ID, actorID, activity.ActionCompanyUpdated, map[string]interface{}{"fields": changed})
	s.publish(ctx, c.ID, events.NewCompanyUpdatedEvent(c.ID, actorID, changed))
	return c, nil
}

func (s *Service) GetMembers(_ context.Context, c *Company, q MembersQuery) MembersPage {
	q.normalize()

	filtered := make([]Membership, 0, len(c.Members))
	for _, m := range c.Members {
		if q.Role != "" && m.Role != q.Role {
			continue
		}
		filtered = append(filtered, m)
	}

	total := len(filtered)
	start := (q.Page - 1) * q.PageSize
	if start > total {
		start = total
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}

	return MembersPage{
		Members:    filtered[start:end],
		Page:       q.Page,
		PageSize:   q.PageSize,
		Total:      total,
		TotalPages: (total + q.PageSize - 1) / q.PageSize,
	}
}

func (s *Service) AddMember(ctx context.Context, c *Company, actorID string, dto AddMemberDTO) (Membership, error) {
	if err := dto.Validate(); err != nil {
		return Membership{}, err
	}

	u, err := s.findUser(ctx, dto)
	if err != nil {
		return Membership{}, err
	}

	m, err := c.AddMember(u, auth.Role(dto.Role), s.now().UTC())
	if err != nil {
		return Membership{}, err
	}

	if err := s.repo.AddMember(ctx, c.ID, m, len(c.Members)-1); err != nil {
		return Membership{}, err
	}

	if u.CompanyID == nil {
		if err := s.users.SetCompany(ctx, u.ID, c.ID); err != nil {
			s.logger.Warn("failed to cache company on member", "company_id", c.ID, "user_id", u.ID, "error", err)
		}
	}

	s.logger.Info("member added", "company_id", c.ID, "user_id", u.ID, "role", m.Role)
	s.record(ctx, c.ID, actorID, activity.ActionMemberAdded, map[string]interface{}{
		"member_id": u.ID,
		"role":      string(m.Role),
	})
	s.publish(ctx, c.ID, events.NewMemberAddedEvent(c.ID, u.ID, string(m.Role)))
	return m, nil
}

func (s *Service) findUser(ctx context.Context, dto AddMemberDTO) (*user.User, error) {
	var (
		u   *user.User
		err error
	)
	if dto.UserID != "" {
		u, err = s.users.GetByID(ctx, dto.UserID)
	} else {
		u, err = s.users.GetByEmail(ctx, dto.Email)
	}
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) RemoveMember(ctx context.Context, c *Company, actorID, memberID string) error {
	if err := c.RemoveMember(memberID); err != nil {
		return err
	}

	removed, err := s.repo.RemoveMember(ctx, c.ID, memberID)
	if err != nil {
		return err
	}
	if !removed {
		return internal.ErrMemberNotFound
	}

	s.logger.Info("member removed", "company_id", c.ID, "user_id", memberID)
	s.record(ctx, c.ID, actorID, activity.ActionMemberRemoved, map[string]interface{}{"member_id": memberID})
	s.publish(ctx, c.ID, events.NewMemberRemovedEvent(c.ID, memberID))
	return nil
}

func (s *Service) Statistics(ctx context.Context, c *Company) (*Statistics, error) {
	stats := &Statistics{
		CompanyID:          c.ID,
		MemberCount:        len(c.Members),
		Plan:               c.Subscription.Plan,
		SubscriptionActive: c.SubscriptionActive(s.now()),
		ExpiresAt:          c.Subscription.ExpiresAt,
		Counters:           c.Statistics,
		RecentActivity:     []activity.Entry{},
	}

	if s.dashboards != nil {
		count, err := s.dashboards.CountByCompany(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count dashboards: %w", err)
		}
		stats.DashboardCount = count
	}

	if s.activities != nil {
		recent, err := s.activities.GetRecent(ctx, c.ID, recentActivityForStatistics)
		if err != nil {
			s.logger.Warn("failed to load recent activity", "company_id", c.ID, "error", err)
		} else {
			stats.RecentActivity = recent
		}
	}
	return stats, nil
}

func (s *Service) record(ctx context.Context, companyID, userID string, action activity.Action, details map[string]interface{}) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, activity.NewEntry(ctx, companyID, userID, action, activity.CategoryCompany, details))
}

func (s *Service) publish(ctx context.Context, companyID string, evt events.Event) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Publish(ctx, events.CompanyTopic(companyID), evt); err != nil {
		s.logger.Warn("failed to broadcast company event", "company_id", companyID, "event", evt.EventType(), "error", err)
	}
}
