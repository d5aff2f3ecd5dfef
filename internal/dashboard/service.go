package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/activity"
	"github.com/frahmantamala/bizanalytics/internal/company"
	"github.com/frahmantamala/bizanalytics/internal/core/events"
)

type RepositoryAPI interface {
	Create(ctx context.Context, d *Dashboard) error
	GetByID(ctx context.Context, id string) (*Dashboard, error)
	// ListForUser returns the caller's own dashboards, default first, then most recently viewed.
	ListForUser(ctx context.Context, userID, companyID string) ([]*Dashboard, error)
	ListTemplates(ctx context.Context, category string) ([]*Dashboard, error)
	// Save writes d only if the stored version still equals d.Version, then bumps d.Version.
	Save(ctx context.Context, d *Dashboard) error
	Delete(ctx context.Context, id string) error
	IncrementView(ctx context.Context, id string, at time.Time) error
	CountByCompany(ctx context.Context, companyID string) (int64, error)
}

type CompanyDirectory interface {
	GetByID(ctx context.Context, id string) (*company.Company, error)
}

type QuotaChecker interface {
	CanCreateDashboard(ctx context.Context, c *company.Company) (bool, error)
}

type ServiceAPI interface {
	Create(ctx context.Context, userID string, dto CreateDashboardDTO) (*Dashboard, error)
	List(ctx context.Context, userID, companyID string) ([]*Dashboard, error)
	Templates(ctx context.Context, category string) ([]*Dashboard, error)
	View(ctx context.Context, d *Dashboard) *Dashboard
	Update(ctx context.Context, d *Dashboard, userID string, dto UpdateDashboardDTO) (*Dashboard, error)
	Delete(ctx context.Context, d *Dashboard, userID string) error
	Share(ctx context.Context, d *Dashboard, userID string, dto ShareDTO) (*ShareResponse, error)
	Clone(ctx context.Context, d *Dashboard, userID string, dto CloneDTO) (*Dashboard, error)
	AddWidget(ctx context.Context, d *Dashboard, userID string, w Widget) (*Widget, error)
	UpdateWidget(ctx context.Context, d *Dashboard, userID, widgetID string, patch WidgetPatch) (*WidgetResponse, error)
	RemoveWidget(ctx context.Context, d *Dashboard, userID, widgetID string) (*WidgetResponse, error)
}

type Dependencies struct {
	Companies   CompanyDirectory
	Quota       QuotaChecker
	Recorder    activity.Recorder
	Broadcaster events.Broadcaster
}

type Service struct {
	repo        RepositoryAPI
	companies   CompanyDirectory
	quota       QuotaChecker
	recorder    activity.Recorder
	broadcaster events.Broadcaster
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(repo RepositoryAPI, deps Dependencies, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		companies:   deps.Companies,
		quota:       deps.Quota,
		recorder:    deps.Recorder,
		broadcaster: deps.Broadcaster,
		logger:      logger,
		now:         time.Now,
	}
}

// memberCompany loads companyID and requires userID to belong to it.
func (s *Service) memberCompany(ctx context.Context, companyID, userID string) (*company.Company, error) {
	c, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !c.IsMember(userID) {
		return nil, internal.ErrNotMember
	}
	return c, nil
}

func (s *Service) ensureQuota(ctx context.Context, c *company.Company) error {
	ok, err := s.quota.CanCreateDashboard(ctx, c)
	if err != nil {
		return err
	}
	if !ok {
		return internal.ErrQuotaExceeded
	}
	return nil
}

func (s *Service) Create(ctx context.Context, userID string, dto CreateDashboardDTO) (*Dashboard, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c, err := s.memberCompany(ctx, dto.CompanyID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureQuota(ctx, c); err != nil {
		return nil, err
	}

	d := New(userID, c.ID, dto.Name, s.now().UTC())
	d.Description = dto.Description
	d.TemplateCategory = dto.TemplateCategory
	d.IsDefault = dto.IsDefault
	if dto.Type != "" {
		d.Type = Type(dto.Type)
	}
	if dto.Layout != nil {
		d.Layout = *dto.Layout
	}
	if dto.Theme != nil {
		d.Theme = *dto.Theme
	}
	if dto.Tags != nil {
		d.Tags = dto.Tags
	}
	for _, w := range dto.Widgets {
		if _, err := d.AddWidget(w); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info("dashboard created", "dashboard_id", d.ID, "company_id", d.CompanyID, "user_id", userID)
	s.record(ctx, d, userID, activity.ActionDashboardCreated, map[string]interface{}{"name": d.Name})
	s.publish(ctx, d, userID, "created")
	return d, nil
}

func (s *Service) List(ctx context.Context, userID, companyID string) ([]*Dashboard, error) {
	list, err := s.repo.ListForUser(ctx, userID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dashboards: %w", err)
	}
	return list, nil
}

func (s *Service) Templates(ctx context.Context, category string) ([]*Dashboard, error) {
	list, err := s.repo.ListTemplates(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return list, nil
}

// View records a read of d. A failed counter update is logged, the read still succeeds.
func (s *Service) View(ctx context.Context, d *Dashboard) *Dashboard {
	now := s.now().UTC()
	if err := s.repo.IncrementView(ctx, d.ID, now); err != nil {
		s.logger.Warn("failed to record dashboard view", "dashboard_id", d.ID, "error", err)
		return d
	}
	d.RecordView(now)
	return d
}

func (s *Service) Update(ctx context.Context, d *Dashboard, userID string, dto UpdateDashboardDTO) (*Dashboard, error) {
	// isDefault only orders the owner's own list
	if dto.IsDefault != nil && *dto.IsDefault != d.IsDefault && userID != d.UserID {
		return nil, internal.ErrDefaultOwnerOnly
	}
	changed, err := d.Update(dto)
	if err != nil {
		return nil, err
	}
	if len(changed) == 0 {
		return d, nil
	}

	if err := s.save(ctx, d); err != nil {
		return nil, err
	}

	s.record(ctx, d, userID, activity.ActionDashboardUpdated, map[string]interface{}{"fields": changed})
	s.publish(ctx, d, userID, "updated")
	return d, nil
}

func (s *Service) Delete(ctx context.Context, d *Dashboard, userID string) error {
	if err := s.repo.Delete(ctx, d.ID); err != nil {
		return err
	}

	s.logger.Info("dashboard deleted", "dashboard_id", d.ID, "user_id", userID)
	s.record(ctx, d, userID, activity.ActionDashboardDeleted, map[string]interface{}{"name": d.Name})
	s.publish(ctx, d, userID, "deleted")
	return nil
}

func (s *Service) Share(ctx context.Context, d *Dashboard, userID string, dto ShareDTO) (*ShareResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	added, err := d.Share(dto.UserIDs, SharePermission(dto.Permission), s.now().UTC())
	if err != nil {
		return nil, err
	}
	if added == nil {
		added = []string{}
	}
	if len(added) == 0 {
		return &ShareResponse{Dashboard: d, Added: added}, nil
	}

	if err := s.save(ctx, d); err != nil {
		return nil, err
	}

	s.record(ctx, d, userID, activity.ActionDashboardShared, map[string]interface{}{
		"shared_with": added,
		"permission":  dto.Permission,
	})
	s.publish(ctx, d, userID, "shared")
	return &ShareResponse{Dashboard: d, Added: added}, nil
}

// Clone copies d into the target company (d's own company by default). The
// caller must belong to the target company and it must have quota left.
func (s *Service) Clone(ctx context.Context, d *Dashboard, userID string, dto CloneDTO) (*Dashboard, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	target := dto.CompanyID
	if target == "" {
		target = d.CompanyID
	}
	c, err := s.memberCompany(ctx, target, userID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureQuota(ctx, c); err != nil {
		return nil, err
	}

	clone, err := d.Clone(userID, c.ID, dto.Name, s.now().UTC())
	if err != nil {
		s.logger.Error("failed to copy dashboard for clone", "dashboard_id", d.ID, "error", err)
		return nil, internal.NewInternalError("Failed to clone dashboard", err)
	}
	if err := s.repo.Create(ctx, clone); err != nil {
		return nil, err
	}

	s.record(ctx, clone, userID, activity.ActionDashboardCloned, map[string]interface{}{"source_id": d.ID})
	s.publish(ctx, clone, userID, "created")
	return clone, nil
}

func (s *Service) AddWidget(ctx context.Context, d *Dashboard, userID string, w Widget) (*Widget, error) {
	added, err := d.AddWidget(w)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}

	s.record(ctx, d, userID, activity.ActionWidgetAdded, map[string]interface{}{"widget_id": added.ID, "type": string(added.Type)})
	s.publish(ctx, d, userID, "widget_added")
	return &added, nil
}

// UpdateWidget is a no-op for an unknown widget id.
func (s *Service) UpdateWidget(ctx context.Context, d *Dashboard, userID, widgetID string, patch WidgetPatch) (*WidgetResponse, error) {
	changed, err := d.UpdateWidget(widgetID, patch)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &WidgetResponse{Changed: false}, nil
	}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}

	w, _ := d.Widget(widgetID)
	s.record(ctx, d, userID, activity.ActionWidgetUpdated, map[string]interface{}{"widget_id": widgetID})
	s.publish(ctx, d, userID, "widget_updated")
	return &WidgetResponse{Widget: &w, Changed: true}, nil
}

// RemoveWidget is idempotent.
func (s *Service) RemoveWidget(ctx context.Context, d *Dashboard, userID, widgetID string) (*WidgetResponse, error) {
	if !d.RemoveWidget(widgetID) {
		return &WidgetResponse{Changed: false}, nil
	}
	if err := s.save(ctx, d); err != nil {
		return nil, err
	}

	s.record(ctx, d, userID, activity.ActionWidgetRemoved, map[string]interface{}{"widget_id": widgetID})
	s.publish(ctx, d, userID, "widget_removed")
	return &WidgetResponse{Changed: true}, nil
}

func (s *Service) save(ctx context.Context, d *Dashboard) error {
	d.UpdatedAt = s.now().UTC()
	return s.repo.Save(ctx, d)
}

func (s *Service) record(ctx context.Context, d *Dashboard, userID string, action activity.Action, details map[string]interface{}) {
	if s.recorder == nil {
		return
	}
	if details == nil {
		details = map[string]interface{}{}
	}
	details["dashboard_id"] = d.ID
	s.recorder.Record(ctx, activity.NewEntry(ctx, d.CompanyID, userID, action, activity.CategoryDashboard, details))
}

func (s *Service) publish(ctx context.Context, d *Dashboard, userID, change string) {
	if s.broadcaster == nil {
		return
	}
	evt := events.NewDashboardUpdatedEvent(d.ID, userID, change)
	if err := s.broadcaster.Publish(ctx, events.CompanyTopic(d.CompanyID), evt); err != nil {
		s.logger.Warn("failed to broadcast dashboard event", "dashboard_id", d.ID, "error", err)
	}
}
