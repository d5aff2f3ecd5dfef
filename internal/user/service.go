package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/bizanalytics/internal/core/events"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// MarkActive stamps last activity and reports whether the user was inactive before.
	MarkActive(ctx context.Context, id string, at time.Time) (bool, error)
	// MarkInactiveBefore flips every active user silent since cutoff and returns them.
	MarkInactiveBefore(ctx context.Context, cutoff time.Time) ([]*User, error)
	SetCompany(ctx context.Context, id, companyID string) error
}

type Service struct {
	repo        RepositoryAPI
	broadcaster events.Broadcaster
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(repo RepositoryAPI, broadcaster events.Broadcaster, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// SetCompany refreshes the convenience company reference on the user row.
func (s *Service) SetCompany(ctx context.Context, userID, companyID string) error {
	if err := s.repo.SetCompany(ctx, userID, companyID); err != nil {
		return fmt.Errorf("failed to set user company: %w", err)
	}
	return nil
}

// Touch records activity for userID and announces the user on their company room
// when they come back online.
func (s *Service) Touch(ctx context.Context, userID string) error {
	becameActive, err := s.repo.MarkActive(ctx, userID, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark user active: %w", err)
	}
	if !becameActive {
		return nil
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("presence: user lookup failed", "user_id", userID, "error", err)
		return nil
	}
	s.announce(ctx, u, true)
	return nil
}

// SweepInactive marks users idle for longer than threshold inactive and returns how many changed.
func (s *Service) SweepInactive(ctx context.Context, threshold time.Duration) (int, error) {
	cutoff := s.now().UTC().Add(-threshold)
	users, err := s.repo.MarkInactiveBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep inactive users: %w", err)
	}

	for _, u := range users {
		s.announce(ctx, u, false)
	}
	if len(users) > 0 {
		s.logger.Info("presence sweep marked users inactive", "count", len(users), "cutoff", cutoff)
	}
	return len(users), nil
}

func (s *Service) announce(ctx context.Context, u *User, active bool) {
	if s.broadcaster == nil || u == nil || u.CompanyID == nil || *u.CompanyID == "" {
		return
	}
	topic := events.CompanyTopic(*u.CompanyID)
	if err := s.broadcaster.Publish(ctx, topic, events.NewPresenceEvent(u.ID, active)); err != nil {
		s.logger.Warn("presence broadcast failed", "user_id", u.ID, "topic", topic, "error", err)
	}
}
