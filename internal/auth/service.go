package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/bizanalytics/internal"
	"github.com/frahmantamala/bizanalytics/internal/activity"
	"github.com/frahmantamala/bizanalytics/internal/user"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the credential side of the users table.
type UserRepository interface {
	GetByLogin(ctx context.Context, login string) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
	// FindConflict returns the conflict error for the first taken unique field, or nil.
	FindConflict(ctx context.Context, email, username string, phone *string) error
	Create(ctx context.Context, u *user.User) error
}

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO) (*AuthResponse, error)
	Authenticate(ctx context.Context, dto LoginDTO) (*AuthResponse, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	Identify(ctx context.Context, accessToken string) (*Claims, error)
	Logout(ctx context.Context, userID string)
}

// Service is the main auth service with dependencies
type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
	recorder       activity.Recorder
	bcryptCost     int
	logger         *slog.Logger
}

func NewService(userRepo UserRepository, tokenGen TokenGenerator, recorder activity.Recorder, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		recorder:       recorder,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*AuthResponse, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.userRepo.FindConflict(ctx, dto.Email, dto.Username, dto.Phone); err != nil {
		return nil, err
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	now := time.Now().UTC()
	u := &user.User{
		ID:           uuid.NewString(),
		Username:     dto.Username,
		Email:        dto.Email,
		Phone:        dto.Phone,
		PasswordHash: hash,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		Role:         user.GlobalRoleUser,
		Active:       true,
		LastActiveAt: &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		s.logger.Error("failed to create user", "email", dto.Email, "error", err)
		return nil, err
	}

	tokens, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", u.ID)
	s.record(ctx, u, activity.ActionRegister)

	return &AuthResponse{User: u, Tokens: tokens}, nil
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.userRepo.GetByLogin(ctx, dto.Identifier())
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		return nil, internal.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}

	s.record(ctx, u, activity.ActionLogin)
	return &AuthResponse{User: u, Tokens: tokens}, nil
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	u, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return AuthTokens{}, internal.ErrInvalidToken
		}
		return AuthTokens{}, err
	}

	return s.issueTokens(u)
}

// Identify resolves the caller behind an access token and confirms the user still exists.
func (s *Service) Identify(ctx context.Context, accessToken string) (*Claims, error) {
	claims, err := s.tokenGenerator.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrInvalidToken
		}
		return nil, err
	}
	return claims, nil
}

func (s *Service) Logout(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return
	}
	s.record(ctx, u, activity.ActionLogout)
}

func (s *Service) issueTokens(u *user.User) (AuthTokens, error) {
	access, err := s.tokenGenerator.GenerateAccessToken(u.ID, u.Email, u.Username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue access token", err)
	}
	refresh, err := s.tokenGenerator.GenerateRefreshToken(u.ID, u.Email, u.Username)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue refresh token", err)
	}

	tokens := AuthTokens{AccessToken: access, RefreshToken: refresh}
	if gen, ok := s.tokenGenerator.(*JWTTokenGenerator); ok {
		tokens.ExpiresAt = gen.now().Add(gen.AccessTokenTTL).UTC()
	}
	return tokens, nil
}

func (s *Service) record(ctx context.Context, u *user.User, action activity.Action) {
	if s.recorder == nil || u.CompanyID == nil {
		return
	}
	s.recorder.Record(ctx, activity.NewEntry(ctx, *u.CompanyID, u.ID, action, activity.CategoryAuth, map[string]interface{}{
		"username": u.Username,
	}))
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(hash), nil
}
