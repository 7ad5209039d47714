package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/KobiNisim21/destiny-commerce/internal/domain/user"
	xerrors "github.com/KobiNisim21/destiny-commerce/internal/pkg/errors"
	"github.com/KobiNisim21/destiny-commerce/internal/pkg/jwt"
	"github.com/KobiNisim21/destiny-commerce/internal/pkg/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Store is the user repository surface the auth service needs.
type Store interface {
	Create(ctx context.Context, u *user.User) error
	FindByID(ctx context.Context, id int64) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	UpdateProfile(ctx context.Context, u *user.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type AuthService struct {
	users       Store
	jwtManager  *jwt.Manager
	sessions    *session.Manager
	rateLimiter *session.RateLimiter
	logger      *zap.Logger
}

func NewAuthService(
	users Store,
	jwtManager *jwt.Manager,
	sessions *session.Manager,
	rateLimiter *session.RateLimiter,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		jwtManager:  jwtManager,
		sessions:    sessions,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// Register creates a customer account.
func (s *AuthService) Register(ctx context.Context, req *user.RegisterRequest) (*user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Phone:        sql.NullString{String: req.Phone, Valid: req.Phone != ""},
		Role:         user.RoleCustomer,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", u.ID))
	return u, nil
}

// Login verifies credentials, mints a token and records its session.
// ip feeds the login rate limiter.
func (s *AuthService) Login(ctx context.Context, req *user.LoginRequest, ip, userAgent string) (*user.LoginResponse, error) {
	allowed, _, err := s.rateLimiter.CheckLoginAttempt(ctx, ip, req.Email)
	if err != nil {
		s.logger.Warn("login rate limiter unavailable", zap.Error(err))
	} else if !allowed {
		return nil, xerrors.ErrRateLimited
	}

	u, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if !u.IsActive {
		return nil, xerrors.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, xerrors.ErrUnauthorized
	}

	token, jti, err := s.jwtManager.Generator.GenerateAccessToken(u.ID, u.Email, []string{string(u.Role)})
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now()
	if err := s.sessions.CreateSession(ctx, &session.SessionData{
		JTI:            jti,
		UserID:         u.ID,
		Email:          u.Email,
		Roles:          []string{string(u.Role)},
		IP:             ip,
		UserAgent:      userAgent,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(s.jwtManager.Generator.TTL),
	}); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.rateLimiter.ResetLoginAttempts(ctx, ip, req.Email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	s.logger.Info("user logged in", zap.Int64("user_id", u.ID))

	return &user.LoginResponse{Token: token, User: u}, nil
}

// ValidateToken verifies a JWT and checks its session has not been revoked.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.Verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	if _, err := s.sessions.GetSession(ctx, claims.UserID, claims.ID); err != nil {
		return nil, fmt.Errorf("session revoked or expired: %w", err)
	}

	return claims, nil
}

// Logout revokes the session behind the presented token.
func (s *AuthService) Logout(ctx context.Context, userID int64, jti string) error {
	return s.sessions.RevokeSession(ctx, userID, jti)
}

// GetUser returns the account behind an authenticated principal.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (*user.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateProfile updates name and phone.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req *user.UpdateProfileRequest) (*user.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	if req.Phone != nil {
		u.Phone = sql.NullString{String: *req.Phone, Valid: *req.Phone != ""}
	}

	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every other session.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req *user.ChangePasswordRequest) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return xerrors.ErrUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	if err := s.sessions.RevokeAllSessions(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions after password change", zap.Error(err))
	}

	s.logger.Info("password changed", zap.Int64("user_id", userID))
	return nil
}

// EnsureAdminExists creates the back-office admin account on first boot.
func (s *AuthService) EnsureAdminExists(ctx context.Context, email, password, fullName string) error {
	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, xerrors.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	u := &user.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         user.RoleAdmin,
		IsActive:     true,
	}

	if err := s.users.Create(ctx, u); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info("admin account created", zap.String("email", email))
	return nil
}
