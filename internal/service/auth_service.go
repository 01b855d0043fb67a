package service

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/docuvault/docuvault/internal/model"
	appErr "github.com/docuvault/docuvault/internal/pkg/errors"
	"github.com/docuvault/docuvault/internal/pkg/jwt"
	"github.com/docuvault/docuvault/internal/pkg/password"
	"github.com/docuvault/docuvault/internal/pkg/timeutil"
	"github.com/docuvault/docuvault/internal/repo"
)

type AuthService struct {
	users     *repo.UserRepo
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(users *repo.UserRepo, jwtSecret []byte, tokenTTL time.Duration) *AuthService {
	return &AuthService{users: users, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, appErr.ErrInvalid
	}
	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           newID(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashed,
		FullName:     input.FullName,
		IsActive:     true,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login verifies credentials and mints a token. Failures are logged without
// the submitted username or password; only the outcome is observable.
func (s *AuthService) Login(ctx context.Context, username, plainPassword string) (string, *model.User, error) {
	logger := logutil.GetLogger(ctx)
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if appErr.IsNotFound(err) {
			logger.Warn("login rejected: unknown user")
			return "", nil, appErr.ErrUnauthorized
		}
		return "", nil, err
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		logger.Warn("login rejected: bad credentials", zap.String("user_id", user.ID))
		return "", nil, appErr.ErrUnauthorized
	}
	if !user.IsActive {
		logger.Warn("login rejected: inactive user", zap.String("user_id", user.ID))
		return "", nil, appErr.ErrForbidden
	}
	token, err := jwt.GenerateToken(user.ID, user.Username, user.IsSuperuser, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", nil, err
	}
	logger.Info("login ok", zap.String("user_id", user.ID))
	return token, user, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) ListUsers(ctx context.Context, limit, offset uint) ([]model.User, error) {
	return s.users.List(ctx, limit, offset)
}
