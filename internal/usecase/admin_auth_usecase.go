package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type AdminAuthUsecase struct {
	users  repo.AdminUserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewAdminAuthUsecase(users repo.AdminUserRepository, jwtSecret string, ttl time.Duration, logger *zap.Logger) *AdminAuthUsecase {
	return &AdminAuthUsecase{
		users:  users,
		secret: []byte(jwtSecret),
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

type AdminLoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AdminLoginOutput struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   int             `json:"expires_in"`
	User        model.AdminUser `json:"user"`
}

// Seed makes sure the configured admin account exists.
func (u *AdminAuthUsecase) Seed(ctx context.Context, email string, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin, err := u.users.EnsureAdmin(ctx, email, string(hash))
	if err != nil {
		return err
	}
	u.logger.Info("admin account ready", zap.Int64("admin_id", admin.ID), zap.String("email", admin.Email))
	return nil
}

func (u *AdminAuthUsecase) Login(ctx context.Context, in AdminLoginInput) (AdminLoginOutput, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return AdminLoginOutput{}, NewHTTPError(http.StatusBadRequest, "email and password required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrUserNotFound) {
		return AdminLoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		u.logger.Error("find admin", zap.Error(err))
		return AdminLoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return AdminLoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return AdminLoginOutput{}, NewHTTPError(http.StatusForbidden, "account disabled")
	}

	if err := u.users.TouchLastLogin(ctx, user.ID); err != nil {
		u.logger.Warn("touch last login", zap.Int64("admin_id", user.ID), zap.Error(err))
	}

	token, err := u.issueAccessToken(user)
	if err != nil {
		u.logger.Error("sign admin token", zap.Error(err))
		return AdminLoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return AdminLoginOutput{
		AccessToken: token,
		ExpiresIn:   int(u.ttl.Seconds()),
		User:        *user,
	}, nil
}

func (u *AdminAuthUsecase) issueAccessToken(user *model.AdminUser) (string, error) {
	now := u.now()

	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(u.ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(u.secret)
}
