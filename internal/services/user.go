package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nimasrn/repair-desk/internal/auth"
	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/internal/repository"
	"github.com/nimasrn/repair-desk/pkg/logger"
)

type TokenIssuer interface {
	Issue(user *model.User) (string, time.Time, error)
}

type UserService struct {
	userRepo UserRepository
	tokens   TokenIssuer
}

func NewUserService(userRepo UserRepository, tokens TokenIssuer) *UserService {
	return &UserService{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Login checks the password and issues a bearer token. Unknown users and
// wrong passwords return the same error.
func (s *UserService) Login(ctx context.Context, p model.LoginRequest) (*model.LoginResponse, error) {
	username := strings.TrimSpace(p.Username)
	if username == "" || p.Password == "" {
		return nil, invalidf("username and password are required")
	}
	u, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, p.Password) {
		logger.Warn("login failed", "username", username)
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrInactiveUser
	}

	token, expiresAt, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, ExpiresAt: expiresAt, User: u}, nil
}

func (s *UserService) Me(ctx context.Context, actor *model.Actor) (*model.User, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	return s.userRepo.GetByID(ctx, actor.UserID)
}

func (s *UserService) List(ctx context.Context, actor *model.Actor, f model.UserFilter) ([]*model.User, int64, error) {
	if !actor.Is(model.RoleAdmin) {
		return nil, 0, ErrForbidden
	}
	if f.Role != nil && !f.Role.Valid() {
		return nil, 0, invalidf("role is invalid")
	}
	return s.userRepo.List(ctx, f)
}

func (s *UserService) Create(ctx context.Context, actor *model.Actor, p model.UserCreateRequest) (*model.User, error) {
	if !actor.Is(model.RoleAdmin) {
		return nil, ErrForbidden
	}
	p.Username = strings.TrimSpace(p.Username)
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}
	hash, err := auth.HashPassword(p.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Username:     p.Username,
		Email:        strings.TrimSpace(p.Email),
		Phone:        strings.TrimSpace(p.Phone),
		PasswordHash: hash,
		Role:         p.Role,
		FullName:     p.FullName,
		Active:       true,
	}
	if p.Role.IsSupplier() {
		u.SupplierName = p.SupplierName
	}
	created, err := s.userRepo.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	logger.Info("user created", "user_id", created.ID, "role", created.Role, "by", actor.Username)
	return created, nil
}
