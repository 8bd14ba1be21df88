package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"openshelf/internal/apperr"
	"openshelf/internal/auth"
	"openshelf/internal/model"
	"openshelf/internal/repository"
)

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Issue(uid model.UserID) (string, error)
	Verify(token string) (model.UserID, error)
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// AuthService registers users, logs them in and resolves bearer tokens.
type AuthService interface {
	Signup(ctx context.Context, name, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// Authenticate resolves a bearer token to an existing user.
	Authenticate(ctx context.Context, token string) (model.UserID, error)
}

type authService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	now    func() time.Time
}

// NewAuthService constructs an AuthService.
func NewAuthService(users repository.UserRepository, tokens TokenIssuer) AuthService {
	return &authService{users: users, tokens: tokens, now: time.Now}
}

func (s *authService) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperr.Validation("Email already used")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Create(ctx, &model.User{
		ID:           model.UserID(uuid.NewString()),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.Validation("Email already used")
		}
		return nil, err
	}
	return s.result(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Validation("wrong email or password")
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, apperr.Validation("wrong email or password")
		}
		return nil, err
	}
	return s.result(user)
}

func (s *authService) Authenticate(ctx context.Context, token string) (model.UserID, error) {
	uid, err := s.tokens.Verify(token)
	if err != nil {
		return "", apperr.Unauthorized("Unauthorized", err)
	}
	if _, err := s.users.FindByID(ctx, uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.Unauthorized("Unauthorized", err)
		}
		return "", err
	}
	return uid, nil
}

func (s *authService) result(u *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u.Public()}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
