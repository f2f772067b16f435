package service

import (
	"context"
	"errors"
	"strings"

	"go-sales-ledger/internal/apperr"
	"go-sales-ledger/internal/model"
	"go-sales-ledger/internal/repository"
	"go-sales-ledger/pkg/jwt"
	"go-sales-ledger/pkg/metrics"
	"go-sales-ledger/pkg/password"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgTokenInvalid       = "Token invalid!"
	msgEmailTaken         = "Email has been registered!"
)

type RegisterRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=30"`
	PhoneNumber string `json:"phoneNumber" validate:"required,digits,min=9,max=14"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LoginResponse flattens the user's public fields next to the tokens.
// ExpiresIn is the access token's expiry in epoch milliseconds.
type LoginResponse struct {
	model.UserResponse
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*model.UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*RefreshResponse, error)
	// Authenticate resolves an access token to the user it names.
	Authenticate(ctx context.Context, accessToken string) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	hasher   password.Hasher
	tokens   *jwt.Manager
	metrics  *metrics.Metrics
}

func NewAuthService(userRepo repository.UserRepository, hasher password.Hasher, tokens *jwt.Manager, m *metrics.Metrics) AuthService {
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		metrics:  m,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (_ *model.UserResponse, err error) {
	defer func() { s.metrics.AuthAttempt("register", err) }()

	req.Email = normalizeEmail(req.Email)
	if err := validate(&req); err != nil {
		return nil, err
	}

	// 1. Email must be free
	_, err = s.userRepo.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, apperr.Conflict(msgEmailTaken)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperr.Internal("Failed to register", err)
	}

	// 2. Hash with a fresh salt
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Internal("Failed to register", err)
	}

	// 3. Persist; the unique index settles concurrent registrations
	user := &model.User{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Password:    hash,
	}
	if err = s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperr.Conflict(msgEmailTaken)
		}
		return nil, apperr.Internal("Failed to register", err)
	}

	resp := user.ToResponse()
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (_ *LoginResponse, err error) {
	defer func() { s.metrics.AuthAttempt("login", err) }()

	req.Email = normalizeEmail(req.Email)
	if err := validate(&req); err != nil {
		return nil, err
	}

	// 1. Unknown email and wrong password fail identically
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized(msgInvalidCredentials)
		}
		return nil, apperr.Internal("Failed to login", err)
	}
	if !s.hasher.Compare(user.Password, req.Password) {
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	// 2. Issue both tokens
	pair, err := s.tokens.IssuePair(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal("Failed to login", err)
	}

	// 3. The new refresh token replaces any previous session
	if err = s.userRepo.UpdateRefreshToken(ctx, user.ID, &pair.RefreshToken); err != nil {
		return nil, apperr.Internal("Failed to login", err)
	}

	return &LoginResponse{
		UserResponse: user.ToResponse(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.AccessExpiresAt.UnixMilli(),
	}, nil
}

func (s *authService) Refresh(ctx context.Context, req RefreshRequest) (_ *RefreshResponse, err error) {
	defer func() { s.metrics.AuthAttempt("refresh", err) }()

	if err := validate(&req); err != nil {
		return nil, err
	}

	claims, err := s.tokens.VerifyRefresh(req.RefreshToken)
	if err != nil {
		return nil, apperr.Unauthorized(msgTokenInvalid)
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized(msgTokenInvalid)
		}
		return nil, apperr.Internal("Failed to refresh token", err)
	}
	// Only the most recently issued refresh token is honoured.
	if user.RefreshToken == nil || *user.RefreshToken != req.RefreshToken {
		return nil, apperr.Unauthorized(msgTokenInvalid)
	}

	token, expiresAt, err := s.tokens.IssueAccess(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal("Failed to refresh token", err)
	}
	return &RefreshResponse{AccessToken: token, ExpiresIn: expiresAt.UnixMilli()}, nil
}

func (s *authService) Authenticate(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, apperr.Unauthorized(msgTokenInvalid)
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized(msgTokenInvalid)
		}
		return nil, apperr.Internal("Failed to authenticate", err)
	}
	return user, nil
}
