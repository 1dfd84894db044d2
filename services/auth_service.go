package services

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/cppla/topicbbs/apperrors"
	"github.com/cppla/topicbbs/models"
	"github.com/cppla/topicbbs/store"
	"github.com/cppla/topicbbs/utils"
)

var passwordPattern = regexp.MustCompile(`^[a-zA-Z0-9@#$%^&*]+$`)

// TokenIssuer is implemented by utils.TokenManager.
type TokenIssuer interface {
	GenerateToken(userID, username string, roles []string) (string, *utils.Claims, error)
}

// TokenRevoker is implemented by utils.TokenBlacklist.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
}

// AuthService registers users and exchanges credentials for tokens.
type AuthService struct {
	users   store.UserStore
	tokens  TokenIssuer
	revoker TokenRevoker
}

// NewAuthService creates an AuthService.
func NewAuthService(users store.UserStore, tokens TokenIssuer, revoker TokenRevoker) *AuthService {
	return &AuthService{users: users, tokens: tokens, revoker: revoker}
}

// Register creates a user with a bcrypt credential and returns the new user.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if !passwordPattern.MatchString(password) {
		return nil, apperrors.Validation("password contains invalid characters")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.Validation("user already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Classify(err, "check existing user")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, "hash password", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	user.SetRoles([]string{models.RoleUser})
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, apperrors.Wrap(apperrors.ErrValidation, "user already exists", err)
		}
		return nil, apperrors.Classify(err, "create user")
	}
	return user, nil
}

// Login verifies the credential and issues a token bound to the user id.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Validation("user does not exist")
		}
		return nil, apperrors.Classify(err, "find user")
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, apperrors.Validation("invalid credential")
	}

	token, claims, err := s.tokens.GenerateToken(user.ID, user.Username, user.RoleList())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternal, "generate token", err)
	}
	return &LoginResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, UserID: user.ID}, nil
}

// Me returns the principal's user record.
func (s *AuthService) Me(ctx context.Context, principal string) (*models.User, error) {
	if principal == "" {
		return nil, apperrors.ErrUnauthorized
	}
	user, err := s.users.FindByID(ctx, principal)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	return user, nil
}

// Logout revokes the presented token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, claims *utils.Claims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return apperrors.ErrUnauthorized
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperrors.Classify(err, "revoke token")
	}
	return nil
}

func validateUsername(username string) error {
	switch n := utf8.RuneCountInString(username); {
	case n == 0:
		return apperrors.Validation("username is required")
	case n < 3:
		return apperrors.Validation("username must be at least 3 characters long")
	case n > 256:
		return apperrors.Validation("username must not exceed 256 characters")
	}
	return nil
}

func validateEmail(email string) error {
	switch n := len(email); {
	case n == 0:
		return apperrors.Validation("email is required")
	case n < 6:
		return apperrors.Validation("email must be at least 6 characters long")
	case n > 256:
		return apperrors.Validation("email must not exceed 256 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return apperrors.Validation("invalid email format")
	}
	return nil
}

func validatePassword(password string) error {
	switch n := len(password); {
	case n == 0:
		return apperrors.Validation("password is required")
	case n < 6:
		return apperrors.Validation("password must be at least 6 characters long")
	case n > 1024:
		return apperrors.Validation("password must not exceed 1024 characters")
	}
	return nil
}
