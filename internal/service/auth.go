package service

import (
	"context"
	"regexp"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cypherd/walletBackend/internal/config"
	"github.com/cypherd/walletBackend/internal/errors"
	"github.com/cypherd/walletBackend/internal/model"
	"github.com/cypherd/walletBackend/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// AuthService handles account lifecycle and JWT issuance.
type AuthService interface {
	Signup(ctx context.Context, req model.SignupRequest) (*model.AuthResult, error)
	Signin(ctx context.Context, req model.SigninRequest) (*model.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*model.AuthResult, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, patch model.ProfilePatch) (*model.UserResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req model.ChangePasswordRequest) error

	ParseToken(tokenString, wantType string) (uuid.UUID, error)
}

type authService struct {
	userRepo repository.UserRepository
	jwtCfg   config.JWTConfig
	logger   *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, jwtCfg config.JWTConfig, logger *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		jwtCfg:   jwtCfg,
		logger:   logger,
	}
}

func (s *authService) Signup(ctx context.Context, req model.SignupRequest) (*model.AuthResult, error) {
	const op = "service.Signup"

	if !emailPattern.MatchString(req.Email) {
		return nil, errors.NewInvalidInput(op, "invalid email format")
	}
	if msg := validatePassword(req.Password); msg != "" {
		return nil, errors.NewInvalidInput(op, msg)
	}

	if _, err := s.userRepo.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, errors.NewConflict(op, "email already registered")
	} else if !errors.IsNotFound(err) {
		return nil, errors.WrapInternal(op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if req.FirstName != "" {
		user.FirstName = &req.FirstName
	}
	if req.LastName != "" {
		user.LastName = &req.LastName
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, errors.WrapInternal(op, err)
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID.String()))
	return s.issueTokens(user)
}

func (s *authService) Signin(ctx context.Context, req model.SigninRequest) (*model.AuthResult, error) {
	const op = "service.Signin"

	user, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewUnauthorized(op, "invalid email or password")
		}
		return nil, errors.WrapInternal(op, err)
	}
	if !user.IsActive {
		return nil, errors.NewUnauthorized(op, "account is deactivated")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, errors.NewUnauthorized(op, "invalid email or password")
	}

	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*model.AuthResult, error) {
	const op = "service.Refresh"

	userID, err := s.ParseToken(refreshToken, "refresh")
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewUnauthorized(op, "user no longer exists")
		}
		return nil, errors.WrapInternal(op, err)
	}
	if !user.IsActive {
		return nil, errors.NewUnauthorized(op, "account is deactivated")
	}

	return s.issueTokens(user)
}

func (s *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.UserResponse, error) {
	const op = "service.GetProfile"

	user, err := s.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFound(op, "user")
		}
		return nil, errors.WrapInternal(op, err)
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, patch model.ProfilePatch) (*model.UserResponse, error) {
	const op = "service.UpdateProfile"

	if patch.FirstName == nil && patch.LastName == nil && patch.PhoneNumber == nil {
		return nil, errors.NewInvalidInput(op, "no updatable fields provided")
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, patch); err != nil {
		return nil, errors.WrapInternal(op, err)
	}
	return s.GetProfile(ctx, userID)
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, req model.ChangePasswordRequest) error {
	const op = "service.ChangePassword"

	user, err := s.userRepo.GetUser(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return errors.NewNotFound(op, "user")
		}
		return errors.WrapInternal(op, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return errors.NewUnauthorized(op, "current password is incorrect")
	}
	if msg := validatePassword(req.NewPassword); msg != "" {
		return errors.NewInvalidInput(op, msg)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.WrapInternal(op, err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return errors.WrapInternal(op, err)
	}

	s.logger.Info("password changed", zap.String("user_id", userID.String()))
	return nil
}

// ParseToken validates signature and expiry, checks the token type claim and
// returns the subject user id.
func (s *authService) ParseToken(tokenString, wantType string) (uuid.UUID, error) {
	const op = "service.ParseToken"

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, errors.NewUnauthorized(op, "invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.NewUnauthorized(op, "invalid token claims")
	}
	if tokenType, _ := claims["type"].(string); tokenType != wantType {
		return uuid.Nil, errors.NewUnauthorized(op, "wrong token type")
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, errors.NewUnauthorized(op, "invalid token subject")
	}
	return userID, nil
}

func (s *authService) issueTokens(user *model.User) (*model.AuthResult, error) {
	const op = "service.issueTokens"

	access, err := s.signToken(user.ID, "access", s.jwtCfg.AccessTTL)
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}
	refresh, err := s.signToken(user.ID, "refresh", s.jwtCfg.RefreshTTL)
	if err != nil {
		return nil, errors.WrapInternal(op, err)
	}

	return &model.AuthResult{
		User:         user.ToResponse(),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *authService) signToken(userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"type": tokenType,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtCfg.Secret))
}

// validatePassword returns an empty string when the password satisfies the
// policy, otherwise the reason it does not.
func validatePassword(password string) string {
	if len(password) < 8 {
		return "password must be at least 8 characters long"
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return "password must contain an uppercase letter"
	}
	if !hasLower {
		return "password must contain a lowercase letter"
	}
	if !hasDigit {
		return "password must contain a digit"
	}
	return ""
}
