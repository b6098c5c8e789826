package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/security"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

var ErrInvalidCredentials = domain.Unauthorized("invalid email or password")

type authService struct {
	userRepo      repository.UserRepository
	tokens        security.TokenManager
	notifications NotificationService
	emailSvc      EmailService
	accessTTL     time.Duration
}

func NewAuthService(userRepo repository.UserRepository, tokens security.TokenManager, notifications NotificationService, emailSvc EmailService, accessTTL time.Duration) AuthService {
	return &authService{
		userRepo:      userRepo,
		tokens:        tokens,
		notifications: notifications,
		emailSvc:      emailSvc,
		accessTTL:     accessTTL,
	}
}

func validateRegistration(in *RegisterInput) error {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return domain.BadRequest("invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return domain.BadRequest("password must be at least %d characters", minPasswordLength)
	}
	if in.FullName == "" {
		return domain.BadRequest("full name is required")
	}
	if in.UserType == "" {
		in.UserType = domain.UserTypeTenant
	}
	if in.UserType != domain.UserTypeTenant && in.UserType != domain.UserTypeLandlord {
		return domain.BadRequest("user type must be TENANT or LANDLORD")
	}
	if in.IsCompany && isBlank(in.CompanyName) {
		return domain.BadRequest("company name is required for company accounts")
	}
	return nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*domain.User, *TokenPair, error) {
	logger.EnterMethod("authService.Register", "email", in.Email, "userType", in.UserType)

	if err := validateRegistration(&in); err != nil {
		return nil, nil, err
	}

	if existing, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil && existing != nil {
		return nil, nil, domain.Conflict("email is already registered")
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}

	user := &domain.User{
		Email:         in.Email,
		PasswordHash:  string(hash),
		FullName:      in.FullName,
		Phone:         strings.TrimSpace(in.Phone),
		UserType:      in.UserType,
		Role:          domain.RoleUser,
		AccountStatus: domain.InitialAccountStatus(in.UserType, in.IsCompany),
		IsCompany:     in.IsCompany,
		CompanyName:   strings.TrimSpace(in.CompanyName),
		CompanyTaxID:  strings.TrimSpace(in.CompanyTaxID),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		logger.ExitMethodWithError("authService.Register", err)
		return nil, nil, err
	}

	pending := user.AccountStatus == domain.AccountStatusPending
	_ = s.emailSvc.SendWelcome(ctx, user.Email, user.FullName, pending)
	if pending {
		_ = s.notifications.NotifyRoles(ctx, domain.LandlordValidators, NotificationInput{
			Type:    domain.NotificationTypeAccount,
			Level:   domain.NotificationLevelInfo,
			Title:   "New account awaiting validation",
			Message: user.FullName + " registered and is waiting for validation.",
			Data:    map[string]any{"userId": user.ID},
		})
	}

	tokens, err := s.IssueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	logger.ExitMethod("authService.Register", "userID", user.ID, "status", user.AccountStatus)
	return user, tokens, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if user.DeletedAt != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.IssueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *authService) Authenticate(ctx context.Context, token string, want security.TokenType) (*domain.User, error) {
	claims, err := s.tokens.ValidateTokenOfType(token, want)
	if err != nil {
		if errors.Is(err, security.ErrExpiredToken) {
			return nil, domain.Unauthorized("token has expired")
		}
		return nil, domain.Unauthorized("invalid token")
	}
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Unauthorized("account not found")
		}
		return nil, err
	}
	if user.DeletedAt != nil {
		return nil, domain.Unauthorized("account not found")
	}
	return user, nil
}

func (s *authService) IssueTokens(user *domain.User) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}
