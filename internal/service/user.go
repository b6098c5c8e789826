package service

import (
	"context"
	"encoding/base64"
	"strings"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

type userService struct {
	userRepo       repository.UserRepository
	maxInlineBytes int64
	allowedTypes   []string
}

// NewUserService builds the profile service. Inline documents are stored on
// the user row as data URIs of at most maxInlineBytes decoded bytes.
func NewUserService(userRepo repository.UserRepository, maxInlineBytes int64, allowedTypes []string) UserService {
	return &userService{userRepo: userRepo, maxInlineBytes: maxInlineBytes, allowedTypes: allowedTypes}
}

func (s *userService) load(ctx context.Context, userID int32) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.DeletedAt != nil {
		return nil, domain.NotFound("user not found")
	}
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, userID int32) (*domain.User, error) {
	return s.load(ctx, userID)
}

func (s *userService) UpdateProfile(ctx context.Context, userID int32, in ProfileInput) (*domain.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, domain.BadRequest("full name cannot be empty")
		}
		user.FullName = name
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.CompanyName != nil {
		if !user.IsCompany {
			return nil, domain.BadRequest("company fields apply to company accounts only")
		}
		user.CompanyName = strings.TrimSpace(*in.CompanyName)
	}
	if in.CompanyTaxID != nil {
		if !user.IsCompany {
			return nil, domain.BadRequest("company fields apply to company accounts only")
		}
		user.CompanyTaxID = strings.TrimSpace(*in.CompanyTaxID)
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID int32, oldPassword, newPassword string) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return domain.BadRequest("current password is incorrect")
	}
	if len(newPassword) < minPasswordLength {
		return domain.BadRequest("password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	return s.userRepo.Update(ctx, user)
}

// checkDataURI validates a "data:<mime>;base64,<payload>" string.
func (s *userService) checkDataURI(dataURI string) error {
	rest, ok := strings.CutPrefix(dataURI, "data:")
	if !ok {
		return domain.BadRequest("document must be a base64 data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return domain.BadRequest("document must be a base64 data URI")
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return domain.BadRequest("document must be base64 encoded")
	}
	if !contains(s.allowedTypes, mimeType) {
		return domain.BadRequest("content type %s is not allowed", mimeType)
	}
	if s.maxInlineBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > s.maxInlineBytes+2 {
		return domain.BadRequest("document exceeds the maximum size")
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return domain.BadRequest("document is not valid base64")
	}
	return nil
}

func (s *userService) setInline(ctx context.Context, userID int32, dataURI string, apply func(*domain.User)) (*domain.User, error) {
	if err := s.checkDataURI(dataURI); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	apply(user)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) SetProfilePicture(ctx context.Context, userID int32, dataURI string) (*domain.User, error) {
	return s.setInline(ctx, userID, dataURI, func(u *domain.User) { u.ProfilePicture = dataURI })
}

// UploadBIDocument replaces the identity document; it must be validated again.
func (s *userService) UploadBIDocument(ctx context.Context, userID int32, dataURI string) (*domain.User, error) {
	return s.setInline(ctx, userID, dataURI, func(u *domain.User) {
		u.BIDocument = dataURI
		u.BIValidated = false
	})
}

func (s *userService) UploadCompanyDocuments(ctx context.Context, userID int32, dataURI string) (*domain.User, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsCompany {
		return nil, domain.BadRequest("company documents apply to company accounts only")
	}
	return s.setInline(ctx, userID, dataURI, func(u *domain.User) { u.CompanyDocuments = dataURI })
}

func (s *userService) DeleteAccount(ctx context.Context, userID int32) error {
	if _, err := s.load(ctx, userID); err != nil {
		return err
	}
	return s.userRepo.SoftDelete(ctx, userID)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}
