package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/gtd_catalog/internal/models"
	"github.com/GTDGit/gtd_catalog/internal/utils"
)

type AdminAuthService struct {
	adminRepo AdminUserStore
}

func NewAdminAuthService(adminRepo AdminUserStore) *AdminAuthService {
	return &AdminAuthService{adminRepo: adminRepo}
}

// Login checks the credentials of an admin and issues a session token.
func (s *AdminAuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	log.Debug().Str("email", email).Msg("Login attempt")

	user, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error().Err(err).Str("email", email).Msg("Failed to get user by email")
			return "", err
		}
		return "", utils.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("email", email).Msg("Password verification failed")
		return "", utils.ErrInvalidCredentials
	}

	if !user.IsActive {
		log.Warn().Str("email", email).Msg("Account is inactive")
		return "", utils.ErrAccountInactive
	}

	token, err := utils.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return "", err
	}

	if err := s.adminRepo.TouchLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Int("user_id", user.ID).Msg("Failed to record last login")
	}

	log.Info().Int("user_id", user.ID).Msg("Login successful")
	return token, nil
}

func (s *AdminAuthService) CreateAdmin(ctx context.Context, email, password, name string) (*models.AdminUser, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.AdminUser{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hashedPassword),
		Name:         name,
		IsActive:     true,
	}
	if err := s.adminRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
