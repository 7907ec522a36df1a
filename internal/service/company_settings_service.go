package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dykstra-Hamel/DH-portal-sub006/internal/domain"
	apperrors "github.com/Dykstra-Hamel/DH-portal-sub006/internal/errors"
)

// settingKeys lists the keys the API accepts for writes.
var settingKeys = map[string]bool{
	domain.SettingKeySummaryEmailsEnabled:   true,
	domain.SettingKeySummaryEmailRecipients: true,
}

// CompanySettingsService manages per-tenant notification settings.
type CompanySettingsService struct {
	repo   domain.CompanySettingsRepository
	logger *zap.Logger
}

// NewCompanySettingsService creates a new CompanySettingsService.
func NewCompanySettingsService(repo domain.CompanySettingsRepository, logger *zap.Logger) *CompanySettingsService {
	return &CompanySettingsService{repo: repo, logger: logger}
}

// GetNotificationSettings returns the company's notification settings as a
// typed struct, with defaults for unset keys.
func (s *CompanySettingsService) GetNotificationSettings(ctx context.Context, companyID uuid.UUID) (*domain.NotificationSettings, error) {
	settingsMap, err := s.repo.GetAll(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return domain.NewNotificationSettingsFromMap(settingsMap), nil
}

// Set upserts one setting. Unknown keys are rejected.
func (s *CompanySettingsService) Set(ctx context.Context, companyID uuid.UUID, key, value string) error {
	key = strings.TrimSpace(key)
	if !settingKeys[key] {
		return apperrors.ValidationFailed("unknown setting key: " + key)
	}
	if err := s.repo.Set(ctx, companyID, key, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("save setting: %w", err)
	}
	s.logger.Info("company setting updated",
		zap.String("company_id", companyID.String()),
		zap.String("key", key),
	)
	return nil
}
