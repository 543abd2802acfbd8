package repository

import (
	"context"
	"errors"

	"crwn/internal/models"
	"crwn/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository persists per-user settings and support feedback.
type SettingsRepository interface {
	Get(ctx context.Context, userID uint) (*models.UserSettings, error)
	Save(ctx context.Context, s *models.UserSettings) error
	ListAffirmationRecipients(ctx context.Context, frequency string) ([]*models.UserSettings, error)
	CreateFeedback(ctx context.Context, f *models.Feedback) error
}

type settingsRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewSettingsRepository returns a gorm-backed SettingsRepository.
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db, log: observability.NewRepoLogger("user_settings")}
}

// Get returns nil, nil when the user never saved settings.
func (r *settingsRepository) Get(ctx context.Context, userID uint) (*models.UserSettings, error) {
	var s models.UserSettings
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &s, nil
}

func (r *settingsRepository) Save(ctx context.Context, s *models.UserSettings) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(s).Error
	if err != nil {
		r.log.LogError(ctx, err, "upsert")
		return models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"user_id": s.UserID})
	return nil
}

// ListAffirmationRecipients returns settings rows opted in to affirmations at frequency.
func (r *settingsRepository) ListAffirmationRecipients(ctx context.Context, frequency string) ([]*models.UserSettings, error) {
	var rows []*models.UserSettings
	err := r.db.WithContext(ctx).
		Where("affirmations_enabled = ? AND affirmation_frequency = ?", true, frequency).
		Order("user_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return rows, nil
}

func (r *settingsRepository) CreateFeedback(ctx context.Context, f *models.Feedback) error {
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		r.log.LogError(ctx, err, "create_feedback")
		return models.NewInternalError(err)
	}
	return nil
}
