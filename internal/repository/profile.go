package repository

import (
	"context"
	"errors"

	"crwn/internal/models"
	"crwn/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository persists profiles and their hair profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Profile, error)
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	ListByType(ctx context.Context, userType string, limit, offset int) ([]*models.Profile, error)
	Stats(ctx context.Context, profile *models.Profile) error
	UpsertHairProfile(ctx context.Context, hp *models.HairProfile) error
	GetHairProfile(ctx context.Context, userID uint) (*models.HairProfile, error)
}

type profileRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewProfileRepository returns a gorm-backed ProfileRepository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db, log: observability.NewRepoLogger("profiles")}
}

func (r *profileRepository) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Preload("HairProfile").First(&profile, id).Error; err != nil {
		return nil, notFoundOr(err, "Profile", id)
	}
	return &profile, nil
}

// GetByUsername returns nil, nil when the username is free.
func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Username already taken", err)
		}
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": profile.ID, "username": profile.Username})
	return nil
}

func (r *profileRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		r.log.LogError(ctx, res.Error, "update")
		if isUniqueConstraintError(res.Error) {
			return models.NewConflictError("Username already taken", res.Error)
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Profile", id)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": id, "fields": len(fields)})
	return nil
}

func (r *profileRepository) ListByType(ctx context.Context, userType string, limit, offset int) ([]*models.Profile, error) {
	var profiles []*models.Profile
	err := r.db.WithContext(ctx).
		Preload("HairProfile").
		Where("user_type = ?", userType).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&profiles).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return profiles, nil
}

// Stats fills the follower, following and post counts of profile.
func (r *profileRepository) Stats(ctx context.Context, profile *models.Profile) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Follow{}).Where("following_id = ?", profile.ID).Count(&profile.FollowersCount).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", profile.ID).Count(&profile.FollowingCount).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := db.Model(&models.Post{}).Where("user_id = ?", profile.ID).Count(&profile.PostsCount).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// UpsertHairProfile inserts or replaces the single hair profile of hp.UserID.
func (r *profileRepository) UpsertHairProfile(ctx context.Context, hp *models.HairProfile) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"hair_type", "porosity", "density", "goals", "updated_at"}),
	}).Create(hp).Error
	if err != nil {
		r.log.LogError(ctx, err, "upsert_hair_profile")
		return models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"hair_profile_user_id": hp.UserID})
	return nil
}

// GetHairProfile returns nil, nil when the user has not set one.
func (r *profileRepository) GetHairProfile(ctx context.Context, userID uint) (*models.HairProfile, error) {
	var hp models.HairProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&hp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &hp, nil
}
