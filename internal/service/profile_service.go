package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"crwn/internal/models"
	"crwn/internal/observability"
	"crwn/internal/onboarding"
	"crwn/internal/repository"
	"crwn/internal/result"
	"crwn/internal/storage"
	"crwn/internal/validation"
)

type ProfileService struct {
	profiles  repository.ProfileRepository
	follows   repository.FollowRepository
	storage   storage.Provider
	notifier  *NotificationService
	catalog   *onboarding.Catalog
	maxUpload int64
	now       func() time.Time
}

type UpdateProfileInput struct {
	FullName    string     `json:"full_name"`
	Username    string     `json:"username"`
	Bio         string     `json:"bio"`
	Location    string     `json:"location"`
	Phone       string     `json:"phone"`
	DateOfBirth *time.Time `json:"date_of_birth"`
}

type HairProfileInput struct {
	HairType string   `json:"hair_type"`
	Porosity string   `json:"porosity"`
	Density  string   `json:"density"`
	Goals    []string `json:"goals"`
}

func NewProfileService(
	profiles repository.ProfileRepository,
	follows repository.FollowRepository,
	store storage.Provider,
	notifier *NotificationService,
	catalog *onboarding.Catalog,
	maxUpload int64,
) *ProfileService {
	return &ProfileService{
		profiles:  profiles,
		follows:   follows,
		storage:   store,
		notifier:  notifier,
		catalog:   catalog,
		maxUpload: maxUpload,
		now:       time.Now,
	}
}

// GetProfile returns a profile with its hair profile and follow/post counts.
func (s *ProfileService) GetProfile(ctx context.Context, id uint) result.Result[*models.Profile] {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return result.Fail[*models.Profile](err)
	}
	if err := s.profiles.Stats(ctx, profile); err != nil {
		return result.Fail[*models.Profile](err)
	}
	return result.Ok(profile)
}

// UpdateProfile replaces the editable profile fields.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) result.Result[*models.Profile] {
	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" {
		return result.Fail[*models.Profile](models.NewValidationError("Full name is required"))
	}
	username := validation.NormalizeUsername(in.Username)
	if username == "" {
		return result.Fail[*models.Profile](models.NewValidationError("Username is required"))
	}
	if err := validation.ValidateUsername(username); err != nil {
		return result.Fail[*models.Profile](models.NewValidationError(err.Error()))
	}
	bio := strings.TrimSpace(in.Bio)
	if utf8.RuneCountInString(bio) > validation.MaxBioLength {
		return result.Fail[*models.Profile](models.NewValidationError(
			fmt.Sprintf("Bio must be at most %d characters", validation.MaxBioLength)))
	}

	existing, err := s.profiles.GetByUsername(ctx, username)
	if err != nil {
		return result.Fail[*models.Profile](err)
	}
	if existing != nil && existing.ID != userID {
		return result.Fail[*models.Profile](models.NewConflictError("Username already taken", nil))
	}

	fields := map[string]interface{}{
		"full_name":     fullName,
		"username":      username,
		"bio":           bio,
		"location":      strings.TrimSpace(in.Location),
		"phone":         strings.TrimSpace(in.Phone),
		"date_of_birth": in.DateOfBirth,
	}
	if err := s.profiles.Update(ctx, userID, fields); err != nil {
		return result.Fail[*models.Profile](err)
	}
	return s.GetProfile(ctx, userID)
}

// UpdateHairProfile creates or replaces the user's hair profile.
func (s *ProfileService) UpdateHairProfile(ctx context.Context, userID uint, in HairProfileInput) result.Result[*models.HairProfile] {
	if in.HairType != "" && !s.catalog.IsHairType(in.HairType) {
		return result.Fail[*models.HairProfile](models.NewValidationError("Unknown hair type"))
	}
	if in.Porosity != "" && !s.catalog.IsPorosity(in.Porosity) {
		return result.Fail[*models.HairProfile](models.NewValidationError("Porosity must be Low, Medium or High"))
	}
	for _, g := range in.Goals {
		if !s.catalog.IsGoal(g) {
			return result.Fail[*models.HairProfile](models.NewValidationError(fmt.Sprintf("Unknown hair goal %q", g)))
		}
	}

	hp := &models.HairProfile{
		UserID:   userID,
		HairType: in.HairType,
		Porosity: in.Porosity,
		Density:  strings.TrimSpace(in.Density),
		Goals:    in.Goals,
	}
	if err := s.profiles.UpsertHairProfile(ctx, hp); err != nil {
		return result.Fail[*models.HairProfile](err)
	}
	return result.From(s.profiles.GetHairProfile(ctx, userID))
}

// UploadAvatar stores a normalized image as the user's avatar and returns its
// public URL. The stored avatar is unchanged when the upload fails.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uint, data []byte) result.Result[string] {
	span, ctx := observability.TraceService(ctx, "ProfileService", "UploadAvatar")
	defer span.End()

	img, err := storage.NormalizeImage(data, s.maxUpload)
	if err != nil {
		return result.Fail[string](imageError(err))
	}
	bucket, err := s.storage.Bucket(storage.BucketAvatars)
	if err != nil {
		return result.Fail[string](models.NewInternalError(err))
	}

	objectPath := fmt.Sprintf("%d-%d.jpg", userID, s.now().UnixMilli())
	stored, err := bucket.Upload(ctx, objectPath, img.JPEG, "image/jpeg")
	if err != nil {
		span.SetError(err)
		return result.Fail[string](models.NewInternalError(fmt.Errorf("avatar upload: %w", err)))
	}
	uploadWebPSibling(ctx, bucket, stored, img.WebP)

	url := bucket.PublicURL(stored)
	if err := s.profiles.Update(ctx, userID, map[string]interface{}{"avatar_url": url}); err != nil {
		return result.Fail[string](err)
	}
	return result.Ok(url)
}

// Follow makes followerID follow followingID and notifies the followed user
// the first time. It reports whether the follow is new.
func (s *ProfileService) Follow(ctx context.Context, followerID, followingID uint) result.Result[bool] {
	if followerID == followingID {
		return result.Fail[bool](models.NewValidationError("You cannot follow yourself"))
	}
	if _, err := s.profiles.GetByID(ctx, followingID); err != nil {
		return result.Fail[bool](err)
	}
	created, err := s.follows.Follow(ctx, followerID, followingID)
	if err != nil {
		return result.Fail[bool](err)
	}
	if created {
		s.notifier.notifyQuietly(ctx, &models.Notification{
			UserID:  followingID,
			ActorID: &followerID,
			Type:    models.NotificationFollow,
			Message: s.actorName(ctx, followerID) + " started following you",
		})
	}
	return result.Ok(created)
}

func (s *ProfileService) Unfollow(ctx context.Context, followerID, followingID uint) result.Result[Empty] {
	if err := s.follows.Unfollow(ctx, followerID, followingID); err != nil {
		return result.Fail[Empty](err)
	}
	return empty()
}

func (s *ProfileService) IsFollowing(ctx context.Context, followerID, followingID uint) result.Result[bool] {
	return result.From(s.follows.IsFollowing(ctx, followerID, followingID))
}

// ListStylists returns stylist profiles, newest first.
func (s *ProfileService) ListStylists(ctx context.Context, limit, offset int) result.Result[[]*models.Profile] {
	limit, offset = page(limit, offset)
	return result.From(s.profiles.ListByType(ctx, models.UserTypeStylist, limit, offset))
}

func (s *ProfileService) actorName(ctx context.Context, id uint) string {
	return actorName(ctx, s.profiles, id)
}

func actorName(ctx context.Context, profiles repository.ProfileRepository, id uint) string {
	p, err := profiles.GetByID(ctx, id)
	if err != nil {
		return "Someone"
	}
	if p.FullName != "" {
		return p.FullName
	}
	return "@" + p.Username
}

func imageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrImageTooLarge):
		return models.NewValidationError("Image is too large")
	case errors.Is(err, storage.ErrUnsupportedImage), errors.Is(err, storage.ErrEmptyImage):
		return models.NewValidationError("Unsupported image. Use JPEG, PNG, GIF or WebP")
	default:
		return models.NewInternalError(err)
	}
}

func uploadWebPSibling(ctx context.Context, bucket storage.Bucket, jpegPath string, data []byte) {
	if len(data) == 0 {
		return
	}
	if _, err := bucket.Upload(ctx, storage.WebPSibling(jpegPath), data, "image/webp"); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "webp rendition upload failed",
			slog.String("bucket", bucket.Name()),
			slog.String("path", jpegPath),
			slog.String("error", err.Error()),
		)
	}
}
