package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"crwn/internal/mailer"
	"crwn/internal/models"
	"crwn/internal/repository"
	"crwn/internal/result"
)

const maxFeedbackLength = 5000

type SettingsService struct {
	repo repository.SettingsRepository
}

// SettingsPatch changes only the fields that are set.
type SettingsPatch struct {
	AppUpdates     *bool `json:"app_updates"`
	CommunityPosts *bool `json:"community_posts"`
	StylistMatches *bool `json:"stylist_matches"`
	NewContent     *bool `json:"new_content"`
	Promotions     *bool `json:"promotions"`
	Likes          *bool `json:"likes"`
	Comments       *bool `json:"comments"`
	Follows        *bool `json:"follows"`
	Messages       *bool `json:"messages"`

	ProfileVisibility *string `json:"profile_visibility"`
	HidePhotos        *bool   `json:"hide_photos"`
	AnonymousMode     *bool   `json:"anonymous_mode"`
	BlurPhotos        *bool   `json:"blur_photos"`

	DarkMode *bool `json:"dark_mode"`

	AffirmationsEnabled  *bool   `json:"affirmations_enabled"`
	AffirmationFrequency *string `json:"affirmation_frequency"`
	LanguageTone         *string `json:"language_tone"`
	CelebrationReminders *bool   `json:"celebration_reminders"`
}

func NewSettingsService(repo repository.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get returns the stored settings or the defaults.
func (s *SettingsService) Get(ctx context.Context, userID uint) result.Result[*models.UserSettings] {
	stored, err := s.repo.Get(ctx, userID)
	if err != nil {
		return result.Fail[*models.UserSettings](err)
	}
	if stored == nil {
		stored = models.DefaultSettings(userID)
	}
	return result.Ok(stored)
}

// Update applies patch over the current settings and saves the result.
func (s *SettingsService) Update(ctx context.Context, userID uint, patch SettingsPatch) result.Result[*models.UserSettings] {
	if err := patch.validate(); err != nil {
		return result.Fail[*models.UserSettings](err)
	}
	current := s.Get(ctx, userID)
	if !current.IsOk() {
		return current
	}
	settings := current.Value()
	patch.apply(settings)
	if err := s.repo.Save(ctx, settings); err != nil {
		return result.Fail[*models.UserSettings](err)
	}
	return result.Ok(settings)
}

func (p SettingsPatch) validate() error {
	if p.ProfileVisibility != nil && !oneOf(*p.ProfileVisibility,
		models.VisibilityPublic, models.VisibilityCommunity, models.VisibilityPrivate) {
		return models.NewValidationError("profile_visibility must be public, community or private")
	}
	if p.AffirmationFrequency != nil && !oneOf(*p.AffirmationFrequency,
		models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyOff) {
		return models.NewValidationError("affirmation_frequency must be daily, weekly or off")
	}
	if p.LanguageTone != nil && !oneOf(*p.LanguageTone,
		models.ToneGentle, models.ToneEmpowering, models.ToneBold) {
		return models.NewValidationError("language_tone must be gentle, empowering or bold")
	}
	return nil
}

func (p SettingsPatch) apply(s *models.UserSettings) {
	setBool(&s.AppUpdates, p.AppUpdates)
	setBool(&s.CommunityPosts, p.CommunityPosts)
	setBool(&s.StylistMatches, p.StylistMatches)
	setBool(&s.NewContent, p.NewContent)
	setBool(&s.Promotions, p.Promotions)
	setBool(&s.Likes, p.Likes)
	setBool(&s.Comments, p.Comments)
	setBool(&s.Follows, p.Follows)
	setBool(&s.Messages, p.Messages)
	setString(&s.ProfileVisibility, p.ProfileVisibility)
	setBool(&s.HidePhotos, p.HidePhotos)
	setBool(&s.AnonymousMode, p.AnonymousMode)
	setBool(&s.BlurPhotos, p.BlurPhotos)
	setBool(&s.DarkMode, p.DarkMode)
	setBool(&s.AffirmationsEnabled, p.AffirmationsEnabled)
	setString(&s.AffirmationFrequency, p.AffirmationFrequency)
	setString(&s.LanguageTone, p.LanguageTone)
	setBool(&s.CelebrationReminders, p.CelebrationReminders)
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// FeedbackService stores support messages and forwards them to the support inbox.
type FeedbackService struct {
	repo         repository.SettingsRepository
	profiles     repository.ProfileRepository
	mailer       mailer.Mailer
	supportEmail string
}

func NewFeedbackService(
	repo repository.SettingsRepository,
	profiles repository.ProfileRepository,
	m mailer.Mailer,
	supportEmail string,
) *FeedbackService {
	return &FeedbackService{repo: repo, profiles: profiles, mailer: m, supportEmail: supportEmail}
}

// Submit stores the feedback. The support mail is sent in the background.
func (s *FeedbackService) Submit(ctx context.Context, userID uint, kind, message string) result.Result[*models.Feedback] {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if !oneOf(kind, models.FeedbackBug, models.FeedbackSuggestion, models.FeedbackQuestion) {
		return result.Fail[*models.Feedback](models.NewValidationError("type must be bug, suggestion or question"))
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return result.Fail[*models.Feedback](models.NewValidationError("Message is required"))
	}
	if utf8.RuneCountInString(message) > maxFeedbackLength {
		return result.Fail[*models.Feedback](models.NewValidationError(
			fmt.Sprintf("Message must be at most %d characters", maxFeedbackLength)))
	}

	fb := &models.Feedback{UserID: userID, Type: kind, Message: message}
	if err := s.repo.CreateFeedback(ctx, fb); err != nil {
		return result.Fail[*models.Feedback](err)
	}

	if s.supportEmail != "" {
		from := ""
		if p, err := s.profiles.GetByID(ctx, userID); err == nil {
			from = p.Email
		}
		msg := mailer.Feedback(s.supportEmail, from, kind, message)
		background(ctx, "feedback_mail", map[string]interface{}{"feedback_id": fb.ID}, func(ctx context.Context) error {
			return s.mailer.Send(ctx, msg)
		})
	}
	return result.Ok(fb)
}
