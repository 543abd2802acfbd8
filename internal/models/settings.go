package models

import "time"

// Privacy levels.
const (
	VisibilityPublic    = "public"
	VisibilityCommunity = "community"
	VisibilityPrivate   = "private"
)

// Affirmation frequencies.
const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
	FrequencyOff    = "off"
)

// Affirmation tones.
const (
	ToneGentle     = "gentle"
	ToneEmpowering = "empowering"
	ToneBold       = "bold"
)

// UserSettings holds the settings screens' state for one user.
type UserSettings struct {
	UserID uint `gorm:"primaryKey;autoIncrement:false" json:"user_id"`

	AppUpdates     bool `json:"app_updates"`
	CommunityPosts bool `json:"community_posts"`
	StylistMatches bool `json:"stylist_matches"`
	NewContent     bool `json:"new_content"`
	Promotions     bool `json:"promotions"`
	Likes          bool `json:"likes"`
	Comments       bool `json:"comments"`
	Follows        bool `json:"follows"`
	Messages       bool `json:"messages"`

	ProfileVisibility string `json:"profile_visibility"`
	HidePhotos        bool   `json:"hide_photos"`
	AnonymousMode     bool   `json:"anonymous_mode"`
	BlurPhotos        bool   `json:"blur_photos"`

	DarkMode bool `json:"dark_mode"`

	AffirmationsEnabled  bool   `json:"affirmations_enabled"`
	AffirmationFrequency string `gorm:"index" json:"affirmation_frequency"`
	LanguageTone         string `json:"language_tone"`
	CelebrationReminders bool   `json:"celebration_reminders"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSettings returns the settings a new user starts with.
func DefaultSettings(userID uint) *UserSettings {
	return &UserSettings{
		UserID:               userID,
		AppUpdates:           true,
		CommunityPosts:       true,
		StylistMatches:       true,
		NewContent:           true,
		Likes:                true,
		Comments:             true,
		Follows:              true,
		Messages:             true,
		ProfileVisibility:    VisibilityPublic,
		AffirmationsEnabled:  true,
		AffirmationFrequency: FrequencyDaily,
		LanguageTone:         ToneGentle,
		CelebrationReminders: true,
	}
}

// AllowsNotification reports whether a notification of the given type should be delivered.
func (s *UserSettings) AllowsNotification(kind string) bool {
	switch kind {
	case NotificationLike:
		return s.Likes
	case NotificationFollow:
		return s.Follows
	case NotificationBookmark:
		return s.CommunityPosts
	case NotificationAffirmation:
		return s.AffirmationsEnabled && s.AffirmationFrequency != FrequencyOff
	default:
		return true
	}
}
