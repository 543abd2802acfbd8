package models

import "time"

// Notification types.
const (
	NotificationLike        = "like"
	NotificationFollow      = "follow"
	NotificationBookmark    = "bookmark"
	NotificationWelcome     = "welcome"
	NotificationAffirmation = "affirmation"
)

// Notification is an in-app message for UserID, optionally caused by ActorID.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	ActorID   *uint     `json:"actor_id,omitempty"`
	Actor     *Profile  `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Type      string    `gorm:"not null" json:"type"`
	PostID    *uint     `json:"post_id,omitempty"`
	Message   string    `gorm:"type:text" json:"message"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Feedback types.
const (
	FeedbackBug        = "bug"
	FeedbackSuggestion = "suggestion"
	FeedbackQuestion   = "question"
)

// Feedback is a support message sent from the help screen.
type Feedback struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Type      string    `gorm:"not null" json:"type"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the singular table name.
func (Feedback) TableName() string {
	return "feedback"
}
