// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an auth account. Profile data lives in Profile, keyed by the same ID.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	LastSignInAt *time.Time     `json:"last_sign_in_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// User types.
const (
	UserTypeExplorer = "explorer"
	UserTypeStylist  = "stylist"
)

// Profile is the public face of a user. ID equals the owning User's ID.
type Profile struct {
	ID          uint         `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Email       string       `gorm:"not null" json:"email"`
	Username    string       `gorm:"uniqueIndex;not null" json:"username"`
	FullName    string       `json:"full_name"`
	Bio         string       `gorm:"type:text" json:"bio"`
	AvatarURL   string       `json:"avatar_url"`
	Location    string       `json:"location"`
	Phone       string       `json:"phone"`
	DateOfBirth *time.Time   `json:"date_of_birth,omitempty"`
	UserType    string       `gorm:"not null;default:explorer;index" json:"user_type"`
	HairProfile *HairProfile `gorm:"foreignKey:UserID;references:ID" json:"hair_profile,omitempty"`

	// Not persisted; filled by ProfileRepository.Stats.
	FollowersCount int64 `gorm:"-" json:"followers_count"`
	FollowingCount int64 `gorm:"-" json:"following_count"`
	PostsCount     int64 `gorm:"-" json:"posts_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsStylist reports whether the profile belongs to a stylist.
func (p *Profile) IsStylist() bool {
	return p.UserType == UserTypeStylist
}

// HairProfile captures a user's hair characteristics and goals.
type HairProfile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	HairType  string    `json:"hair_type"`
	Porosity  string    `json:"porosity"`
	Density   string    `json:"density"`
	Goals     []string  `gorm:"serializer:json" json:"goals"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
