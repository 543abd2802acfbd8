package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is a photo post in the community feed.
type Post struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UserID      uint        `gorm:"not null;index" json:"user_id"`
	Profile     *Profile    `gorm:"foreignKey:UserID" json:"profile,omitempty"`
	StylistID   *uint       `gorm:"index" json:"stylist_id,omitempty"`
	Stylist     *Profile    `gorm:"foreignKey:StylistID" json:"stylist,omitempty"`
	Title       string      `gorm:"size:300;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description"`
	Tags        []string    `gorm:"serializer:json" json:"tags"`
	IsPublic    bool        `gorm:"index" json:"is_public"`
	Media       []PostMedia `gorm:"foreignKey:PostID" json:"media"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// BookmarksCount is not persisted; computed at query time
	BookmarksCount int `gorm:"->" json:"bookmarks_count"`
	// Liked and Bookmarked are relative to the requesting user (computed)
	Liked      bool           `gorm:"->" json:"liked"`
	Bookmarked bool           `gorm:"->" json:"bookmarked"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// PostMedia is one image of a post, ordered by Position.
type PostMedia struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	MediaURL  string    `gorm:"not null" json:"media_url"`
	MediaType string    `gorm:"not null;default:image" json:"media_type"`
	Position  int       `gorm:"not null" json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName keeps the plural table name used by clients and realtime filters.
func (PostMedia) TableName() string {
	return "post_media"
}

// Like represents a user's like on a post.
// The combination of UserID and PostID must be unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Bookmark represents a post saved by a user.
type Bookmark struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_bookmark_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_bookmark_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Follow links a follower to the profile they follow.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follow_pair" json:"follower_id"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}
