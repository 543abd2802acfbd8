package database

import "crwn/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.HairProfile{},
		&models.Post{},
		&models.PostMedia{},
		&models.Like{},
		&models.Bookmark{},
		&models.Follow{},
		&models.Notification{},
		&models.UserSettings{},
		&models.Feedback{},
	}
}
