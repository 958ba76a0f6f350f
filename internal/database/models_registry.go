package database

import "scribe/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Alert{},
		&models.BannedEmail{},
		&models.Category{},
		&models.Post{},
		&models.PostLike{},
		&models.Comment{},
		&models.Community{},
		&models.CommunityMember{},
		&models.CommunityPost{},
		&models.Activity{},
		&models.Notification{},
		&models.Report{},
	}
}
