package models

import (
	"gorm.io/gorm"
)

// User is an account. Email and username are unique among live accounts only,
// so a soft-deleted account frees both for a new registration.
type User struct {
	gorm.Model
	Email    string `json:"email" gorm:"uniqueIndex:idx_users_email_live,where:deleted_at IS NULL;not null"`
	Username string `json:"username" gorm:"uniqueIndex:idx_users_username_live,where:deleted_at IS NULL;not null"`
	FullName string `json:"name"`
	Password string `json:"-" gorm:"not null"`
}
