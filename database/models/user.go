package models

import "gorm.io/gorm"

// User 管理后台账号
type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex:idx_users_username;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"default:'admin';not null"`
}
