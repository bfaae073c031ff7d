package web

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	Username       string `gorm:"uniqueIndex"`
	HashedPassword string
	IsActive       bool `gorm:"default:true"`
	IsAdmin        bool
	StreamsAccess  bool `gorm:"default:true"`
	SeriesAccess   bool `gorm:"default:true"`
	FilmsAccess    bool `gorm:"default:true"`
}

func RunAllMigrations(db *gorm.DB) error {
	return db.AutoMigrate(&User{})
}

// CreateUser hashes the password and stores a new account. Also used by the
// create-admin CLI command.
func CreateUser(db *gorm.DB, username, password string, admin bool) (*User, error) {
	hashed, err := encodePassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	u := User{
		Username:       username,
		HashedPassword: hashed,
		IsActive:       true,
		IsAdmin:        admin,
		StreamsAccess:  true,
		SeriesAccess:   true,
		FilmsAccess:    true,
	}
	if err := db.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("creating user %q: %w", username, err)
	}
	return &u, nil
}
