package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
	Email        string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	FirstName    string    `gorm:"size:150;not null" json:"first_name"`
	LastName     string    `gorm:"size:150;not null" json:"last_name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	// Avatar holds the storage path of the uploaded image, not a URL.
	Avatar string `gorm:"size:255" json:"-"`
}

// Subscription is a directed follow relation between two users.
type Subscription struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time `json:"-"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_subscription_pair" json:"user"`
	SubscribedTo uint      `gorm:"not null;uniqueIndex:idx_subscription_pair" json:"subscribed_to"`
}

// AuthToken is an opaque bearer token; one row per user, created on the
// first successful login and removed on logout.
type AuthToken struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time
	Key       string `gorm:"size:40;uniqueIndex;not null"`
	UserID    uint   `gorm:"uniqueIndex;not null"`
	User      User
}
