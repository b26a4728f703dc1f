package models

import "time"

// User is the persisted credential record for the blog's admin account.
// The server runs with a single admin user ensured at startup, but the
// table is a real table rather than an in-memory map so that credential
// rotation survives restarts and tests can create their own users.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email     string    `gorm:"size:255" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	IsAdmin   bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
