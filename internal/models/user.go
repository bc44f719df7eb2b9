// Package models contains the persistent domain types of the blog and the
// error taxonomy shared by every layer.
package models

import "time"

// User is an account owned by the identity subsystem. Posts, comments and
// follow rows reference it.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"type:text;not null" json:"-"`
	FirstName string    `gorm:"size:150;not null;default:''" json:"first_name"`
	LastName  string    `gorm:"size:150;not null;default:''" json:"last_name"`
	Email     string    `gorm:"size:254;not null;default:''" json:"email,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"date_joined"`
}

// FullName joins first and last name, falling back to the username.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}
