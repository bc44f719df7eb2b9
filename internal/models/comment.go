package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Comment is a reply to a post. Deleting the post or the author removes it.
type Comment struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PostID   uint      `gorm:"not null;index" json:"post_id"`
	Post     Post      `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	Created  time.Time `gorm:"autoCreateTime;not null;<-:create" json:"created"`
}

// BeforeCreate rejects comments without text.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if strings.TrimSpace(c.Text) == "" {
		return NewValidationError("Comment text is required")
	}
	return nil
}
