package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// PostOrdering is the default listing order: newest first, id as tie-breaker.
const PostOrdering = "posts.pub_date DESC, posts.id DESC"

// Post is a blog entry. PubDate is assigned on insert and never updated;
// only Text, GroupID and Image change after creation.
type Post struct {
	ID       uint      `gorm:"primaryKey;index:idx_posts_pub_date,priority:2,sort:desc" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"column:pub_date;autoCreateTime;not null;index:idx_posts_pub_date,priority:1,sort:desc;<-:create" json:"pub_date"`
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID  *uint     `gorm:"index" json:"group_id,omitempty"`
	Group    *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	// Image is a path relative to the media root, empty when absent.
	Image string `gorm:"size:100;not null;default:''" json:"image,omitempty"`
}

// BeforeCreate rejects posts without text.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if strings.TrimSpace(p.Text) == "" {
		return NewValidationError("Post text is required")
	}
	return nil
}

// Excerpt returns the first n characters of the text.
func (p Post) Excerpt(n int) string {
	r := []rune(p.Text)
	if len(r) <= n {
		return p.Text
	}
	return string(r[:n])
}

// String mirrors the admin label: the first fifteen characters of the text.
func (p Post) String() string {
	return p.Excerpt(15)
}
