package models

// Group is a community that posts may be tagged to. The slug is the public
// address of the group page and never changes once posts reference it.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"size:50;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
}

func (g Group) String() string {
	return g.Title
}
