package models

// Follow records that User subscribes to posts by Author. A pair appears at
// most once; the composite unique index is what makes concurrent follows safe.
type Follow struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	UserID   uint `gorm:"not null;uniqueIndex:idx_follow_user_author" json:"user_id"`
	User     User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID uint `gorm:"not null;uniqueIndex:idx_follow_user_author;index;check:chk_follows_not_self,user_id <> author_id" json:"author_id"`
	Author   User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}
