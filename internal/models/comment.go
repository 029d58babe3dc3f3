package models

import (
	"time"
)

type Comment struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PostID       uint      `gorm:"not null;index" json:"post_id"`
	Post         Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"post"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	User         User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	ParentID     *uint     `gorm:"index" json:"parent_id"` // Nullable for top-level comments
	Content      string    `gorm:"type:text;not null" json:"content"`
	LikeCount    int64     `gorm:"not null;default:0" json:"likes"`
	DislikeCount int64     `gorm:"not null;default:0" json:"dislikes"`
	CreatedAt    time.Time `json:"created_at"`
}
