package models

import (
	"time"
)

type Post struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	User         User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	NodeID       uint      `gorm:"not null;index;default:1" json:"node_id"`
	Node         Node      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"node"`
	Title        string    `gorm:"not null" json:"title"`
	Content      string    `gorm:"type:text" json:"content"`
	LikeCount    int64     `gorm:"not null;default:0" json:"likes"`    // derived from reactions
	DislikeCount int64     `gorm:"not null;default:0" json:"dislikes"` // derived from reactions
	Score        int       `gorm:"default:0" json:"score"`             // hot ranking, 0-100
	Views        int       `gorm:"default:0" json:"views"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
