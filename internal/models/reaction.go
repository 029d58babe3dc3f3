package models

import (
	"time"
)

// Reaction is one user's like or dislike on a post or comment. A row is
// created on the first reaction and then updated in place; withdrawing a
// reaction sets Value to 0 rather than deleting the row.
type Reaction struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_reaction_user_target,priority:1" json:"user_id"`
	TargetType string    `gorm:"size:20;not null;uniqueIndex:idx_reaction_user_target,priority:2;index:idx_reaction_target,priority:1" json:"target_type"` // "post", "comment"
	TargetID   uint      `gorm:"not null;uniqueIndex:idx_reaction_user_target,priority:3;index:idx_reaction_target,priority:2" json:"target_id"`
	Value      int       `gorm:"not null;default:0" json:"value"`   // 1 like, -1 dislike, 0 withdrawn
	Version    int       `gorm:"not null;default:1" json:"version"` // bumped on every change
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
