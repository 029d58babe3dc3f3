package models

import (
	"time"
)

// User status values. Muted users can still react; banned users cannot.
const (
	UserStatusNormal = 0
	UserStatusMuted  = 1
	UserStatusBanned = 2
)

type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Username      string     `gorm:"not null" json:"username"`
	Email         string     `gorm:"uniqueIndex;not null" json:"email"`
	Role          string     `gorm:"size:20;default:'user';not null" json:"role"` // user, moderator, admin
	Status        int        `gorm:"default:0" json:"status"`
	PunishExpires *time.Time `json:"punish_expires"` // nil with a ban means permanent
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsBanned reports whether a ban is in force at now.
func (u *User) IsBanned(now time.Time) bool {
	if u.Status != UserStatusBanned {
		return false
	}
	return u.PunishExpires == nil || u.PunishExpires.After(now)
}
