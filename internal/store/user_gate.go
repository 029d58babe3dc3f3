package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agora/internal/models"
	"agora/internal/reaction"
	"agora/internal/utils"

	"gorm.io/gorm"
)

// UserGate lets any existing user react unless a ban is in force. Lookups
// are cached for ttl, so a fresh ban can take up to ttl to apply.
type UserGate struct {
	db    *gorm.DB
	cache *utils.GlobalCache
	ttl   time.Duration
	now   func() time.Time
}

func NewUserGate(db *gorm.DB, cache *utils.GlobalCache, ttl time.Duration) *UserGate {
	return &UserGate{db: db, cache: cache, ttl: ttl, now: time.Now}
}

func userGateKey(userID uint) string {
	return fmt.Sprintf("reaction:gate:%d", userID)
}

func (g *UserGate) CanReact(ctx context.Context, userID uint) error {
	key := userGateKey(userID)
	if g.cache != nil && g.ttl > 0 {
		if v := g.cache.Get(key); v != nil {
			if err, ok := v.(error); ok {
				return err
			}
			return nil
		}
	}

	verdict, err := g.lookup(ctx, userID)
	if err != nil {
		return err
	}
	// Unknown ids are not cached: the account may be created a moment later.
	if g.cache != nil && g.ttl > 0 && !errors.Is(verdict, reaction.ErrUnknownUser) {
		if verdict == nil {
			g.cache.Set(key, true, g.ttl)
		} else {
			g.cache.Set(key, verdict, g.ttl)
		}
	}
	return verdict
}

// lookup returns the verdict for userID, or a second error if the database
// could not answer.
func (g *UserGate) lookup(ctx context.Context, userID uint) (verdict error, err error) {
	var user models.User
	err = g.db.WithContext(ctx).Select("id", "status", "punish_expires").Take(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return reaction.ErrUnknownUser, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	if user.IsBanned(g.now()) {
		return reaction.ErrReactionForbidden, nil
	}
	return nil, nil
}

// Forget drops the cached verdict for userID, e.g. after a ban is lifted.
func (g *UserGate) Forget(userID uint) {
	if g.cache != nil {
		g.cache.Delete(userGateKey(userID))
	}
}
