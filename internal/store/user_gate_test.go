package store

import (
	"context"
	"testing"
	"time"

	"agora/internal/models"
	"agora/internal/reaction"
	"agora/internal/testutil"
	"agora/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) (*UserGate, func(id uint, status int, expires *time.Time)) {
	gdb := testutil.OpenDB(t)
	cache, err := utils.NewCache(16)
	require.NoError(t, err)
	gate := NewUserGate(gdb, cache, time.Minute)

	setStatus := func(id uint, status int, expires *time.Time) {
		require.NoError(t, gdb.Model(&models.User{}).Where("id = ?", id).
			UpdateColumns(map[string]interface{}{"status": status, "punish_expires": expires}).Error)
	}
	return gate, setStatus
}

func TestUserGate(t *testing.T) {
	gate, _ := newTestGate(t)
	gdb := gate.db
	ctx := context.Background()

	normal := testutil.SeedUser(t, gdb, "normal", "")
	muted := testutil.SeedUser(t, gdb, "muted", "")
	banned := testutil.SeedUser(t, gdb, "banned", "")
	past := time.Now().Add(-time.Hour)
	expired := testutil.SeedUser(t, gdb, "expired", "")

	require.NoError(t, gdb.Model(&muted).UpdateColumn("status", models.UserStatusMuted).Error)
	require.NoError(t, gdb.Model(&banned).UpdateColumn("status", models.UserStatusBanned).Error)
	require.NoError(t, gdb.Model(&expired).UpdateColumns(map[string]interface{}{
		"status": models.UserStatusBanned, "punish_expires": past,
	}).Error)

	assert.NoError(t, gate.CanReact(ctx, normal.ID))
	assert.NoError(t, gate.CanReact(ctx, muted.ID))
	assert.NoError(t, gate.CanReact(ctx, expired.ID))
	assert.ErrorIs(t, gate.CanReact(ctx, banned.ID), reaction.ErrReactionForbidden)
	assert.ErrorIs(t, gate.CanReact(ctx, 9999), reaction.ErrUnknownUser)
}

func TestUserGateCachesUntilForgotten(t *testing.T) {
	gate, setStatus := newTestGate(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, gate.db, "someone", "")

	require.NoError(t, gate.CanReact(ctx, user.ID))
	setStatus(user.ID, models.UserStatusBanned, nil)

	// Still the cached verdict.
	assert.NoError(t, gate.CanReact(ctx, user.ID))

	gate.Forget(user.ID)
	assert.ErrorIs(t, gate.CanReact(ctx, user.ID), reaction.ErrReactionForbidden)

	setStatus(user.ID, models.UserStatusNormal, nil)
	assert.ErrorIs(t, gate.CanReact(ctx, user.ID), reaction.ErrReactionForbidden)
	gate.Forget(user.ID)
	assert.NoError(t, gate.CanReact(ctx, user.ID))
}

func TestUserGateWithService(t *testing.T) {
	gate, setStatus := newTestGate(t)
	author := testutil.SeedUser(t, gate.db, "author", "")
	post := testutil.SeedPost(t, gate.db, author.ID, 0, 0)
	setStatus(author.ID, models.UserStatusBanned, nil)

	svc := reaction.NewService(NewReactionStore(gate.db), reaction.WithGate(gate))
	_, err := svc.Toggle(context.Background(), author.ID, reaction.TargetRef{Type: reaction.TargetPost, ID: post.ID}, reaction.KindLike)
	assert.ErrorIs(t, err, reaction.ErrReactionForbidden)
}

func TestUserGateDoesNotCacheUnknownUsers(t *testing.T) {
	gate, _ := newTestGate(t)
	ctx := context.Background()

	assert.ErrorIs(t, gate.CanReact(ctx, 1), reaction.ErrUnknownUser)

	user := testutil.SeedUser(t, gate.db, "late", "")
	require.Equal(t, uint(1), user.ID)
	assert.NoError(t, gate.CanReact(ctx, user.ID))
}
