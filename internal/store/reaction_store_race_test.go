package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"agora/internal/models"
	"agora/internal/reaction"
	"agora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// interleave runs fn once inside the writing transaction, right before gorm
// issues its first create or update against table. It stands in for a second
// writer landing between a toggle's read and its write.
func interleave(t *testing.T, gdb *gorm.DB, op, table string, fn func(tx *gorm.DB)) {
	t.Helper()
	var once sync.Once
	hook := func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			once.Do(func() { fn(tx) })
		}
	}

	name := "agora_test:" + op + ":" + table
	var err error
	switch op {
	case "create":
		err = gdb.Callback().Create().Before("gorm:create").Register(name, hook)
	case "update":
		err = gdb.Callback().Update().Before("gorm:update").Register(name, hook)
	default:
		t.Fatalf("unknown op %q", op)
	}
	require.NoError(t, err)
}

func newRaceFixture(t *testing.T) (*gorm.DB, *ReactionStore, reaction.TargetRef, uint) {
	t.Helper()
	gdb := testutil.OpenDB(t)
	author := testutil.SeedUser(t, gdb, "author", "")
	post := testutil.SeedPost(t, gdb, author.ID, 0, 0)
	return gdb, NewReactionStore(gdb), reaction.TargetRef{Type: reaction.TargetPost, ID: post.ID}, author.ID
}

func TestVersionGuardRejectsConcurrentUpdate(t *testing.T) {
	gdb, st, ref, user := newRaceFixture(t)
	ctx := context.Background()

	add, _ := reaction.Decide(reaction.KindNone, reaction.KindLike)
	_, err := st.ApplyTransition(ctx, ref, user, reaction.KindNone, add)
	require.NoError(t, err)

	// Another writer changes the row after it was read but before the
	// version-guarded update runs.
	interleave(t, gdb, "update", "reactions", func(tx *gorm.DB) {
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"UPDATE reactions SET version = version + 1 WHERE user_id = ?", user)
		require.NoError(t, err)
	})

	remove, _ := reaction.Decide(reaction.KindLike, reaction.KindLike)
	_, err = st.ApplyTransition(ctx, ref, user, reaction.KindLike, remove)
	assert.ErrorIs(t, err, reaction.ErrConflict)

	target, err := st.GetTarget(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, int64(1), target.LikeCount)

	var row models.Reaction
	require.NoError(t, gdb.Where("user_id = ?", user).Take(&row).Error)
	assert.Equal(t, 1, row.Value)
	assert.Equal(t, 1, row.Version)

	// The service recovers by re-reading.
	res, err := reaction.NewService(st).Toggle(ctx, user, ref, reaction.KindLike)
	require.NoError(t, err)
	assert.Equal(t, reaction.ActionRemoved, res.Action)
	assert.Equal(t, int64(0), res.LikeCount)
}

func TestDuplicateFirstReactionConflicts(t *testing.T) {
	gdb, st, ref, user := newRaceFixture(t)
	ctx := context.Background()

	// Another request from the same user inserts its first reaction first.
	interleave(t, gdb, "create", "reactions", func(tx *gorm.DB) {
		now := time.Now()
		_, err := tx.Statement.ConnPool.ExecContext(tx.Statement.Context,
			"INSERT INTO reactions (user_id, target_type, target_id, value, version, created_at, updated_at) VALUES (?, ?, ?, 1, 1, ?, ?)",
			user, string(ref.Type), ref.ID, now, now)
		require.NoError(t, err)
	})

	add, _ := reaction.Decide(reaction.KindNone, reaction.KindLike)
	_, err := st.ApplyTransition(ctx, ref, user, reaction.KindNone, add)
	assert.ErrorIs(t, err, reaction.ErrConflict)

	assert.Zero(t, countRows(t, gdb, user, ref))
	target, err := st.GetTarget(ctx, ref)
	require.NoError(t, err)
	assert.Zero(t, target.LikeCount)
}

func TestCancelledTransitionLeavesNoPartialUpdate(t *testing.T) {
	gdb := testutil.OpenDB(t)
	ref, seven := seedScenario(t, gdb)
	st := NewReactionStore(gdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The reaction row is already written when the counter update starts.
	interleave(t, gdb, "update", "posts", func(*gorm.DB) { cancel() })

	add, _ := reaction.Decide(reaction.KindNone, reaction.KindLike)
	_, err := st.ApplyTransition(ctx, ref, seven, reaction.KindNone, add)
	assert.ErrorIs(t, err, context.Canceled)

	target, err := st.GetTarget(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, int64(3), target.LikeCount)
	assert.Equal(t, int64(1), target.DislikeCount)
	assert.Zero(t, countRows(t, gdb, seven, ref))
}
