// Package testutil opens throwaway SQLite databases with the production
// schema for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"agora/internal/db"
	"agora/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var dbSeq atomic.Int64

// OpenDB returns a migrated in-memory database private to t. It uses a
// single connection, so transactions serialize the way row locks would.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	// A shared in-memory database lives while any connection is open. The
	// anchor keeps it alive when a cancelled transaction discards the
	// working connection.
	anchor, err := gorm.Open(sqlite.Open(dsn), db.Config())
	require.NoError(t, err)
	anchorDB, err := anchor.DB()
	require.NoError(t, err)
	require.NoError(t, anchorDB.Ping())
	t.Cleanup(func() { _ = anchorDB.Close() })

	gdb, err := gorm.Open(sqlite.Open(dsn), db.Config())
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

// SeedUser inserts a user with the given role ("" means "user").
func SeedUser(t testing.TB, gdb *gorm.DB, username, role string) models.User {
	t.Helper()
	if role == "" {
		role = "user"
	}
	u := models.User{Username: username, Email: username + "@example.com", Role: role}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}

// SeedPost inserts a post with preset counters. Counters are written as
// given; callers that need them to agree with reaction rows seed those too.
func SeedPost(t testing.TB, gdb *gorm.DB, authorID uint, likes, dislikes int64) models.Post {
	t.Helper()
	var node models.Node
	require.NoError(t, gdb.Where(models.Node{Name: "general"}).FirstOrCreate(&node).Error)

	p := models.Post{UserID: authorID, NodeID: node.ID, Title: "hello", LikeCount: likes, DislikeCount: dislikes}
	require.NoError(t, gdb.Omit(clause.Associations).Create(&p).Error)
	return p
}

// SeedComment inserts a comment on postID with zero counters.
func SeedComment(t testing.TB, gdb *gorm.DB, postID, authorID uint) models.Comment {
	t.Helper()
	c := models.Comment{PostID: postID, UserID: authorID, Content: "first"}
	require.NoError(t, gdb.Omit(clause.Associations).Create(&c).Error)
	return c
}

// SeedReaction writes a reaction row directly, bypassing the counters.
func SeedReaction(t testing.TB, gdb *gorm.DB, userID uint, targetType string, targetID uint, value int) {
	t.Helper()
	r := models.Reaction{UserID: userID, TargetType: targetType, TargetID: targetID, Value: value, Version: 1}
	require.NoError(t, gdb.Create(&r).Error)
}
