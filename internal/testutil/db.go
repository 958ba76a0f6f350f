// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"scribe/internal/database"
	"scribe/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewTestDB opens a private in-memory sqlite database with the full schema.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user named username.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Fullname: strings.ToUpper(username[:1]) + username[1:],
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateAdmin inserts an administrator.
func CreateAdmin(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := CreateUser(t, db, username)
	require.NoError(t, db.Model(u).UpdateColumn("is_admin", true).Error)
	u.IsAdmin = true
	return u
}

// CreateCategory inserts a category with a zero post count.
func CreateCategory(t testing.TB, db *gorm.DB, name string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreatePost inserts a post row without touching any counters. Callers
// that need consistent counters go through the post service instead.
func CreatePost(t testing.TB, db *gorm.DB, author *models.User, category *models.Category, draft bool) *models.Post {
	t.Helper()
	p := &models.Post{
		Slug:     fmt.Sprintf("post-%d-%d", author.ID, dbSeq.Add(1)),
		Title:    "A post",
		Content:  "[]",
		AuthorID: author.ID,
		Draft:    draft,
	}
	if category != nil {
		p.CategoryID = &category.ID
	}
	if !draft {
		now := time.Now()
		p.Published = true
		p.PublishedAt = &now
	}
	require.NoError(t, db.Omit("Author", "Category").Create(p).Error)
	return p
}

// CreateComment inserts a comment row, optionally under parent.
func CreateComment(t testing.TB, db *gorm.DB, post *models.Post, author *models.User, parent *models.Comment) *models.Comment {
	t.Helper()
	c := &models.Comment{PostID: post.ID, AuthorID: author.ID, Body: "comment"}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	require.NoError(t, db.Omit("Author").Create(c).Error)
	return c
}

// Reload refetches dest by primary key.
func Reload(t testing.TB, db *gorm.DB, dest interface{}, id uint) {
	t.Helper()
	require.NoError(t, db.First(dest, id).Error)
}

// CountRows counts rows of model matching query.
func CountRows(t testing.TB, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
