package service

import (
	"context"
	"testing"

	"scribe/internal/featureflags"
	"scribe/internal/models"
	"scribe/internal/moderation"
	"scribe/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testDoc = `{"blocks":[{"type":"paragraph","data":{"text":"Hello there"}}]}`

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	return NewEngine(db, Options{BcryptCost: bcrypt.MinCost}), db
}

func newTestEngineWith(t *testing.T, classifier moderation.Classifier, flags string) (*Engine, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	return NewEngine(db, Options{
		BcryptCost: bcrypt.MinCost,
		Classifier: classifier,
		Flags:      featureflags.NewManager(flags),
	}), db
}

func publish(t *testing.T, e *Engine, author *models.User, category *models.Category) *models.Post {
	t.Helper()
	in := PostInput{
		AuthorID:    author.ID,
		Title:       "A published post",
		Description: "short description",
		Banner:      "https://cdn.example.com/banner.png",
		Content:     testDoc,
	}
	if category != nil {
		in.CategoryID = &category.ID
	}
	p, err := e.Posts.CreateOrUpdatePost(context.Background(), in)
	require.NoError(t, err)
	return p
}

func draft(t *testing.T, e *Engine, author *models.User, category *models.Category) *models.Post {
	t.Helper()
	in := PostInput{AuthorID: author.ID, Title: "A draft", Draft: true}
	if category != nil {
		in.CategoryID = &category.ID
	}
	p, err := e.Posts.CreateOrUpdatePost(context.Background(), in)
	require.NoError(t, err)
	return p
}

func comment(t *testing.T, e *Engine, post *models.Post, author *models.User, parent *models.Comment) *models.Comment {
	t.Helper()
	in := AddCommentInput{PostID: post.ID, AuthorID: author.ID, Body: "a comment"}
	if parent != nil {
		in.ParentID = &parent.ID
	}
	c, err := e.Comments.AddComment(context.Background(), in)
	require.NoError(t, err)
	return c
}

func reloadPost(t *testing.T, db *gorm.DB, id uint) models.Post {
	t.Helper()
	var p models.Post
	testutil.Reload(t, db, &p, id)
	return p
}

func reloadCategory(t *testing.T, db *gorm.DB, id uint) models.Category {
	t.Helper()
	var c models.Category
	testutil.Reload(t, db, &c, id)
	return c
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) models.User {
	t.Helper()
	var u models.User
	testutil.Reload(t, db, &u, id)
	return u
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, models.IsCode(err, code), "want %s, got %v", code, err)
}

// assertCategoryInvariant checks post_count against a scan of live posts.
func assertCategoryInvariant(t *testing.T, db *gorm.DB) {
	t.Helper()
	var categories []models.Category
	require.NoError(t, db.Find(&categories).Error)
	for _, c := range categories {
		live := testutil.CountRows(t, db, &models.Post{}, "category_id = ? AND draft = ?", c.ID, false)
		assert.Equal(t, int(live), c.PostCount, "category %s", c.Name)
	}
}

// assertCommentCounters checks a post's counters against its comment rows.
func assertCommentCounters(t *testing.T, db *gorm.DB, postID uint) {
	t.Helper()
	p := reloadPost(t, db, postID)
	all := testutil.CountRows(t, db, &models.Comment{}, "post_id = ?", postID)
	top := testutil.CountRows(t, db, &models.Comment{}, "post_id = ? AND parent_id IS NULL", postID)
	assert.Equal(t, int(all), p.TotalComments)
	assert.Equal(t, int(top), p.TotalParentComments)
}

type stubClassifier struct {
	verdict *moderation.Verdict
	err     error
	calls   int
}

func (s *stubClassifier) Classify(_ context.Context, _ moderation.Submission) (*moderation.Verdict, error) {
	s.calls++
	return s.verdict, s.err
}
