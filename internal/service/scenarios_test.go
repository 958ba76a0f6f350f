package service

import (
	"context"
	"testing"

	"scribe/internal/models"
	"scribe/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLifecycle walks one post from publication through category removal
// and its author's ban.
func TestLifecycle(t *testing.T) {
	e, db := newTestEngine(t)
	ctx := context.Background()
	admin := testutil.CreateAdmin(t, db, "root")

	author, err := e.Users.Register(ctx, RegisterInput{Fullname: "Ada Lovelace", Email: "ada@example.com", Password: "Secret123"})
	require.NoError(t, err)
	reader := testutil.CreateUser(t, db, "reader")

	tech, err := e.Categories.Create(ctx, "tech")
	require.NoError(t, err)
	assert.Equal(t, 0, tech.PostCount)

	// publish under tech
	p1 := publish(t, e, author, tech)
	assert.Equal(t, 1, reloadCategory(t, db, tech.ID).PostCount)
	assert.Equal(t, 1, reloadUser(t, db, author.ID).TotalPosts)

	// back to draft
	_, err = e.Posts.CreateOrUpdatePost(ctx, PostInput{ID: p1.ID, AuthorID: author.ID, Title: p1.Title, CategoryID: &tech.ID, Draft: true})
	require.NoError(t, err)
	assert.Equal(t, 0, reloadCategory(t, db, tech.ID).PostCount)
	assert.Equal(t, 0, reloadUser(t, db, author.ID).TotalPosts)

	// re-publish so it can take comments
	_, err = e.Posts.CreateOrUpdatePost(ctx, PostInput{
		ID: p1.ID, AuthorID: author.ID, Title: p1.Title, Description: "d",
		Banner: "b", Content: testDoc, CategoryID: &tech.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, reloadCategory(t, db, tech.ID).PostCount)

	// comment and reply
	c1 := comment(t, e, p1, reader, nil)
	got := reloadPost(t, db, p1.ID)
	assert.Equal(t, 1, got.TotalComments)
	assert.Equal(t, 1, got.TotalParentComments)

	c2 := comment(t, e, p1, author, c1)
	got = reloadPost(t, db, p1.ID)
	assert.Equal(t, 2, got.TotalComments)
	assert.Equal(t, 1, got.TotalParentComments)
	kids, err := e.Repos.Comments.ChildIDs(ctx, c1.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{c2.ID}, kids)

	// delete the root comment; the reply goes with it
	require.NoError(t, e.Comments.DeleteComment(ctx, DeleteCommentInput{CommentID: c1.ID, ActorID: reader.ID}))
	got = reloadPost(t, db, p1.ID)
	assert.Zero(t, got.TotalComments)
	assert.Zero(t, got.TotalParentComments)
	assert.Zero(t, testutil.CountRows(t, db, &models.Notification{},
		"comment_id IN ? OR replied_on_comment_id IN ? OR reply_id IN ?",
		[]uint{c1.ID, c2.ID}, []uint{c1.ID, c2.ID}, []uint{c1.ID, c2.ID}))

	// delete the category under the live post
	comment(t, e, p1, reader, nil)
	require.NoError(t, e.Categories.Delete(ctx, tech.ID, admin.ID))
	assert.Zero(t, testutil.CountRows(t, db, &models.Post{}, "id = ?", p1.ID))
	assert.Zero(t, testutil.CountRows(t, db, &models.Comment{}, "post_id = ?", p1.ID))
	assert.Zero(t, testutil.CountRows(t, db, &models.Category{}, "id = ?", tech.ID))
	assert.Equal(t, 0, reloadUser(t, db, author.ID).TotalPosts)
	alerts, err := e.Notifications.ListAlerts(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, CategoryDeletedReason, alerts[0].Reason)

	// ban the author
	misc := testutil.CreateCategory(t, db, "misc")
	p2 := publish(t, e, author, misc)
	top := comment(t, e, p2, reader, nil)
	comment(t, e, p2, author, top)
	require.NoError(t, e.Cascade.BanUser(ctx, author.ID, admin.ID))

	assert.Zero(t, testutil.CountRows(t, db, &models.Post{}, "author_id = ?", author.ID))
	assert.Zero(t, testutil.CountRows(t, db, &models.Comment{}, "post_id = ?", p2.ID))
	assert.Zero(t, testutil.CountRows(t, db, &models.User{}, "id = ?", author.ID))
	assert.Equal(t, 0, reloadCategory(t, db, misc.ID).PostCount)
	banned, err := e.Repos.Users.IsEmailBanned(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.True(t, banned)

	_, err = e.Users.Register(ctx, RegisterInput{Fullname: "Ada Again", Email: "ADA@example.com", Password: "Secret123"})
	assertCode(t, err, models.CodeConflict)
}
