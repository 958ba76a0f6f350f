package repository

import (
	"context"
	"testing"

	"scribe/internal/models"
	"scribe/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommunityRepository_Membership(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCommunityRepository(db)
	ctx := context.Background()
	admin := testutil.CreateUser(t, db, "ada")
	member := testutil.CreateUser(t, db, "bob")

	c := &models.Community{Slug: "gophers", Name: "Gophers", AdminID: admin.ID, Interests: []string{"go", "tools"}}
	require.NoError(t, repo.Create(ctx, c))

	added, err := repo.AddMember(ctx, c.ID, member.ID)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = repo.AddMember(ctx, c.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, added)

	got, err := repo.GetBySlug(ctx, "gophers")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.MemberCount)
	assert.Equal(t, []string{"go", "tools"}, got.Interests)

	ok, err := repo.IsMember(ctx, c.ID, member.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	members, err := repo.ListMembers(ctx, c.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, member.ID, members[0].UserID)

	removed, err := repo.RemoveMember(ctx, c.ID, member.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.RemoveMember(ctx, c.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestCommunityRepository_Posts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewCommunityRepository(db)
	ctx := context.Background()
	admin := testutil.CreateUser(t, db, "ada")
	bob := testutil.CreateUser(t, db, "bob")
	c := &models.Community{Slug: "gophers", Name: "Gophers", AdminID: admin.ID}
	other := &models.Community{Slug: "rustaceans", Name: "Rust", AdminID: admin.ID}
	require.NoError(t, repo.Create(ctx, c))
	require.NoError(t, repo.Create(ctx, other))

	for _, cid := range []uint{c.ID, c.ID, other.ID} {
		require.NoError(t, repo.CreatePost(ctx, &models.CommunityPost{CommunityID: cid, AuthorID: bob.ID, Text: "hi"}))
	}

	posts, err := repo.ListPosts(ctx, c.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	n, err := repo.DeletePostsByAuthor(ctx, bob.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.DeletePostsByAuthor(ctx, bob.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	owned, err := repo.ListAdministeredBy(ctx, admin.ID)
	require.NoError(t, err)
	assert.Len(t, owned, 2)
}
