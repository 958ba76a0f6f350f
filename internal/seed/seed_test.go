package seed

import (
	"context"
	"testing"

	"scribe/internal/models"
	"scribe/internal/service"
	"scribe/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestSeeder(t *testing.T) (*Seeder, *service.Engine, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	engine := service.NewEngine(db, service.Options{BcryptCost: bcrypt.MinCost})
	s, err := NewSeeder(db, engine)
	require.NoError(t, err)
	return s, engine, db
}

func TestRun_CountersStayConsistent(t *testing.T) {
	ctx := context.Background()
	s, engine, db := newTestSeeder(t)

	sum, err := s.Run(ctx, Options{
		Users:           4,
		Posts:           6,
		Drafts:          2,
		CommentsPerPost: 3,
		ReplyRatio:      0.5,
		LikesPerPost:    2,
		Seed:            42,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Users)
	assert.Equal(t, 6, sum.Posts)
	assert.Equal(t, 2, sum.Drafts)
	assert.Equal(t, 18, sum.Comments)
	assert.Equal(t, 12, sum.Likes)
	assert.Equal(t, len(s.Fixtures().Communities), sum.Communities)

	var published int64
	require.NoError(t, db.Model(&models.Post{}).Where("draft = ?", false).Count(&published).Error)
	assert.Equal(t, int64(6), published)

	// Everything went through the engine, so a sweep finds no drift.
	res, err := engine.Reconcile.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Total())
}

func TestCategories_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSeeder(t)

	first, err := s.Categories(ctx)
	require.NoError(t, err)
	second, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, second, len(first))
	assert.Len(t, first, len(s.Fixtures().Categories))
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	s, _, db := newTestSeeder(t)

	_, err := s.ApplyPreset(ctx, "minimal", 7)
	require.NoError(t, err)
	require.NoError(t, s.ClearAll(ctx))

	for _, m := range []interface{}{&models.User{}, &models.Post{}, &models.Comment{}, &models.Category{}, &models.Activity{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T", m)
	}
}

func TestApplyPreset_Unknown(t *testing.T) {
	s, _, _ := newTestSeeder(t)
	_, err := s.ApplyPreset(context.Background(), "galactic", 0)
	assert.ErrorContains(t, err, "unknown preset")
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, Options{Users: 1}.Validate())
	assert.Error(t, Options{}.Validate())
	assert.Error(t, Options{Users: 1, Posts: -1}.Validate())
	assert.Error(t, Options{Users: 1, ReplyRatio: 1.5}.Validate())
}
