package repository

import (
	"context"
	"regexp"
	"testing"

	"scribe/internal/models"
	"scribe/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email"}).
			AddRow(1, "ada", "ada@example.com"))

	user, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := repo.GetByID(context.Background(), 9)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestUserRepository_MarkWarned(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "warned"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	changed, err := repo.MarkWarned(ctx, 4)
	require.NoError(t, err)
	assert.True(t, changed)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "warned"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	changed, err = repo.MarkWarned(ctx, 4)
	require.NoError(t, err)
	assert.False(t, changed, "second warning leaves the flag alone")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_AdjustCounters(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "total_posts"=CASE WHEN total_posts >= $1 THEN total_posts - $2 ELSE 0 END`)).
		WithArgs(1, 1, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.AdjustCounters(context.Background(), 3, map[models.UserCounter]int{models.UserCounterPosts: -1})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_AdjustCounters_ZeroDeltaIsNoop(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	err := repo.AdjustCounters(context.Background(), 3, map[models.UserCounter]int{models.UserCounterReads: 0})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateAndBanList(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &models.User{Username: "grace", Email: "  Grace@Example.COM ", Password: "x"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, "grace@example.com", u.Email)

	err := repo.Create(ctx, &models.User{Username: "grace2", Email: "grace@example.com", Password: "x"})
	assert.True(t, models.IsCode(err, models.CodeConflict))

	banned, err := repo.IsEmailBanned(ctx, "grace@example.com")
	require.NoError(t, err)
	assert.False(t, banned)

	require.NoError(t, repo.BanEmail(ctx, "GRACE@example.com"))
	require.NoError(t, repo.BanEmail(ctx, "grace@example.com"))

	banned, err = repo.IsEmailBanned(ctx, "Grace@Example.com")
	require.NoError(t, err)
	assert.True(t, banned)

	n, err := repo.CountBanned(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUserRepository_Delete_Idempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "linus")

	removed, err := repo.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestUserRepository_Alerts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "ken")

	require.NoError(t, repo.AddAlert(ctx, &models.Alert{UserID: u.ID, Type: models.AlertTypePost, Action: models.AlertActionDeleted, Content: "t"}))
	require.NoError(t, repo.AddAlert(ctx, &models.Alert{UserID: u.ID, Type: models.AlertTypeWarning, Action: models.AlertActionWarned, Reason: "spam"}))

	alerts, err := repo.ListAlerts(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, models.AlertTypePost, alerts[0].Type)

	n, err := repo.ClearAlerts(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestUserRepository_RecountPosts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "barbara")
	testutil.CreatePost(t, db, u, nil, false)
	testutil.CreatePost(t, db, u, nil, false)
	testutil.CreatePost(t, db, u, nil, true)

	fixed, err := repo.RecountPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fixed)

	var got models.User
	testutil.Reload(t, db, &got, u.ID)
	assert.Equal(t, 2, got.TotalPosts)

	fixed, err = repo.RecountPosts(ctx)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}
