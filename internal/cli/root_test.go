package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"scribe/internal/bootstrap"
	"scribe/internal/config"
	"scribe/internal/featureflags"
	"scribe/internal/models"
	"scribe/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testOpener(t *testing.T, flags string) (Opener, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	cfg := &config.Config{Env: "test", DBDriver: "sqlite", FeatureFlags: flags}
	ff := featureflags.NewManager(flags)
	engine := bootstrap.NewEngine(cfg, db, nil, ff)
	return func(ctx context.Context) (*bootstrap.Runtime, error) {
		return &bootstrap.Runtime{Config: cfg, DB: db, Flags: ff, Engine: engine}, nil
	}, db
}

func execute(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand(open)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootRejectsUnknownFormat(t *testing.T) {
	open, _ := testOpener(t, "")
	_, err := execute(t, open, "--format", "yaml", "reconcile")
	assert.ErrorContains(t, err, "invalid format")
}

func TestAdminCommands(t *testing.T) {
	open, db := testOpener(t, "")
	u := testutil.CreateUser(t, db, "alice")

	out, err := execute(t, open, "admin", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no administrators")

	_, err = execute(t, open, "admin", "promote", "1")
	require.NoError(t, err)

	out, err = execute(t, open, "--format", "json", "admin", "list")
	require.NoError(t, err)
	var admins []models.User
	require.NoError(t, json.Unmarshal([]byte(out), &admins))
	require.Len(t, admins, 1)
	assert.Equal(t, u.ID, admins[0].ID)

	_, err = execute(t, open, "admin", "demote", "1")
	require.NoError(t, err)
	_, err = execute(t, open, "admin", "promote", "abc")
	assert.ErrorContains(t, err, "invalid user id")
	_, err = execute(t, open, "admin", "promote", "404")
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestBanAndWarn(t *testing.T) {
	open, db := testOpener(t, "")
	u := testutil.CreateUser(t, db, "troll")
	admin := testutil.CreateAdmin(t, db, "root")

	_, err := execute(t, open, "warn", "1")
	assert.ErrorContains(t, err, "reason")

	out, err := execute(t, open, "warn", "1", "--reason", "Spam")
	require.NoError(t, err)
	assert.Contains(t, out, "warned")

	_, err = execute(t, open, "ban", "2")
	assert.True(t, models.IsCode(err, models.CodeForbidden), "administrators cannot be banned")

	out, err = execute(t, open, "ban", "1", "--actor", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "banned")
	assert.Equal(t, int64(0), testutil.CountRows(t, db, &models.User{}, "id = ?", u.ID))
	assert.Equal(t, int64(1), testutil.CountRows(t, db, &models.BannedEmail{}, "email = ?", u.Email))
	assert.Equal(t, int64(1), testutil.CountRows(t, db, &models.User{}, "id = ?", admin.ID))
}

func TestSeedThenReconcile(t *testing.T) {
	open, db := testOpener(t, "")

	out, err := execute(t, open, "seed", "--preset", "minimal", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded users=5 posts=10 drafts=1")

	out, err = execute(t, open, "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "counters consistent")

	require.NoError(t, db.Model(&models.Category{}).Where("1 = 1").UpdateColumn("post_count", 99).Error)
	out, err = execute(t, open, "--format", "json", "reconcile")
	require.NoError(t, err)
	var res map[string]int64
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Positive(t, res["category_post_counts"])

	_, err = execute(t, open, "seed", "--clean", "--users", "2", "--posts", "1", "--drafts", "0")
	require.NoError(t, err)
	assert.Equal(t, int64(2), testutil.CountRows(t, db, &models.User{}, "1 = 1"))
}

func TestFlagsCommand(t *testing.T) {
	open, _ := testOpener(t, "publish_classifier=on,reconcile_ticker=off")

	out, err := execute(t, open, "flags")
	require.NoError(t, err)
	assert.Equal(t, "publish_classifier=on (true)\nreconcile_ticker=off (false)\n", out)
}
