package bootstrap

import (
	"context"
	"testing"

	"scribe/internal/config"
	"scribe/internal/featureflags"
	"scribe/internal/moderation"
	"scribe/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func devConfig() *config.Config {
	return &config.Config{
		Env:              "development",
		DevBootstrapRoot: true,
		DevRootEmail:     "Root@Scribe.Local",
		DevRootPassword:  "Rootpass1",
	}
}

func TestEnsureDevRootAdmin(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	cfg := devConfig()
	engine := NewEngine(cfg, db, nil, featureflags.NewManager(""))

	require.NoError(t, ensureDevRootAdmin(ctx, cfg, engine))
	root, err := engine.Users.Authenticate(ctx, "root@scribe.local", "Rootpass1")
	require.NoError(t, err)
	assert.True(t, root.IsAdmin)

	// Running again keeps the account; forcing credentials resets the password.
	cfg.DevRootPassword = "Newpass22"
	require.NoError(t, ensureDevRootAdmin(ctx, cfg, engine))
	_, err = engine.Users.Authenticate(ctx, "root@scribe.local", "Rootpass1")
	require.NoError(t, err)

	cfg.DevRootForceCredentials = true
	require.NoError(t, ensureDevRootAdmin(ctx, cfg, engine))
	_, err = engine.Users.Authenticate(ctx, "root@scribe.local", "Newpass22")
	require.NoError(t, err)
}

func TestEnsureDevRootAdmin_Guards(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)

	prod := devConfig()
	prod.Env = "production"
	engine := NewEngine(prod, db, nil, nil)
	require.NoError(t, ensureDevRootAdmin(ctx, prod, engine))
	admins, err := engine.Repos.Users.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Empty(t, admins)

	noPass := devConfig()
	noPass.DevRootPassword = ""
	assert.ErrorContains(t, ensureDevRootAdmin(ctx, noPass, engine), "DEV_ROOT_PASSWORD")
}

func TestNewEngine_ClassifierOnlyWithKey(t *testing.T) {
	db := testutil.NewTestDB(t)
	flags := featureflags.NewManager("publish_classifier=on")

	engine := NewEngine(&config.Config{}, db, nil, flags)
	verdict, err := engine.Posts.Check(context.Background(), moderation.Submission{Title: "Hello"})
	require.NoError(t, err)
	assert.True(t, verdict.Safe)
}
