package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scribe/internal/config"
	"scribe/internal/featureflags"
	"scribe/internal/middleware"
	"scribe/internal/models"
	"scribe/internal/moderation"
	"scribe/internal/service"
	"scribe/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

const testDoc = `{"blocks":[{"type":"paragraph","data":{"text":"Hello there"}}]}`

type testServer struct {
	*Server
	app *fiber.App
	db  *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWith(t, nil, "")
}

func newTestServerWith(t *testing.T, classifier moderation.Classifier, flags string) *testServer {
	t.Helper()
	db := testutil.NewTestDB(t)
	ff := featureflags.NewManager(flags)
	engine := service.NewEngine(db, service.Options{
		Classifier: classifier,
		Flags:      ff,
		BcryptCost: bcrypt.MinCost,
	})
	cfg := &config.Config{
		Env:                "test",
		JWTSecret:          testSecret,
		RateLimitPerMinute: 10000,
		RateLimitFailOpen:  true,
	}
	srv := NewServer(cfg, db, nil, engine, ff)
	t.Cleanup(engine.Cascade.Wait)
	return &testServer{Server: srv, app: srv.App(), db: db}
}

func tokenFor(t *testing.T, userID uint) string {
	t.Helper()
	tok, err := middleware.IssueToken(testSecret, userID, time.Hour)
	require.NoError(t, err)
	return tok
}

// call sends a JSON request and decodes the response into out when given.
func (ts *testServer) call(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		if len(data) > 0 {
			require.NoError(t, json.Unmarshal(data, out), string(data))
		}
	}
	return resp.StatusCode
}

func (ts *testServer) user(t *testing.T, name string) (*models.User, string) {
	t.Helper()
	u := testutil.CreateUser(t, ts.db, name)
	return u, tokenFor(t, u.ID)
}

func (ts *testServer) admin(t *testing.T, name string) (*models.User, string) {
	t.Helper()
	u := testutil.CreateAdmin(t, ts.db, name)
	return u, tokenFor(t, u.ID)
}

func (ts *testServer) category(t *testing.T, adminToken, name string) models.Category {
	t.Helper()
	var cat models.Category
	status := ts.call(t, http.MethodPost, "/api/admin/categories", adminToken, fiber.Map{"name": name}, &cat)
	require.Equal(t, http.StatusCreated, status)
	return cat
}

func (ts *testServer) publish(t *testing.T, token string, categoryID uint, title string) models.Post {
	t.Helper()
	var post models.Post
	status := ts.call(t, http.MethodPost, "/api/posts", token, fiber.Map{
		"title":       title,
		"description": "A short description",
		"banner":      "https://img.example.com/banner.png",
		"content":     testDoc,
		"category_id": categoryID,
	}, &post)
	require.Equal(t, http.StatusCreated, status)
	return post
}
