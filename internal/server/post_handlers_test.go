package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"scribe/internal/models"
	"scribe/internal/moderation"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, s moderation.Submission) (*moderation.Verdict, error) {
	args := m.Called(ctx, s)
	v, _ := args.Get(0).(*moderation.Verdict)
	return v, args.Error(1)
}

func TestPostLifecycle(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.admin(t, "root")
	author, authorToken := ts.user(t, "author")
	_, readerToken := ts.user(t, "reader")

	cat := ts.category(t, adminToken, "Science")
	post := ts.publish(t, authorToken, cat.ID, "On Orbits")
	assert.Equal(t, author.ID, post.AuthorID)

	var cats []models.Category
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/categories", "", nil, &cats))
	require.Len(t, cats, 1)
	assert.Equal(t, 1, cats[0].PostCount)

	var liked fiber.Map
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/like", post.ID), readerToken, nil, &liked))
	assert.Equal(t, true, liked["liked"])

	var top models.Comment
	require.Equal(t, http.StatusCreated, ts.call(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), readerToken,
		fiber.Map{"comment": "Great read"}, &top))
	var reply models.Comment
	require.Equal(t, http.StatusCreated, ts.call(t, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), authorToken,
		fiber.Map{"comment": "Thanks", "replying_to": top.ID}, &reply))

	var replies []models.Comment
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, fmt.Sprintf("/api/comments/%d/replies", top.ID), "", nil, &replies))
	require.Len(t, replies, 1)
	assert.Equal(t, reply.ID, replies[0].ID)

	var got models.Post
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/posts/"+post.Slug, readerToken, nil, &got))
	assert.Equal(t, 2, got.TotalComments)
	assert.Equal(t, 1, got.TotalParentComments)
	assert.Equal(t, 1, got.TotalLikes)
	assert.True(t, got.Liked)

	// Deleting the top-level comment takes its reply with it.
	require.Equal(t, http.StatusNoContent, ts.call(t, http.MethodDelete, fmt.Sprintf("/api/comments/%d", top.ID), readerToken, nil, nil))
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/posts/"+post.Slug, "", nil, &got))
	assert.Equal(t, 0, got.TotalComments)
	assert.Equal(t, 0, got.TotalParentComments)
	assert.False(t, got.Liked, "anonymous viewers never see a like")

	// Only the author may delete without a reason.
	assert.Equal(t, http.StatusForbidden, ts.call(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), readerToken, nil, nil))
	require.Equal(t, http.StatusNoContent, ts.call(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), authorToken, nil, nil))
	assert.Equal(t, http.StatusNotFound, ts.call(t, http.MethodGet, "/api/posts/"+post.Slug, "", nil, nil))

	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/categories", "", nil, &cats))
	assert.Equal(t, 0, cats[0].PostCount)
}

func TestDeletePost_AdminWithReasonAlertsAuthor(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.admin(t, "root")
	_, authorToken := ts.user(t, "author")

	cat := ts.category(t, adminToken, "News")
	post := ts.publish(t, authorToken, cat.ID, "Hot Take")

	status := ts.call(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), adminToken,
		fiber.Map{"reason": "Off topic", "warn": true}, nil)
	require.Equal(t, http.StatusNoContent, status)

	var alerts []models.Alert
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/me/alerts", authorToken, nil, &alerts))
	require.Len(t, alerts, 2, "one removal alert and one warning")

	var cleared fiber.Map
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodDelete, "/api/me/alerts", authorToken, nil, &cleared))
	assert.Equal(t, float64(2), cleared["cleared"])
}

func TestSavePost_Validation(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.user(t, "author")

	var body models.ErrorResponse
	status := ts.call(t, http.MethodPost, "/api/posts", token, fiber.Map{"content": testDoc}, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, models.CodeValidation, body.Code)

	status = ts.call(t, http.MethodPost, "/api/posts", token, fiber.Map{
		"title": "Needs a category", "description": "d", "banner": "b", "content": testDoc,
	}, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Error, "category")

	var draft models.Post
	status = ts.call(t, http.MethodPost, "/api/posts", token, fiber.Map{"title": "Half done", "draft": true}, &draft)
	assert.Equal(t, http.StatusCreated, status)
	assert.True(t, draft.Draft)
}

func TestCheckPost_UsesClassifier(t *testing.T) {
	classifier := new(mockClassifier)
	ts := newTestServerWith(t, classifier, "publish_classifier=on")
	_, adminToken := ts.admin(t, "root")
	_, token := ts.user(t, "author")
	cat := ts.category(t, adminToken, "Opinion")

	classifier.On("Classify", mock.Anything, mock.MatchedBy(func(s moderation.Submission) bool {
		return s.Title == "Fine"
	})).Return(&moderation.Verdict{Safe: true}, nil)
	classifier.On("Classify", mock.Anything, mock.MatchedBy(func(s moderation.Submission) bool {
		return s.Title == "Nasty"
	})).Return(&moderation.Verdict{Safe: false, Reason: "hate speech"}, nil)
	classifier.On("Classify", mock.Anything, mock.MatchedBy(func(s moderation.Submission) bool {
		return s.Title == "Timeout"
	})).Return(nil, models.NewExternalServiceError("classifier", errors.New("deadline exceeded")))

	var verdict moderation.Verdict
	status := ts.call(t, http.MethodPost, "/api/posts/check", token, fiber.Map{"title": "Nasty", "content": testDoc}, &verdict)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, verdict.Safe)

	ts.publish(t, token, cat.ID, "Fine")

	var body models.ErrorResponse
	status = ts.call(t, http.MethodPost, "/api/posts", token, fiber.Map{
		"title": "Nasty", "description": "d", "banner": "b", "content": testDoc, "category_id": cat.ID,
	}, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Error, "hate speech")

	status = ts.call(t, http.MethodPost, "/api/posts", token, fiber.Map{
		"title": "Timeout", "description": "d", "banner": "b", "content": testDoc, "category_id": cat.ID,
	}, &body)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, models.CodeExternalService, body.Code)

	var cats []models.Category
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, "/api/categories", "", nil, &cats))
	assert.Equal(t, 1, cats[0].PostCount, "rejected submissions leave counters alone")
	classifier.AssertExpectations(t)
}

func TestInvalidIDs(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.user(t, "alice")

	var body models.ErrorResponse
	status := ts.call(t, http.MethodPost, "/api/posts/abc/like", token, nil, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid ID", body.Error)

	status = ts.call(t, http.MethodDelete, "/api/comments/0", token, nil, &body)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestListUserPosts_DraftsVisibleToAuthorOnly(t *testing.T) {
	ts := newTestServer(t)
	_, adminToken := ts.admin(t, "root")
	author, authorToken := ts.user(t, "author")
	_, readerToken := ts.user(t, "reader")

	cat := ts.category(t, adminToken, "History")
	published := ts.publish(t, authorToken, cat.ID, "Rome")
	var draft models.Post
	require.Equal(t, http.StatusCreated, ts.call(t, http.MethodPost, "/api/posts", authorToken,
		fiber.Map{"title": "Carthage", "draft": true}, &draft))

	path := fmt.Sprintf("/api/users/%d/posts", author.ID)
	var posts []models.Post
	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, path, "", nil, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, published.ID, posts[0].ID)

	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, path, readerToken, nil, &posts))
	assert.Len(t, posts, 1)

	require.Equal(t, http.StatusOK, ts.call(t, http.MethodGet, path, authorToken, nil, &posts))
	require.Len(t, posts, 2)
	assert.Equal(t, draft.ID, posts[1].ID)

	assert.Equal(t, http.StatusBadRequest, ts.call(t, http.MethodGet, "/api/users/abc/posts", "", nil, nil))
}
