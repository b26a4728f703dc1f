package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestPost(t *testing.T, s *Server, in service.CreatePostInput) *models.Post {
	t.Helper()
	post, err := s.postService.CreatePost(context.Background(), in)
	require.NoError(t, err)
	return post
}

func TestPostHandlers_Create(t *testing.T) {
	s := newTestServer(t)
	app := newTestApp(t, s)
	token := adminToken(t, s)

	t.Run("requires authentication", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"title": "Nope"})
		req := httptest.NewRequest(http.MethodPost, "/api/posts/", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("creates and slugs the post", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{
			"title":   "Hello Fiber",
			"content": "Some **markdown** here",
			"tags":    []string{"go", "web"},
			"status":  "published",
		})
		req := authed(httptest.NewRequest(http.MethodPost, "/api/posts/", bytes.NewReader(body)), token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var post models.Post
		decodeJSON(t, resp.Body, &post)
		assert.NotZero(t, post.ID)
		assert.Contains(t, post.Slug, "hello-fiber")
		assert.Equal(t, models.PostStatusPublished, post.Status)
		assert.NotNil(t, post.PublishedAt)
	})

	t.Run("missing title rejected", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"content": "no title"})
		req := authed(httptest.NewRequest(http.MethodPost, "/api/posts/", bytes.NewReader(body)), token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var errResp models.ErrorResponse
		decodeJSON(t, resp.Body, &errResp)
		assert.Equal(t, "VALIDATION_ERROR", errResp.Code)
	})
}

func TestPostHandlers_ListAndGet(t *testing.T) {
	s := newTestServer(t)
	app := newTestApp(t, s)

	published := createTestPost(t, s, service.CreatePostInput{
		Title: "Published Post", Content: "Body", Status: "published",
		Tags: []string{"go"}, CategorySlug: "dev",
	})
	createTestPost(t, s, service.CreatePostInput{
		Title: "Draft Post", Content: "Hidden", Status: "draft",
	})

	t.Run("defaults to published posts", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list models.PostList
		decodeJSON(t, resp.Body, &list)
		assert.EqualValues(t, 1, list.Total)
		require.Len(t, list.Items, 1)
		assert.Equal(t, "Published Post", list.Items[0].Title)
	})

	t.Run("status filter", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/?status=draft", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		var list models.PostList
		decodeJSON(t, resp.Body, &list)
		assert.EqualValues(t, 1, list.Total)
		require.Len(t, list.Items, 1)
		assert.Equal(t, "Draft Post", list.Items[0].Title)
	})

	t.Run("get by id", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/"+itoa(published.ID), nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var post models.Post
		decodeJSON(t, resp.Body, &post)
		assert.Equal(t, published.ID, post.ID)
		assert.Equal(t, "Body", post.Content)
	})

	t.Run("get by slug", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/slug/"+published.Slug, nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var post models.Post
		decodeJSON(t, resp.Body, &post)
		assert.Equal(t, published.ID, post.ID)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/99999", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("non-numeric id is 400", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/not-a-number", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("tags endpoint", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/tags", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Tags []string `json:"tags"`
		}
		decodeJSON(t, resp.Body, &body)
		assert.Equal(t, []string{"go"}, body.Tags)
	})
}

func TestPostHandlers_Update(t *testing.T) {
	s := newTestServer(t)
	app := newTestApp(t, s)
	token := adminToken(t, s)

	post := createTestPost(t, s, service.CreatePostInput{
		Title: "Original", Content: "Body", Status: "draft",
	})

	t.Run("partial update keeps untouched fields", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"title": "Renamed"})
		req := authed(httptest.NewRequest(http.MethodPut, "/api/posts/"+itoa(post.ID), bytes.NewReader(body)), token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var updated models.Post
		decodeJSON(t, resp.Body, &updated)
		assert.Equal(t, "Renamed", updated.Title)
		assert.Equal(t, "Body", updated.Content)
		assert.Contains(t, updated.Slug, "renamed")
	})

	t.Run("requires authentication", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"title": "Nope"})
		req := httptest.NewRequest(http.MethodPut, "/api/posts/"+itoa(post.ID), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestPostHandlers_Delete(t *testing.T) {
	s := newTestServer(t)
	app := newTestApp(t, s)
	token := adminToken(t, s)

	t.Run("soft delete by default", func(t *testing.T) {
		post := createTestPost(t, s, service.CreatePostInput{Title: "Doomed", Content: "x"})

		req := authed(httptest.NewRequest(http.MethodDelete, "/api/posts/"+itoa(post.ID), nil), token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		getResp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/"+itoa(post.ID), nil))
		require.NoError(t, err)
		defer func() { _ = getResp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	})

	t.Run("permanent delete removes the row", func(t *testing.T) {
		post := createTestPost(t, s, service.CreatePostInput{Title: "Gone Forever", Content: "x"})

		req := authed(httptest.NewRequest(http.MethodDelete, "/api/posts/"+itoa(post.ID)+"?permanent=true", nil), token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var count int64
		require.NoError(t, s.db.Unscoped().Model(&models.Post{}).Where("id = ?", post.ID).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestPostHandlers_RecordView(t *testing.T) {
	s := newTestServer(t)
	app := newTestApp(t, s)

	post := createTestPost(t, s, service.CreatePostInput{
		Title: "Counted", Content: "x", Status: "published",
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/posts/"+itoa(post.ID)+"/view", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	refreshed, err := s.postService.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed.ViewCount)

	t.Run("unknown post", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/posts/99999/view", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
