package repository

import (
	"context"
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostRepository_CRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	t.Run("Create and GetByID", func(t *testing.T) {
		post := &models.Post{
			Title:   "First Post",
			Content: "Hello world",
			Slug:    "first-post-1",
			Status:  models.PostStatusPublished,
		}
		err := repo.Create(ctx, post)
		assert.NoError(t, err)
		assert.NotZero(t, post.ID)

		fetched, err := repo.GetByID(ctx, post.ID)
		assert.NoError(t, err)
		assert.Equal(t, "First Post", fetched.Title)
	})

	t.Run("GetBySlug", func(t *testing.T) {
		post := &models.Post{Title: "Sluggy", Content: "c", Slug: "sluggy-2", Status: models.PostStatusPublished}
		require.NoError(t, repo.Create(ctx, post))

		fetched, err := repo.GetBySlug(ctx, "sluggy-2")
		assert.NoError(t, err)
		assert.Equal(t, post.ID, fetched.ID)

		_, err = repo.GetBySlug(ctx, "missing")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("Update", func(t *testing.T) {
		post := &models.Post{Title: "Before", Content: "c", Slug: "before-3", Status: models.PostStatusDraft}
		require.NoError(t, repo.Create(ctx, post))

		post.Title = "After"
		assert.NoError(t, repo.Update(ctx, post))

		fetched, err := repo.GetByID(ctx, post.ID)
		assert.NoError(t, err)
		assert.Equal(t, "After", fetched.Title)
	})

	t.Run("SoftDelete hides the post", func(t *testing.T) {
		post := &models.Post{Title: "Gone", Content: "c", Slug: "gone-4", Status: models.PostStatusPublished}
		require.NoError(t, repo.Create(ctx, post))

		assert.NoError(t, repo.SoftDelete(ctx, post.ID))

		_, err := repo.GetByID(ctx, post.ID)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

		// Row still exists
		var count int64
		db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("HardDelete removes the row", func(t *testing.T) {
		post := &models.Post{Title: "Forever gone", Content: "c", Slug: "forever-5", Status: models.PostStatusPublished}
		require.NoError(t, repo.Create(ctx, post))

		assert.NoError(t, repo.HardDelete(ctx, post.ID))

		var count int64
		db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("IncrementViewCount", func(t *testing.T) {
		post := &models.Post{Title: "Viewed", Content: "c", Slug: "viewed-6", Status: models.PostStatusPublished}
		require.NoError(t, repo.Create(ctx, post))

		assert.NoError(t, repo.IncrementViewCount(ctx, post.ID))
		assert.NoError(t, repo.IncrementViewCount(ctx, post.ID))

		fetched, err := repo.GetByID(ctx, post.ID)
		assert.NoError(t, err)
		assert.Equal(t, 2, fetched.ViewCount)

		assert.ErrorIs(t, repo.IncrementViewCount(ctx, 99999), gorm.ErrRecordNotFound)
	})
}

func TestPostRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	seed := []*models.Post{
		{Title: "Go Generics", Content: "All about type parameters", Slug: "go-generics-1", Status: models.PostStatusPublished, CategorySlug: "dev", Tags: []string{"go", "generics"}},
		{Title: "Travel Notes", Content: "Trains in Japan", Slug: "travel-notes-2", Status: models.PostStatusPublished, CategorySlug: "life", Tags: []string{"travel"}},
		{Title: "Go Modules Draft", Content: "wip", Slug: "go-modules-3", Status: models.PostStatusDraft, CategorySlug: "dev", Tags: []string{"go"}},
	}
	for _, p := range seed {
		require.NoError(t, repo.Create(ctx, p))
	}

	t.Run("no filter returns everything", func(t *testing.T) {
		posts, total, err := repo.List(ctx, PostFilter{Limit: 10})
		assert.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, posts, 3)
	})

	t.Run("status filter", func(t *testing.T) {
		posts, total, err := repo.List(ctx, PostFilter{Status: models.PostStatusPublished, Limit: 10})
		assert.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, p := range posts {
			assert.Equal(t, models.PostStatusPublished, p.Status)
		}
	})

	t.Run("category filter", func(t *testing.T) {
		_, total, err := repo.List(ctx, PostFilter{CategorySlug: "dev", Limit: 10})
		assert.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("tag filter requires all tags", func(t *testing.T) {
		_, total, err := repo.List(ctx, PostFilter{Tags: []string{"go"}, Limit: 10})
		assert.NoError(t, err)
		assert.Equal(t, int64(2), total)

		_, total, err = repo.List(ctx, PostFilter{Tags: []string{"go", "generics"}, Limit: 10})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("search matches title and content case-insensitively", func(t *testing.T) {
		_, total, err := repo.List(ctx, PostFilter{Search: "japan", Limit: 10})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), total)

		_, total, err = repo.List(ctx, PostFilter{Search: "go", Limit: 10})
		assert.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})

	t.Run("pagination", func(t *testing.T) {
		posts, total, err := repo.List(ctx, PostFilter{Limit: 2})
		assert.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, posts, 2)

		rest, _, err := repo.List(ctx, PostFilter{Limit: 2, Offset: 2})
		assert.NoError(t, err)
		assert.Len(t, rest, 1)
	})
}

func TestPostRepository_ListTags(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Post{Title: "a", Content: "c", Slug: "a-1", Status: models.PostStatusPublished, Tags: []string{"go", "web"}}))
	require.NoError(t, repo.Create(ctx, &models.Post{Title: "b", Content: "c", Slug: "b-2", Status: models.PostStatusPublished, Tags: []string{"go", "redis"}}))
	require.NoError(t, repo.Create(ctx, &models.Post{Title: "d", Content: "c", Slug: "d-3", Status: models.PostStatusDraft, Tags: []string{"secret"}}))

	tags, err := repo.ListTags(ctx)
	assert.NoError(t, err)
	assert.Equal(t, []string{"go", "redis", "web"}, tags, "sorted, distinct, drafts excluded")
}
