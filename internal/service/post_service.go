// Package service contains the application's business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"gorm.io/gorm"
)

const (
	maxTitleLen    = 200
	maxExcerptLen  = 500
	maxCategoryLen = 50
	maxTagCount    = 10
	maxTagLen      = 30

	defaultListLimit = 10
	maxListLimit     = 100
)

// ImageLinker reconciles a post's image attachments with its content.
type ImageLinker interface {
	LinkImagesToPost(ctx context.Context, postID uint, content string) error
}

type PostService struct {
	posts  repository.PostRepository
	images ImageLinker
}

type CreatePostInput struct {
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Excerpt      string   `json:"excerpt"`
	Tags         []string `json:"tags"`
	CategorySlug string   `json:"category_slug"`
	Status       string   `json:"status"`
}

// UpdatePostInput carries a partial update; nil fields are left untouched.
type UpdatePostInput struct {
	Title        *string   `json:"title"`
	Content      *string   `json:"content"`
	Excerpt      *string   `json:"excerpt"`
	Tags         *[]string `json:"tags"`
	CategorySlug *string   `json:"category_slug"`
	Status       *string   `json:"status"`
}

type ListPostsInput struct {
	Status       string
	CategorySlug string
	Tags         []string
	Search       string
	Skip         int
	Limit        int
}

func NewPostService(posts repository.PostRepository, images ImageLinker) *PostService {
	return &PostService{posts: posts, images: images}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(SanitizeText(in.Title))
	content := SanitizeText(in.Content)

	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return nil, models.NewValidationError(fmt.Sprintf("Title too long (max %d characters)", maxTitleLen))
	}
	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Excerpt) > maxExcerptLen {
		return nil, models.NewValidationError(fmt.Sprintf("Excerpt too long (max %d characters)", maxExcerptLen))
	}
	if len(in.CategorySlug) > maxCategoryLen {
		return nil, models.NewValidationError(fmt.Sprintf("Category slug too long (max %d characters)", maxCategoryLen))
	}

	status := in.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if status != models.PostStatusDraft && status != models.PostStatusPublished {
		return nil, models.NewValidationError("Status must be draft or published")
	}

	tags, err := cleanTags(in.Tags)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:        title,
		Content:      content,
		Excerpt:      SanitizeText(in.Excerpt),
		Tags:         tags,
		CategorySlug: in.CategorySlug,
		Status:       status,
		// Placeholder until the ID is known; the real slug needs it.
		Slug: "temporary",
	}
	if status == models.PostStatusPublished {
		now := time.Now().UTC()
		post.PublishedAt = &now
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	post.Slug = GenerateSlug(post.Title, post.ID)
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	if s.images != nil {
		if err := s.images.LinkImagesToPost(ctx, post.ID, post.Content); err != nil {
			return nil, err
		}
	}

	return s.getPost(ctx, post.ID)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.CacheAside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		fetched, err := s.posts.GetByID(ctx, id)
		if err != nil {
			return err
		}
		post = *fetched
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (s *PostService) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	err := cache.CacheAside(ctx, cache.PostSlugKey(slug), &post, cache.PostTTL, func() error {
		fetched, err := s.posts.GetBySlug(ctx, slug)
		if err != nil {
			return err
		}
		post = *fetched
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", slug)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

// getPost bypasses the cache; used after writes to return fresh state.
func (s *PostService) getPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (*models.PostList, error) {
	if in.Limit <= 0 {
		in.Limit = defaultListLimit
	}
	if in.Limit > maxListLimit {
		in.Limit = maxListLimit
	}
	if in.Skip < 0 {
		in.Skip = 0
	}

	filter := repository.PostFilter{
		Status:       in.Status,
		CategorySlug: in.CategorySlug,
		Tags:         in.Tags,
		Search:       in.Search,
		Limit:        in.Limit,
		Offset:       in.Skip,
	}

	fetch := func(dest *models.PostList) error {
		posts, total, err := s.posts.List(ctx, filter)
		if err != nil {
			return err
		}
		items := make([]models.PostSummary, 0, len(posts))
		for _, p := range posts {
			items = append(items, p.Summary())
		}
		*dest = models.PostList{Items: items, Total: total, Skip: in.Skip, Limit: in.Limit}
		return nil
	}

	var list models.PostList

	// The public landing page query is by far the hottest; serve it cache-aside.
	cacheable := in.Skip == 0 && in.Search == "" && len(in.Tags) == 0 &&
		in.CategorySlug == "" && in.Status == models.PostStatusPublished
	if cacheable {
		key := cache.PostListKey(fmt.Sprintf("published:limit=%d", in.Limit))
		if err := cache.CacheAside(ctx, key, &list, cache.PostListTTL, func() error {
			return fetch(&list)
		}); err != nil {
			return nil, models.NewInternalError(err)
		}
		return &list, nil
	}

	if err := fetch(&list); err != nil {
		return nil, models.NewInternalError(err)
	}
	return &list, nil
}

func (s *PostService) ListTags(ctx context.Context) ([]string, error) {
	var tags []string
	err := cache.CacheAside(ctx, cache.TagsKey, &tags, cache.TagsTTL, func() error {
		fetched, err := s.posts.ListTags(ctx)
		if err != nil {
			return err
		}
		tags = fetched
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

func (s *PostService) UpdatePost(ctx context.Context, id uint, in UpdatePostInput) (*models.Post, error) {
	post, err := s.getPost(ctx, id)
	if err != nil {
		return nil, err
	}

	titleChanged := false
	contentChanged := false

	if in.Title != nil {
		title := strings.TrimSpace(SanitizeText(*in.Title))
		if title == "" {
			return nil, models.NewValidationError("Title is required")
		}
		if len(title) > maxTitleLen {
			return nil, models.NewValidationError(fmt.Sprintf("Title too long (max %d characters)", maxTitleLen))
		}
		titleChanged = title != post.Title
		post.Title = title
	}
	if in.Content != nil {
		content := SanitizeText(*in.Content)
		if strings.TrimSpace(content) == "" {
			return nil, models.NewValidationError("Content is required")
		}
		contentChanged = content != post.Content
		post.Content = content
	}
	if in.Excerpt != nil {
		if len(*in.Excerpt) > maxExcerptLen {
			return nil, models.NewValidationError(fmt.Sprintf("Excerpt too long (max %d characters)", maxExcerptLen))
		}
		post.Excerpt = SanitizeText(*in.Excerpt)
	}
	if in.Tags != nil {
		tags, err := cleanTags(*in.Tags)
		if err != nil {
			return nil, err
		}
		post.Tags = tags
	}
	if in.CategorySlug != nil {
		if len(*in.CategorySlug) > maxCategoryLen {
			return nil, models.NewValidationError(fmt.Sprintf("Category slug too long (max %d characters)", maxCategoryLen))
		}
		post.CategorySlug = *in.CategorySlug
	}
	if in.Status != nil {
		status := *in.Status
		if status != models.PostStatusDraft && status != models.PostStatusPublished {
			return nil, models.NewValidationError("Status must be draft or published")
		}
		if status == models.PostStatusPublished && post.PublishedAt == nil {
			now := time.Now().UTC()
			post.PublishedAt = &now
		}
		post.Status = status
	}

	if titleChanged {
		// Old slug becomes invalid; it is invalidated along with the update.
		post.Slug = GenerateSlug(post.Title, post.ID)
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	if contentChanged && s.images != nil {
		if err := s.images.LinkImagesToPost(ctx, post.ID, post.Content); err != nil {
			return nil, err
		}
	}

	return s.getPost(ctx, post.ID)
}

// DeletePost soft-deletes by default. With permanent=true the row is removed
// outright and its images are returned to the temporary pool so the cleanup
// job reclaims their files.
func (s *PostService) DeletePost(ctx context.Context, id uint, permanent bool) error {
	if !permanent {
		if err := s.posts.SoftDelete(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	}

	if s.images != nil {
		if err := s.images.LinkImagesToPost(ctx, id, ""); err != nil {
			return err
		}
	}
	if err := s.posts.HardDelete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", id)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// RecordView bumps a post's view counter at most once per IP per dedup
// window. Without Redis every view counts.
func (s *PostService) RecordView(ctx context.Context, id uint, ip string) error {
	first, err := cache.MarkViewed(ctx, id, ip)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "view dedup unavailable, counting view", "error", err)
	}
	if !first {
		return nil
	}
	if err := s.posts.IncrementViewCount(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", id)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func cleanTags(raw []string) ([]string, error) {
	var tags []string
	seen := map[string]struct{}{}
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if len(t) > maxTagLen {
			return nil, models.NewValidationError(fmt.Sprintf("Tag too long (max %d characters)", maxTagLen))
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	if len(tags) > maxTagCount {
		return nil, models.NewValidationError(fmt.Sprintf("Too many tags (max %d)", maxTagCount))
	}
	return tags, nil
}
