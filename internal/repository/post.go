package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows post listings. Zero values mean "no constraint".
type PostFilter struct {
	Status       string
	CategorySlug string
	Tags         []string
	Search       string
	Limit        int
	Offset       int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]*models.Post, int64, error)
	ListTags(ctx context.Context) ([]string, error)
	Update(ctx context.Context, post *models.Post) error
	SoftDelete(ctx context.Context, id uint) error
	HardDelete(ctx context.Context, id uint) error
	IncrementViewCount(ctx context.Context, id uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Create(post).Error
	if err == nil {
		cache.InvalidatePostLists(ctx)
	}
	return err
}

// active scopes queries to rows that have not been soft deleted.
func (r *postRepository) active(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Where("posts.deleted_at IS NULL")
}

func (r *postRepository) preloadImages(db *gorm.DB) *gorm.DB {
	return db.Preload("Images", "deleted_at IS NULL", func(db *gorm.DB) *gorm.DB {
		return db.Order("images.created_at ASC")
	})
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.preloadImages(r.active(ctx)).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	if err := r.preloadImages(r.active(ctx)).Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]*models.Post, int64, error) {
	q := r.applyFilter(r.active(ctx).Model(&models.Post{}), filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*models.Post
	err := r.preloadImages(r.applyFilter(r.active(ctx), filter)).
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// applyFilter translates a PostFilter into WHERE clauses. Tags are stored as
// a JSON array, so each tag matches via its quoted form; this works on both
// PostgreSQL and SQLite.
func (r *postRepository) applyFilter(db *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.CategorySlug != "" {
		db = db.Where("category_slug = ?", filter.CategorySlug)
	}
	for _, tag := range filter.Tags {
		db = db.Where("tags LIKE ?", fmt.Sprintf(`%%"%s"%%`, tag))
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		db = db.Where("LOWER(title) LIKE LOWER(?) OR LOWER(content) LIKE LOWER(?)", like, like)
	}
	return db
}

func (r *postRepository) ListTags(ctx context.Context) ([]string, error) {
	// Tags live in a JSON column, so distinct tags are aggregated in Go.
	var posts []models.Post
	err := r.active(ctx).
		Select("tags").
		Where("status = ?", models.PostStatusPublished).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	var tags []string
	for _, p := range posts {
		for _, t := range p.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return err
	}
	cache.InvalidatePost(ctx, post.ID, post.Slug)
	return nil
}

func (r *postRepository) SoftDelete(ctx context.Context, id uint) error {
	post, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		Update("deleted_at", now).Error; err != nil {
		return err
	}
	cache.InvalidatePost(ctx, id, post.Slug)
	return nil
}

func (r *postRepository) HardDelete(ctx context.Context, id uint) error {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Unscoped().Delete(&models.Post{}, id).Error; err != nil {
		return err
	}
	cache.InvalidatePost(ctx, id, post.Slug)
	return nil
}

func (r *postRepository) IncrementViewCount(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Update("view_count", gorm.Expr("view_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	cache.Invalidate(ctx, cache.PostKey(id))
	return nil
}
