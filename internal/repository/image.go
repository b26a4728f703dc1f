package repository

import (
	"context"
	"time"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// ImageRepository defines storage operations for uploaded images.
type ImageRepository interface {
	Create(ctx context.Context, image *models.Image) error
	GetByStorageKey(ctx context.Context, key string) (*models.Image, error)
	GetByStorageKeys(ctx context.Context, keys []string) ([]models.Image, error)
	ListByPostID(ctx context.Context, postID uint) ([]models.Image, error)
	Attach(ctx context.Context, imageID, postID uint) error
	Detach(ctx context.Context, imageID uint) error
	SoftDelete(ctx context.Context, imageID uint) error
	HardDelete(ctx context.Context, imageID uint) error
	ListOrphans(ctx context.Context, olderThan *time.Time) ([]models.Image, error)
	ListExpiredDeleted(ctx context.Context, deletedBefore time.Time) ([]models.Image, error)
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository returns a repository implementation for image metadata.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, image *models.Image) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *imageRepository) GetByStorageKey(ctx context.Context, key string) (*models.Image, error) {
	var image models.Image
	err := r.db.WithContext(ctx).
		Where("storage_key = ? AND deleted_at IS NULL", key).
		First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *imageRepository) GetByStorageKeys(ctx context.Context, keys []string) ([]models.Image, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var images []models.Image
	err := r.db.WithContext(ctx).
		Where("storage_key IN ? AND deleted_at IS NULL", keys).
		Find(&images).Error
	return images, err
}

func (r *imageRepository) ListByPostID(ctx context.Context, postID uint) ([]models.Image, error) {
	var images []models.Image
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND deleted_at IS NULL", postID).
		Order("created_at ASC").
		Find(&images).Error
	return images, err
}

func (r *imageRepository) Attach(ctx context.Context, imageID, postID uint) error {
	return r.db.WithContext(ctx).Model(&models.Image{}).
		Where("id = ?", imageID).
		Updates(map[string]interface{}{
			"post_id":      postID,
			"is_temporary": false,
		}).Error
}

// Detach returns an image to the unattached temporary pool so the cleanup
// job can reclaim it if nothing references it again.
func (r *imageRepository) Detach(ctx context.Context, imageID uint) error {
	return r.db.WithContext(ctx).Model(&models.Image{}).
		Where("id = ?", imageID).
		Updates(map[string]interface{}{
			"post_id":      nil,
			"is_temporary": true,
		}).Error
}

func (r *imageRepository) SoftDelete(ctx context.Context, imageID uint) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Model(&models.Image{}).
		Where("id = ?", imageID).
		Update("deleted_at", now).Error
}

func (r *imageRepository) HardDelete(ctx context.Context, imageID uint) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&models.Image{}, imageID).Error
}

// ListOrphans returns temporary images attached to no post. A nil olderThan
// returns every orphan regardless of age.
func (r *imageRepository) ListOrphans(ctx context.Context, olderThan *time.Time) ([]models.Image, error) {
	q := r.db.WithContext(ctx).
		Where("is_temporary = ? AND post_id IS NULL AND deleted_at IS NULL", true)
	if olderThan != nil {
		q = q.Where("created_at < ?", *olderThan)
	}
	var images []models.Image
	err := q.Find(&images).Error
	return images, err
}

// ListExpiredDeleted returns soft-deleted images whose retention window has
// passed and which are due for permanent removal.
func (r *imageRepository) ListExpiredDeleted(ctx context.Context, deletedBefore time.Time) ([]models.Image, error) {
	var images []models.Image
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NOT NULL AND deleted_at < ?", deletedBefore).
		Find(&images).Error
	return images, err
}
