package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getByIDFn       func(context.Context, uint) (*models.Post, error)
	getBySlugFn     func(context.Context, string) (*models.Post, error)
	listFn          func(context.Context, repository.PostFilter) ([]*models.Post, int64, error)
	listTagsFn      func(context.Context) ([]string, error)
	updateFn        func(context.Context, *models.Post) error
	softDeleteFn    func(context.Context, uint) error
	hardDeleteFn    func(context.Context, uint) error
	incrementViewFn func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *postRepoStub) List(ctx context.Context, filter repository.PostFilter) ([]*models.Post, int64, error) {
	return s.listFn(ctx, filter)
}
func (s *postRepoStub) ListTags(ctx context.Context) ([]string, error) {
	return s.listTagsFn(ctx)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) SoftDelete(ctx context.Context, id uint) error {
	return s.softDeleteFn(ctx, id)
}
func (s *postRepoStub) HardDelete(ctx context.Context, id uint) error {
	return s.hardDeleteFn(ctx, id)
}
func (s *postRepoStub) IncrementViewCount(ctx context.Context, id uint) error {
	return s.incrementViewFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, Title: "t", Content: "c", Slug: "t-1"}, nil
		},
		getBySlugFn: func(_ context.Context, slug string) (*models.Post, error) {
			return &models.Post{ID: 1, Title: "t", Content: "c", Slug: slug}, nil
		},
		listFn: func(_ context.Context, _ repository.PostFilter) ([]*models.Post, int64, error) {
			return nil, 0, nil
		},
		listTagsFn:      func(_ context.Context) ([]string, error) { return nil, nil },
		updateFn:        func(_ context.Context, _ *models.Post) error { return nil },
		softDeleteFn:    func(_ context.Context, _ uint) error { return nil },
		hardDeleteFn:    func(_ context.Context, _ uint) error { return nil },
		incrementViewFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// imageRepoStub is a stub for repository.ImageRepository.
type imageRepoStub struct {
	createFn             func(context.Context, *models.Image) error
	getByStorageKeyFn    func(context.Context, string) (*models.Image, error)
	getByStorageKeysFn   func(context.Context, []string) ([]models.Image, error)
	listByPostIDFn       func(context.Context, uint) ([]models.Image, error)
	attachFn             func(context.Context, uint, uint) error
	detachFn             func(context.Context, uint) error
	softDeleteFn         func(context.Context, uint) error
	hardDeleteFn         func(context.Context, uint) error
	listOrphansFn        func(context.Context, *time.Time) ([]models.Image, error)
	listExpiredDeletedFn func(context.Context, time.Time) ([]models.Image, error)
}

func (s *imageRepoStub) Create(ctx context.Context, image *models.Image) error {
	return s.createFn(ctx, image)
}
func (s *imageRepoStub) GetByStorageKey(ctx context.Context, key string) (*models.Image, error) {
	return s.getByStorageKeyFn(ctx, key)
}
func (s *imageRepoStub) GetByStorageKeys(ctx context.Context, keys []string) ([]models.Image, error) {
	return s.getByStorageKeysFn(ctx, keys)
}
func (s *imageRepoStub) ListByPostID(ctx context.Context, postID uint) ([]models.Image, error) {
	return s.listByPostIDFn(ctx, postID)
}
func (s *imageRepoStub) Attach(ctx context.Context, imageID, postID uint) error {
	return s.attachFn(ctx, imageID, postID)
}
func (s *imageRepoStub) Detach(ctx context.Context, imageID uint) error {
	return s.detachFn(ctx, imageID)
}
func (s *imageRepoStub) SoftDelete(ctx context.Context, imageID uint) error {
	return s.softDeleteFn(ctx, imageID)
}
func (s *imageRepoStub) HardDelete(ctx context.Context, imageID uint) error {
	return s.hardDeleteFn(ctx, imageID)
}
func (s *imageRepoStub) ListOrphans(ctx context.Context, olderThan *time.Time) ([]models.Image, error) {
	return s.listOrphansFn(ctx, olderThan)
}
func (s *imageRepoStub) ListExpiredDeleted(ctx context.Context, deletedBefore time.Time) ([]models.Image, error) {
	return s.listExpiredDeletedFn(ctx, deletedBefore)
}

func noopImageRepo() *imageRepoStub {
	return &imageRepoStub{
		createFn: func(_ context.Context, img *models.Image) error {
			img.ID = 1
			return nil
		},
		getByStorageKeyFn: func(_ context.Context, _ string) (*models.Image, error) {
			return nil, gorm.ErrRecordNotFound
		},
		getByStorageKeysFn:   func(_ context.Context, _ []string) ([]models.Image, error) { return nil, nil },
		listByPostIDFn:       func(_ context.Context, _ uint) ([]models.Image, error) { return nil, nil },
		attachFn:             func(_ context.Context, _, _ uint) error { return nil },
		detachFn:             func(_ context.Context, _ uint) error { return nil },
		softDeleteFn:         func(_ context.Context, _ uint) error { return nil },
		hardDeleteFn:         func(_ context.Context, _ uint) error { return nil },
		listOrphansFn:        func(_ context.Context, _ *time.Time) ([]models.Image, error) { return nil, nil },
		listExpiredDeletedFn: func(_ context.Context, _ time.Time) ([]models.Image, error) { return nil, nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn        func(context.Context, *models.User) error
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	updateFn        func(context.Context, *models.User) error
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}

// memoryUserRepo keeps users in a map so bootstrap and login flows can be
// exercised end to end.
func memoryUserRepo() (*userRepoStub, map[string]*models.User) {
	users := map[string]*models.User{}
	nextID := uint(1)
	stub := &userRepoStub{
		createFn: func(_ context.Context, u *models.User) error {
			u.ID = nextID
			nextID++
			users[u.Username] = u
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			for _, u := range users {
				if u.ID == id {
					return u, nil
				}
			}
			return nil, gorm.ErrRecordNotFound
		},
		getByUsernameFn: func(_ context.Context, username string) (*models.User, error) {
			if u, ok := users[username]; ok {
				return u, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
		updateFn: func(_ context.Context, u *models.User) error {
			users[u.Username] = u
			return nil
		},
	}
	return stub, users
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
