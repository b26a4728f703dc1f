package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	"gorm.io/gorm"

	_ "image/gif" // Register GIF decoder
	_ "image/png" // Register PNG decoder

	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadDir       = "uploads"
	DefaultMaxUploadSizeMB = 5
	MaxImageDimension      = 2048
	JPEGQuality            = 85
	WebPQuality            = 80
)

// safeFilenamePattern guards :filename route params against path traversal.
var safeFilenamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

type UploadImageInput struct {
	Filename    string
	ContentType string
	Content     []byte
	AltText     string
	Caption     string
}

type ImageService struct {
	repo               repository.ImageRepository
	uploadDir          string
	maxUploadSizeBytes int64
}

func NewImageService(repo repository.ImageRepository, cfg *config.Config) *ImageService {
	uploadDir := DefaultUploadDir
	maxUploadSizeMB := DefaultMaxUploadSizeMB

	if cfg != nil {
		if cfg.UploadDir != "" {
			uploadDir = cfg.UploadDir
		}
		if cfg.MaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.MaxUploadSizeMB
		}
	}

	return &ImageService{
		repo:               repo,
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// UploadDir returns the root directory uploads are written under.
func (s *ImageService) UploadDir() string {
	return s.uploadDir
}

// Upload validates, optimizes, and stores an image. The row starts out
// temporary and unattached; linking happens when a post references it.
func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (*models.Image, error) {
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	ext := strings.ToLower(filepath.Ext(in.Filename))
	if !isAllowedImageExt(ext) {
		return nil, models.NewValidationError("File type not allowed (jpg, jpeg, png, gif, webp)")
	}

	detectedType := http.DetectContentType(in.Content)
	if !strings.HasPrefix(detectedType, "image/") {
		return nil, models.NewValidationError("File is not an image")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid or corrupted image file")
	}

	data, width, height, mimeType, err := optimizeImage(decoded, format, in.Content)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	storageKey := buildStorageKey(ext)
	fullPath := s.storagePath(storageKey)
	if err := writeBytesToFile(fullPath, data); err != nil {
		return nil, models.NewInternalError(err)
	}

	record := &models.Image{
		StorageKey:       storageKey,
		OriginalFilename: in.Filename,
		FileSize:         int64(len(data)),
		MimeType:         mimeType,
		Width:            width,
		Height:           height,
		AltText:          in.AltText,
		Caption:          in.Caption,
		IsTemporary:      true,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		// The row is the source of truth; without it the file is unreachable.
		_ = os.Remove(fullPath)
		return nil, models.NewInternalError(err)
	}

	return record, nil
}

// GetTempImage returns the metadata row for an uploaded file that has not
// been attached to any post yet.
func (s *ImageService) GetTempImage(ctx context.Context, filename string) (*models.Image, error) {
	if !safeFilenamePattern.MatchString(filename) {
		return nil, models.NewValidationError("Invalid filename")
	}
	img, err := s.repo.GetByStorageKey(ctx, "images/"+filename)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Image", filename)
		}
		return nil, models.NewInternalError(err)
	}
	if !img.IsTemporary || img.PostID != nil {
		return nil, models.NewNotFoundError("Image", filename)
	}
	return img, nil
}

// DeleteImage soft-deletes the metadata row and removes the file from disk.
func (s *ImageService) DeleteImage(ctx context.Context, filename string) error {
	if !safeFilenamePattern.MatchString(filename) {
		return models.NewValidationError("Invalid filename")
	}
	img, err := s.repo.GetByStorageKey(ctx, "images/"+filename)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Image", filename)
		}
		return models.NewInternalError(err)
	}

	if err := s.repo.SoftDelete(ctx, img.ID); err != nil {
		return models.NewInternalError(err)
	}

	if err := os.Remove(s.storagePath(img.StorageKey)); err != nil && !os.IsNotExist(err) {
		middleware.Logger.WarnContext(ctx, "failed to remove image file",
			"storage_key", img.StorageKey, "error", err)
	}
	return nil
}

// LinkImagesToPost reconciles the post's attachments with the images its
// content actually references. The diff is complete in both directions:
// images no longer referenced return to the temporary pool, referenced ones
// are attached. Calling it twice with the same content is a no-op.
func (s *ImageService) LinkImagesToPost(ctx context.Context, postID uint, content string) error {
	keys := ExtractStorageKeys(content)
	want := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}

	current, err := s.repo.ListByPostID(ctx, postID)
	if err != nil {
		return models.NewInternalError(err)
	}
	for _, img := range current {
		if _, keep := want[img.StorageKey]; keep {
			continue
		}
		if err := s.repo.Detach(ctx, img.ID); err != nil {
			return models.NewInternalError(err)
		}
	}

	candidates, err := s.repo.GetByStorageKeys(ctx, keys)
	if err != nil {
		return models.NewInternalError(err)
	}
	for _, img := range candidates {
		if img.PostID != nil && *img.PostID == postID && !img.IsTemporary {
			continue
		}
		if err := s.repo.Attach(ctx, img.ID, postID); err != nil {
			return models.NewInternalError(err)
		}
	}
	return nil
}

// storagePath maps a storage key to its on-disk location under the upload dir.
func (s *ImageService) storagePath(storageKey string) string {
	return filepath.Join(s.uploadDir, filepath.FromSlash(storageKey))
}

// optimizeImage downscales oversized images and re-encodes lossy formats.
// PNG and GIF keep their original (decode-verified) bytes so palette and
// animation data survive.
func optimizeImage(decoded image.Image, format string, original []byte) (data []byte, width, height int, mimeType string, err error) {
	switch format {
	case "jpeg":
		resized := resizeToFit(decoded, MaxImageDimension, MaxImageDimension)
		data, err = encodeJPEG(resized, JPEGQuality)
		if err != nil {
			return nil, 0, 0, "", err
		}
		b := resized.Bounds()
		return data, b.Dx(), b.Dy(), "image/jpeg", nil
	case "webp":
		resized := resizeToFit(decoded, MaxImageDimension, MaxImageDimension)
		data, err = encodeWebP(resized, WebPQuality)
		if err != nil {
			return nil, 0, 0, "", err
		}
		b := resized.Bounds()
		return data, b.Dx(), b.Dy(), "image/webp", nil
	case "png", "gif":
		b := decoded.Bounds()
		return original, b.Dx(), b.Dy(), "image/" + format, nil
	default:
		return nil, 0, 0, "", fmt.Errorf("unsupported image format %q", format)
	}
}

func buildStorageKey(ext string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	short := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("images/%s_%s%s", timestamp, short, ext)
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	default:
		return false
	}
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
