package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/repository"
)

const cleanupLockName = "image_cleanup"

const (
	DefaultOrphanTTL       = 24 * time.Hour
	DefaultPurgeTTL        = 7 * 24 * time.Hour
	DefaultCleanupInterval = time.Hour
)

// CleanupSummary reports what a cleanup run did.
type CleanupSummary struct {
	Skipped      bool     `json:"skipped"`
	OrphansSwept int      `json:"orphans_swept"`
	Purged       int      `json:"purged"`
	Errors       []string `json:"errors,omitempty"`
}

// CleanupService reclaims image files nothing references anymore: orphaned
// temporary uploads past their grace period, and soft-deleted rows past
// their retention window.
type CleanupService struct {
	repo      repository.ImageRepository
	uploadDir string
	orphanTTL time.Duration
	purgeTTL  time.Duration
	interval  time.Duration
}

func NewCleanupService(repo repository.ImageRepository, cfg *config.Config) *CleanupService {
	s := &CleanupService{
		repo:      repo,
		uploadDir: DefaultUploadDir,
		orphanTTL: DefaultOrphanTTL,
		purgeTTL:  DefaultPurgeTTL,
		interval:  DefaultCleanupInterval,
	}
	if cfg != nil {
		if cfg.UploadDir != "" {
			s.uploadDir = cfg.UploadDir
		}
		if cfg.OrphanTTLHours > 0 {
			s.orphanTTL = time.Duration(cfg.OrphanTTLHours) * time.Hour
		}
		if cfg.PurgeTTLDays > 0 {
			s.purgeTTL = time.Duration(cfg.PurgeTTLDays) * 24 * time.Hour
		}
		if cfg.CleanupIntervalMinutes > 0 {
			s.interval = time.Duration(cfg.CleanupIntervalMinutes) * time.Minute
		}
	}
	return s
}

// Run executes one cleanup pass under the distributed lock. force drops the
// orphan age predicate so even fresh orphans are swept. A concurrent run on
// another instance yields Summary{Skipped: true}.
func (s *CleanupService) Run(ctx context.Context, force bool) (*CleanupSummary, error) {
	acquired, err := cache.AcquireLock(ctx, cleanupLockName)
	if err != nil {
		return nil, err
	}
	if !acquired {
		middleware.Logger.InfoContext(ctx, "image cleanup already running elsewhere, skipping")
		return &CleanupSummary{Skipped: true}, nil
	}
	defer cache.ReleaseLock(ctx, cleanupLockName)

	summary := &CleanupSummary{}
	s.sweepOrphans(ctx, force, summary)
	s.sweepExpired(ctx, summary)

	middleware.Logger.InfoContext(ctx, "image cleanup finished",
		"orphans_swept", summary.OrphansSwept,
		"purged", summary.Purged,
		"errors", len(summary.Errors),
		"force", force,
	)
	return summary, nil
}

// sweepOrphans soft-deletes temporary images no post ever claimed, removing
// their files. Per-item failures are collected and the sweep continues.
func (s *CleanupService) sweepOrphans(ctx context.Context, force bool, summary *CleanupSummary) {
	var cutoff *time.Time
	if !force {
		c := time.Now().UTC().Add(-s.orphanTTL)
		cutoff = &c
	}

	orphans, err := s.repo.ListOrphans(ctx, cutoff)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("list orphans: %v", err))
		middleware.CleanupErrors.WithLabelValues("orphan").Inc()
		return
	}

	for _, img := range orphans {
		if err := s.removeFile(img.StorageKey); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("remove %s: %v", img.StorageKey, err))
			middleware.CleanupErrors.WithLabelValues("orphan").Inc()
			continue
		}
		if err := s.repo.SoftDelete(ctx, img.ID); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("soft delete %s: %v", img.StorageKey, err))
			middleware.CleanupErrors.WithLabelValues("orphan").Inc()
			continue
		}
		summary.OrphansSwept++
		middleware.CleanupSwept.WithLabelValues("orphan").Inc()
	}
}

// sweepExpired hard-deletes rows whose soft-delete retention has lapsed.
func (s *CleanupService) sweepExpired(ctx context.Context, summary *CleanupSummary) {
	expired, err := s.repo.ListExpiredDeleted(ctx, time.Now().UTC().Add(-s.purgeTTL))
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("list expired: %v", err))
		middleware.CleanupErrors.WithLabelValues("purge").Inc()
		return
	}

	for _, img := range expired {
		if err := s.removeFile(img.StorageKey); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("remove %s: %v", img.StorageKey, err))
			middleware.CleanupErrors.WithLabelValues("purge").Inc()
			continue
		}
		if err := s.repo.HardDelete(ctx, img.ID); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("hard delete %s: %v", img.StorageKey, err))
			middleware.CleanupErrors.WithLabelValues("purge").Inc()
			continue
		}
		summary.Purged++
		middleware.CleanupSwept.WithLabelValues("purge").Inc()
	}
}

func (s *CleanupService) removeFile(storageKey string) error {
	err := os.Remove(filepath.Join(s.uploadDir, filepath.FromSlash(storageKey)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Start runs cleanup passes for the lifetime of ctx, one per interval.
// Errors are logged and the loop keeps going.
func (s *CleanupService) Start(ctx context.Context) {
	middleware.Logger.Info("image cleanup scheduler started", "interval", s.interval)
	for {
		if !sleepContext(ctx, s.interval) {
			middleware.Logger.Info("image cleanup scheduler stopped")
			return
		}
		if _, err := s.Run(ctx, false); err != nil {
			middleware.Logger.ErrorContext(ctx, "image cleanup run failed", "error", err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
