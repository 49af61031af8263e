package utils

import (
	"os"
	"path/filepath"
	"time"

	"github.com/paperlens/pdf2jpg/config"
	"github.com/paperlens/pdf2jpg/models"
)

// StartOrphanSweeper launches a background goroutine that periodically deletes
// stored uploads no conversion record points at (writes that succeeded but whose
// conversion or record persist later failed). It is best-effort and logs failures.
func StartOrphanSweeper(interval, grace time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if grace <= 0 {
		grace = time.Hour
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)
			sweepOrphans(grace)
		}
	}()
}

func sweepOrphans(grace time.Duration) {
	cfg := config.Get()
	db := config.DB()

	entries, err := os.ReadDir(cfg.UploadDir)
	if err != nil {
		return // upload dir may not exist yet
	}

	cutoff := time.Now().Add(-grace)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(cfg.UploadDir, entry.Name())
		var count int64
		if err := db.Model(&models.Conversion{}).Where("file_path = ?", path).Count(&count).Error; err != nil {
			Sugar.Warnf("orphan sweep query failed for %s: %v", path, err)
			continue
		}
		if count > 0 {
			continue
		}
		if err := os.Remove(path); err != nil {
			Sugar.Warnf("orphan sweep remove failed for %s: %v", path, err)
		} else {
			Sugar.Infof("removed orphan upload %s", path)
		}
	}
}
