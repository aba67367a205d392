// Package cache implements the Advisory Fetcher's on-disk cache
// (SPEC_FULL.md §4.7): a gorm.io/gorm store, opened through the
// gorm.io/driver/sqlite dialector, mapping advisory id to its last-fetched
// raw JSON document.
//
// Grounded on the teacher's internal/cache package: the get/set-by-key
// shape of internal/cache/cache.go's Cache (GetLastRun/SetLastRun), and the
// gorm+modernc.org/sqlite engine choice of internal/cache/gorm_db.go's
// ASTCache. The storage engine itself is swapped from the teacher's
// one-file-per-key JSON cache to a single SQLite file because the
// advisory workload is thousands of small, frequently-looked-up records
// (one query to check "is CVE-2024-1234 cached" beats a stat() + read()
// per-id flat-file probe at that scale).
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/brel-ge/kcfg-vex/models"
)

// AdvisoryCacheEntry is the row shape stored per advisory id.
type AdvisoryCacheEntry struct {
	AdvisoryID string `gorm:"primaryKey"`
	Document   string
	FetchedAt  time.Time
}

// AdvisoryCache is the on-disk cache used by the Advisory Fetcher.
type AdvisoryCache struct {
	db *gorm.DB
}

// DefaultCacheDir returns "$HOME/.cache/kcfg-vex", the teacher's
// "$HOME/.cache/<tool>" convention (internal/cache/cache.go's NewCache).
func DefaultCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".cache", "kcfg-vex"), nil
}

// NewAdvisoryCache opens (creating if necessary) a SQLite-backed advisory
// cache at <dir>/advisories.db.
func NewAdvisoryCache(dir string) (*AdvisoryCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, models.NewIoError("failed to create cache directory "+dir, err)
	}
	dbPath := filepath.Join(dir, "advisories.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, models.NewIoError("failed to open advisory cache "+dbPath, err)
	}
	if err := db.AutoMigrate(&AdvisoryCacheEntry{}); err != nil {
		return nil, models.NewIoError("failed to migrate advisory cache", err)
	}
	return &AdvisoryCache{db: db}, nil
}

// Get returns the cached document for id, and whether it was present.
func (c *AdvisoryCache) Get(id string) (string, bool, error) {
	var entry AdvisoryCacheEntry
	err := c.db.Where("advisory_id = ?", id).First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", false, nil
		}
		return "", false, models.NewIoError("failed to read advisory cache entry "+id, err)
	}
	return entry.Document, true, nil
}

// Put writes (creating or overwriting) the cached document for id. Last
// writer wins; concurrent writers to the same id are tolerated since the
// contents are idempotent (spec.md §5).
func (c *AdvisoryCache) Put(id, document string) error {
	entry := AdvisoryCacheEntry{
		AdvisoryID: id,
		Document:   document,
		FetchedAt:  time.Now(),
	}
	err := c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "advisory_id"}},
		UpdateAll: true,
	}).Create(&entry).Error
	if err != nil {
		return models.NewIoError("failed to write advisory cache entry "+id, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (c *AdvisoryCache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
