package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/core"
)

// sqliteTimeLayout matches datetime('now') so expiry comparisons work as
// plain string comparisons.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// SQLiteCache is a SQLite implementation of the factor cache, for
// deployments that want lookups to survive restarts.
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	ttl         time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteCache creates a new SQLite factor cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, ttl, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS factor_cache (
			cache_key TEXT PRIMARY KEY,
			doc TEXT,
			created_at TIMESTAMP,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index on expires_at for faster cleanup
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_factor_cache_expires_at ON factor_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
		logger:      logger,
		ttl:         ttl,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// Start background cleanup
	go cache.startCleanupTask()

	return cache, nil
}

// Get retrieves a cached factor document. Expired rows count as misses
// and are left for the background sweep.
func (c *SQLiteCache) Get(ctx context.Context, key string) (*core.FactorDoc, bool) {
	var docJSON string

	err := c.db.QueryRowContext(ctx, `
		SELECT doc
		FROM factor_cache
		WHERE cache_key = ? AND expires_at > datetime('now')
	`, key).Scan(&docJSON)

	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Error("Failed to query factor cache", zap.Error(err), zap.String("key", key))
		}
		return nil, false
	}

	var doc core.FactorDoc
	if err := json.Unmarshal([]byte(docJSON), &doc); err != nil {
		c.logger.Error("Failed to decode cached factor", zap.Error(err), zap.String("key", key))
		return nil, false
	}

	return &doc, true
}

// Set stores a factor document. Cache write failures are logged and
// swallowed so a broken cache never fails a lookup.
func (c *SQLiteCache) Set(ctx context.Context, key string, doc *core.FactorDoc) {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		c.logger.Error("Failed to encode factor for cache", zap.Error(err), zap.String("key", key))
		return
	}

	now := time.Now().UTC()
	_, err = c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO factor_cache (cache_key, doc, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, key, string(docJSON), now.Format(sqliteTimeLayout), now.Add(c.ttl).Format(sqliteTimeLayout))

	if err != nil {
		c.logger.Error("Failed to insert cache entry", zap.Error(err), zap.String("key", key))
	}
}

// Cleanup removes expired entries
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM factor_cache
		WHERE expires_at <= datetime('now')
	`)

	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// startCleanupTask starts a background task to clean up expired entries
func (c *SQLiteCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database
func (c *SQLiteCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
