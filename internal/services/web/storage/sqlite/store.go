package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/campaignforge/internal/platform/storage/sqlitemigrate"
	webstorage "github.com/louisbranch/campaignforge/internal/services/web/storage"
	"github.com/louisbranch/campaignforge/internal/services/web/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for web cache data.
type Store struct {
	sqlDB *sql.DB
}

// Open opens and migrates a web cache SQLite store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// GetCacheEntry loads a cache payload and metadata by key.
func (s *Store) GetCacheEntry(ctx context.Context, cacheKey string) (webstorage.CacheEntry, bool, error) {
	if s == nil || s.sqlDB == nil {
		return webstorage.CacheEntry{}, false, fmt.Errorf("storage is not configured")
	}
	cacheKey = strings.TrimSpace(cacheKey)
	if cacheKey == "" {
		return webstorage.CacheEntry{}, false, fmt.Errorf("cache key is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT cache_key, collection, campaign_id, user_id, payload_json, refreshed_at, expires_at
		 FROM cache_entries
		 WHERE cache_key = ?`,
		cacheKey,
	)

	var entry webstorage.CacheEntry
	var refreshedAt int64
	var expiresAt int64
	if err := row.Scan(
		&entry.CacheKey,
		&entry.Collection,
		&entry.CampaignID,
		&entry.UserID,
		&entry.Payload,
		&refreshedAt,
		&expiresAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return webstorage.CacheEntry{}, false, nil
		}
		return webstorage.CacheEntry{}, false, fmt.Errorf("get cache entry: %w", err)
	}
	entry.RefreshedAt = unixMillisToTime(refreshedAt)
	entry.ExpiresAt = unixMillisToTime(expiresAt)
	return entry, true, nil
}

// PutCacheEntry upserts a cache payload and metadata by key.
func (s *Store) PutCacheEntry(ctx context.Context, entry webstorage.CacheEntry) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	entry.CacheKey = strings.TrimSpace(entry.CacheKey)
	if entry.CacheKey == "" {
		return fmt.Errorf("cache key is required")
	}
	entry.Collection = strings.TrimSpace(entry.Collection)
	if entry.Collection == "" {
		return fmt.Errorf("cache collection is required")
	}
	if len(entry.Payload) == 0 {
		return fmt.Errorf("cache payload is required")
	}
	if entry.RefreshedAt.IsZero() {
		entry.RefreshedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO cache_entries (
		    cache_key, collection, campaign_id, user_id, payload_json, refreshed_at, expires_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
		    collection = excluded.collection,
		    campaign_id = excluded.campaign_id,
		    user_id = excluded.user_id,
		    payload_json = excluded.payload_json,
		    refreshed_at = excluded.refreshed_at,
		    expires_at = excluded.expires_at`,
		entry.CacheKey,
		entry.Collection,
		strings.TrimSpace(entry.CampaignID),
		strings.TrimSpace(entry.UserID),
		entry.Payload,
		timeToUnixMillis(entry.RefreshedAt),
		timeToUnixMillis(entry.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// DeleteCacheEntry removes a cache entry by key.
func (s *Store) DeleteCacheEntry(ctx context.Context, cacheKey string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	cacheKey = strings.TrimSpace(cacheKey)
	if cacheKey == "" {
		return fmt.Errorf("cache key is required")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_key = ?`, cacheKey); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// DeleteCollectionEntries removes all entries for one campaign collection.
func (s *Store) DeleteCollectionEntries(ctx context.Context, collection, campaignID string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return fmt.Errorf("cache collection is required")
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM cache_entries WHERE collection = ? AND campaign_id = ?`,
		collection,
		strings.TrimSpace(campaignID),
	)
	if err != nil {
		return fmt.Errorf("delete collection entries: %w", err)
	}
	return nil
}

// PurgeExpired removes entries whose expiry is at or before now.
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at <= ?`, timeToUnixMillis(now))
	if err != nil {
		return 0, fmt.Errorf("purge expired entries: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count purged entries: %w", err)
	}
	return int(removed), nil
}

func timeToUnixMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func unixMillisToTime(value int64) time.Time {
	if value <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

var _ webstorage.Store = (*Store)(nil)
