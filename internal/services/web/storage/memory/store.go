// Package memory provides the in-process web cache adapter used when no
// SQLite path is configured.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	webstorage "github.com/louisbranch/campaignforge/internal/services/web/storage"
)

// DefaultSize bounds the number of cached collection pages.
const DefaultSize = 1024

// Store keeps cache entries in a bounded LRU.
type Store struct {
	mu      sync.Mutex
	entries *lru.Cache[string, webstorage.CacheEntry]
}

// New builds a store holding at most size entries; size <= 0 uses DefaultSize.
func New(size int) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, webstorage.CacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &Store{entries: entries}, nil
}

// Close drops every entry.
func (s *Store) Close() error {
	if s == nil || s.entries == nil {
		return nil
	}
	s.entries.Purge()
	return nil
}

// GetCacheEntry returns a copy of the entry stored under cacheKey.
func (s *Store) GetCacheEntry(_ context.Context, cacheKey string) (webstorage.CacheEntry, bool, error) {
	if s == nil || s.entries == nil {
		return webstorage.CacheEntry{}, false, fmt.Errorf("storage is not configured")
	}
	cacheKey = strings.TrimSpace(cacheKey)
	if cacheKey == "" {
		return webstorage.CacheEntry{}, false, fmt.Errorf("cache key is required")
	}
	entry, ok := s.entries.Get(cacheKey)
	if !ok {
		return webstorage.CacheEntry{}, false, nil
	}
	entry.Payload = append([]byte(nil), entry.Payload...)
	return entry, true, nil
}

// PutCacheEntry stores a copy of entry, evicting the least recently used
// entry when full.
func (s *Store) PutCacheEntry(_ context.Context, entry webstorage.CacheEntry) error {
	if s == nil || s.entries == nil {
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
	entry.CampaignID = strings.TrimSpace(entry.CampaignID)
	entry.UserID = strings.TrimSpace(entry.UserID)
	entry.Payload = append([]byte(nil), entry.Payload...)
	s.entries.Add(entry.CacheKey, entry)
	return nil
}

// DeleteCacheEntry removes one entry.
func (s *Store) DeleteCacheEntry(_ context.Context, cacheKey string) error {
	if s == nil || s.entries == nil {
		return fmt.Errorf("storage is not configured")
	}
	cacheKey = strings.TrimSpace(cacheKey)
	if cacheKey == "" {
		return fmt.Errorf("cache key is required")
	}
	s.entries.Remove(cacheKey)
	return nil
}

// DeleteCollectionEntries removes all entries for one campaign collection.
func (s *Store) DeleteCollectionEntries(_ context.Context, collection, campaignID string) error {
	if s == nil || s.entries == nil {
		return fmt.Errorf("storage is not configured")
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		return fmt.Errorf("cache collection is required")
	}
	campaignID = strings.TrimSpace(campaignID)
	s.removeWhere(func(entry webstorage.CacheEntry) bool {
		return entry.Collection == collection && entry.CampaignID == campaignID
	})
	return nil
}

// PurgeExpired removes entries whose expiry is at or before now.
func (s *Store) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	if s == nil || s.entries == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	return s.removeWhere(func(entry webstorage.CacheEntry) bool {
		return !entry.ExpiresAt.After(now)
	}), nil
}

// removeWhere scans without promoting entries in the LRU order.
func (s *Store) removeWhere(match func(webstorage.CacheEntry) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, key := range s.entries.Keys() {
		entry, ok := s.entries.Peek(key)
		if !ok || !match(entry) {
			continue
		}
		if s.entries.Remove(key) {
			removed++
		}
	}
	return removed
}

// Len reports the number of cached entries.
func (s *Store) Len() int {
	if s == nil || s.entries == nil {
		return 0
	}
	return s.entries.Len()
}

var _ webstorage.Store = (*Store)(nil)
