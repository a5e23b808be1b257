package storage

import (
	"context"
	"strings"
	"time"
)

// CacheEntry stores one collection payload and its freshness window.
type CacheEntry struct {
	CacheKey    string
	Collection  string
	CampaignID  string
	UserID      string
	Payload     []byte
	RefreshedAt time.Time
	ExpiresAt   time.Time
}

// Fresh reports whether the entry may still be served at now.
func (e CacheEntry) Fresh(now time.Time) bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return now.Before(e.ExpiresAt)
}

// Store is the cache persistence contract shared by the SQLite and in-memory
// adapters.
type Store interface {
	Close() error
	GetCacheEntry(ctx context.Context, cacheKey string) (CacheEntry, bool, error)
	PutCacheEntry(ctx context.Context, entry CacheEntry) error
	DeleteCacheEntry(ctx context.Context, cacheKey string) error
	// DeleteCollectionEntries drops every user's entries for one campaign
	// collection. Writes call it so no reader keeps a pre-write payload.
	DeleteCollectionEntries(ctx context.Context, collection, campaignID string) error
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}

// CacheKey builds the key for one user's page of a campaign collection.
// Keys include the user so cached rows never cross session boundaries.
func CacheKey(collection, campaignID, userID, page string) string {
	parts := []string{
		strings.TrimSpace(collection),
		"campaign:" + strings.TrimSpace(campaignID),
		"user:" + strings.TrimSpace(userID),
	}
	if page = strings.TrimSpace(page); page != "" {
		parts = append(parts, "page:"+page)
	}
	return strings.Join(parts, "|")
}
