// Package resources loads campaign collections from the backend for page
// handlers.
//
// Every fetch builds its own backend handle from the factory and the
// request's session store, so a fetch always presents the tokens current
// when it starts. Reads go through an optional TTL cache keyed per user;
// identical concurrent reads share one backend call.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/campaignforge/internal/platform/backend"
	"github.com/louisbranch/campaignforge/internal/platform/timeouts"
	apperrors "github.com/louisbranch/campaignforge/internal/services/web/platform/errors"
	webstorage "github.com/louisbranch/campaignforge/internal/services/web/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a cached page may be served.
const DefaultTTL = 30 * time.Second

// Option customizes a Service.
type Option func(*Service)

// WithCache enables read-through caching in store.
func WithCache(store webstorage.Store, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = store
		s.ttl = ttl
	}
}

// WithRegisterer registers cache metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Service) {
		s.registerer = reg
	}
}

// WithClock overrides the time source used for cache freshness.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service reads and writes campaign collections.
type Service struct {
	factory    *backend.Factory
	cache      webstorage.Store
	ttl        time.Duration
	now        func() time.Time
	registerer prometheus.Registerer
	fetches    singleflight.Group
	hits       *prometheus.CounterVec
	misses     *prometheus.CounterVec
}

// NewService returns a service that builds handles from factory.
func NewService(factory *backend.Factory, opts ...Option) *Service {
	s := &Service{factory: factory, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	factoryMetrics := promauto.With(s.registerer)
	s.hits = factoryMetrics.NewCounterVec(prometheus.CounterOpts{
		Name: "campaignforge_resource_cache_hits_total",
		Help: "Number of collection pages served from the cache.",
	}, []string{"collection"})
	s.misses = factoryMetrics.NewCounterVec(prometheus.CounterOpts{
		Name: "campaignforge_resource_cache_misses_total",
		Help: "Number of collection pages read from the backend.",
	}, []string{"collection"})
	return s
}

func (s *Service) caching() bool {
	return s != nil && s.cache != nil && s.ttl > 0
}

// RecordLoader returns a loader over one campaign-scoped collection.
func (s *Service) RecordLoader(store backend.SessionStore, collection Collection) *Loader[Record] {
	return NewLoader(func(ctx context.Context, key Key) ([]Record, error) {
		return s.ListRecords(ctx, store, collection, key)
	})
}

// CampaignLoader returns a loader over the campaigns visible to the session.
func (s *Service) CampaignLoader(store backend.SessionStore) *Loader[Campaign] {
	return NewLoader(func(ctx context.Context, key Key) ([]Campaign, error) {
		return s.ListCampaigns(ctx, store, key)
	})
}

// ListRecords reads one page of a campaign collection, newest first.
func (s *Service) ListRecords(ctx context.Context, store backend.SessionStore, collection Collection, key Key) ([]Record, error) {
	if strings.TrimSpace(key.CampaignID) == "" {
		return nil, apperrors.E(apperrors.KindInvalidInput, "campaign id is required")
	}
	query := pageQuery(key)
	query.Filters = []backend.Filter{backend.Eq("campaign_id", key.CampaignID)}
	return list[Record](ctx, s, store, collection, key, query)
}

// ListCampaigns reads one page of campaigns, newest first.
func (s *Service) ListCampaigns(ctx context.Context, store backend.SessionStore, key Key) ([]Campaign, error) {
	key.CampaignID = ""
	return list[Campaign](ctx, s, store, Campaigns, key, pageQuery(key))
}

func pageQuery(key Key) backend.Query {
	return backend.Query{
		OrderBy:    "created_at",
		Descending: true,
		Limit:      PageSize,
		Offset:     (key.page() - 1) * PageSize,
	}
}

func list[T any](ctx context.Context, s *Service, store backend.SessionStore, collection Collection, key Key, query backend.Query) ([]T, error) {
	if s == nil || s.factory == nil {
		return nil, apperrors.E(apperrors.KindUnavailable, "resource service is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cacheKey := webstorage.CacheKey(string(collection), key.CampaignID, key.UserID, key.pageLabel())

	fetch := func(ctx context.Context) ([]byte, error) {
		var rows []T
		if err := s.factory.New(store).Select(ctx, string(collection), query, &rows); err != nil {
			return nil, apperrors.FromBackend("load "+string(collection), err)
		}
		if rows == nil {
			rows = []T{}
		}
		payload, err := json.Marshal(rows)
		if err != nil {
			return nil, fmt.Errorf("encode %s rows: %w", collection, err)
		}
		return payload, nil
	}

	// A session whose user could not be resolved reads under its own tokens
	// but would be keyed as anonymous, so its rows are neither cached nor
	// shared.
	if !shareable(store, key) {
		fetchCtx, cancel := context.WithTimeout(ctx, timeouts.ResourceLoad)
		defer cancel()
		payload, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		return decodeRows[T](payload)
	}

	if payload, ok := s.cached(ctx, cacheKey); ok {
		s.hits.WithLabelValues(string(collection)).Inc()
		return decodeRows[T](payload)
	}
	s.misses.WithLabelValues(string(collection)).Inc()

	// The shared fetch outlives any single caller; each caller still stops
	// waiting when its own context ends.
	results := s.fetches.DoChan(cacheKey, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.ResourceLoad)
		defer cancel()

		payload, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		s.store(fetchCtx, webstorage.CacheEntry{
			CacheKey:   cacheKey,
			Collection: string(collection),
			CampaignID: key.CampaignID,
			UserID:     key.UserID,
			Payload:    payload,
		})
		return payload, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-results:
		if result.Err != nil {
			return nil, result.Err
		}
		return decodeRows[T](result.Val.([]byte))
	}
}

// shareable reports whether a read may use the cache and coalesce with other
// callers: either it is keyed by its user, or it carries no session at all.
func shareable(store backend.SessionStore, key Key) bool {
	if strings.TrimSpace(key.UserID) != "" {
		return true
	}
	return store == nil || store.Tokens().Empty()
}

func decodeRows[T any](payload []byte) ([]T, error) {
	var rows []T
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("decode cached rows: %w", err)
	}
	return rows, nil
}

func (s *Service) cached(ctx context.Context, cacheKey string) ([]byte, bool) {
	if !s.caching() {
		return nil, false
	}
	entry, ok, err := s.cache.GetCacheEntry(ctx, cacheKey)
	if err != nil {
		log.Printf("resource cache read failed key=%s err=%v", cacheKey, err)
		return nil, false
	}
	if !ok || !entry.Fresh(s.now()) {
		return nil, false
	}
	return entry.Payload, true
}

func (s *Service) store(ctx context.Context, entry webstorage.CacheEntry) {
	if !s.caching() {
		return
	}
	now := s.now().UTC()
	entry.RefreshedAt = now
	entry.ExpiresAt = now.Add(s.ttl)
	if err := s.cache.PutCacheEntry(ctx, entry); err != nil {
		log.Printf("resource cache write failed key=%s err=%v", entry.CacheKey, err)
	}
}

func (s *Service) invalidate(ctx context.Context, collection Collection, campaignID string) {
	if !s.caching() {
		return
	}
	if err := s.cache.DeleteCollectionEntries(ctx, string(collection), campaignID); err != nil {
		log.Printf("resource cache invalidation failed collection=%s campaign_id=%s err=%v", collection, campaignID, err)
	}
}

// CreateRecord inserts a record owned by the identity's user and drops every
// cached page of that campaign collection.
func (s *Service) CreateRecord(ctx context.Context, store backend.SessionStore, collection Collection, input RecordInput) (Record, error) {
	if s == nil || s.factory == nil {
		return Record{}, apperrors.E(apperrors.KindUnavailable, "resource service is not configured")
	}
	key, err := KeyFor(ctx, 1)
	if err != nil {
		return Record{}, err
	}
	if key.CampaignID == "" {
		return Record{}, apperrors.E(apperrors.KindInvalidInput, "campaign id is required")
	}
	if key.UserID == "" {
		return Record{}, apperrors.E(apperrors.KindUnauthorized, "sign in to add records")
	}
	input, err = input.normalize()
	if err != nil {
		return Record{}, err
	}

	var created []Record
	err = s.factory.New(store).Insert(ctx, string(collection), recordRow{
		CampaignID: key.CampaignID,
		OwnerID:    key.UserID,
		Title:      input.Title,
		Body:       input.Body,
		Kind:       input.Kind,
	}, &created)
	if err != nil {
		return Record{}, apperrors.FromBackend("create "+string(collection), err)
	}
	s.invalidate(ctx, collection, key.CampaignID)
	if len(created) == 0 {
		return Record{CampaignID: key.CampaignID, OwnerID: key.UserID, Title: input.Title, Body: input.Body, Kind: input.Kind}, nil
	}
	return created[0], nil
}

// CreateCampaign inserts a campaign owned by the identity's user.
func (s *Service) CreateCampaign(ctx context.Context, store backend.SessionStore, input CampaignInput) (Campaign, error) {
	if s == nil || s.factory == nil {
		return Campaign{}, apperrors.E(apperrors.KindUnavailable, "resource service is not configured")
	}
	key, err := KeyFor(ctx, 1)
	if err != nil {
		return Campaign{}, err
	}
	if key.UserID == "" {
		return Campaign{}, apperrors.E(apperrors.KindUnauthorized, "sign in to create campaigns")
	}
	input, err = input.normalize()
	if err != nil {
		return Campaign{}, err
	}

	var created []Campaign
	err = s.factory.New(store).Insert(ctx, string(Campaigns), campaignRow{
		Name:    input.Name,
		Summary: input.Summary,
		OwnerID: key.UserID,
	}, &created)
	if err != nil {
		return Campaign{}, apperrors.FromBackend("create campaign", err)
	}
	s.invalidate(ctx, Campaigns, "")
	if len(created) == 0 {
		return Campaign{Name: input.Name, Summary: input.Summary, OwnerID: key.UserID}, nil
	}
	return created[0], nil
}

// PurgeExpired runs the cache janitor every interval until ctx ends.
func (s *Service) PurgeExpired(ctx context.Context, interval time.Duration) {
	if !s.caching() || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.cache.PurgeExpired(ctx, s.now())
			if err != nil {
				log.Printf("resource cache purge failed err=%v", err)
				continue
			}
			if removed > 0 {
				log.Printf("resource cache purged entries=%d", removed)
			}
		}
	}
}
