package badger

import (
	"context"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/marketgate/internal/common"
	"github.com/bobmcallan/marketgate/internal/interfaces"
)

// CacheEntry is a cached fetch payload. The creation timestamp and TTL are
// stored explicitly so expiry never depends on filesystem metadata.
type CacheEntry struct {
	Key       string `badgerhold:"key"`
	Payload   []byte
	CreatedAt time.Time
	TTL       time.Duration
}

// expired reports whether the entry has aged past its TTL.
func (e *CacheEntry) expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.CreatedAt) > e.TTL
}

type cacheStorage struct {
	store  *Store
	logger *common.Logger
	clock  func() time.Time
}

// NewCacheStorage creates a CacheStorage backed by BadgerHold.
func NewCacheStorage(store *Store, logger *common.Logger) *cacheStorage {
	return &cacheStorage{
		store:  store,
		logger: logger,
		clock:  time.Now,
	}
}

// Get returns the payload for key. Absent keys, expired entries and read
// errors all report a miss; expired entries are removed on the access that
// observes expiry.
func (s *cacheStorage) Get(_ context.Context, key string) ([]byte, bool) {
	var entry CacheEntry
	err := s.store.db.Get(key, &entry)
	if err != nil {
		if err != badgerhold.ErrNotFound {
			s.logger.Warn().Str("key", key).Err(err).Msg("Cache read failed, treating as miss")
		}
		return nil, false
	}

	if entry.expired(s.clock()) {
		// Lazy eviction
		if err := s.store.db.Delete(key, CacheEntry{}); err != nil && err != badgerhold.ErrNotFound {
			s.logger.Warn().Str("key", key).Err(err).Msg("Failed to evict expired cache entry")
		}
		return nil, false
	}

	return entry.Payload, true
}

// Set stores payload under key with the given TTL, replacing any existing
// entry. Write failures are logged; callers may ignore the returned error.
func (s *cacheStorage) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	entry := CacheEntry{
		Key:       key,
		Payload:   payload,
		CreatedAt: s.clock(),
		TTL:       ttl,
	}
	if err := s.store.db.Upsert(key, &entry); err != nil {
		s.logger.Warn().Str("key", key).Err(err).Msg("Cache write failed")
		return err
	}
	return nil
}

// InvalidateExpired removes all expired entries and returns the count.
func (s *cacheStorage) InvalidateExpired(_ context.Context) (int, error) {
	var entries []CacheEntry
	if err := s.store.db.Find(&entries, nil); err != nil {
		return 0, err
	}

	now := s.clock()
	removed := 0
	for i := range entries {
		if !entries[i].expired(now) {
			continue
		}
		if err := s.store.db.Delete(entries[i].Key, CacheEntry{}); err != nil {
			if err != badgerhold.ErrNotFound {
				s.logger.Warn().Str("key", entries[i].Key).Err(err).Msg("Failed to delete expired cache entry")
			}
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("Expired cache entries reclaimed")
	}
	return removed, nil
}

// Close closes the underlying store.
func (s *cacheStorage) Close() error {
	return s.store.Close()
}

// Ensure cacheStorage implements CacheStorage
var _ interfaces.CacheStorage = (*cacheStorage)(nil)
