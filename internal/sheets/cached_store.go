package sheets

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coocood/freecache"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const cacheSizeBytes = 10 * 1024 * 1024

// CachedStore is a short-TTL read-through cache in front of a Store.
// Reads of the same table within the TTL are served from memory, which keeps
// the spreadsheet API well below its rate limits. A successful append
// invalidates the touched table immediately (write-then-invalidate), so the
// next read sees the new row.
type CachedStore struct {
	store            Store
	cache            *freecache.Cache
	ttlSeconds       int
	histReadDuration prometheus.Histogram // may be nil
}

func NewCachedStore(store Store, ttlSeconds int, histReadDuration prometheus.Histogram) *CachedStore {
	return &CachedStore{
		store:            store,
		cache:            freecache.NewCache(cacheSizeBytes),
		ttlSeconds:       ttlSeconds,
		histReadDuration: histReadDuration,
	}
}

func (cs *CachedStore) ReadTable(ctx context.Context, name string) ([]Row, error) {
	cacheKey := []byte("table::" + name)

	if cachedBytes, err := cs.cache.Get(cacheKey); err == nil {
		var rows []Row
		if err := json.Unmarshal(cachedBytes, &rows); err == nil {
			log.Tracef("table %s served from cache, %d rows", name, len(rows))
			return rows, nil
		}
		log.Errorf("failed to unmarshal cached table %s, will re-read: %s", name, err)
	}

	readStart := time.Now()
	rows, err := cs.store.ReadTable(ctx, name)
	if err != nil {
		return nil, err
	}
	if cs.histReadDuration != nil {
		cs.histReadDuration.Observe(time.Since(readStart).Seconds())
	}

	rowsBytes, err := json.Marshal(rows)
	if err != nil {
		log.Errorf("failed to marshal table %s for caching: %s", name, err)
		return rows, nil
	}
	if err := cs.cache.Set(cacheKey, rowsBytes, cs.ttlSeconds); err != nil {
		log.Errorf("failed to cache table %s: %s", name, err)
	}

	return rows, nil
}

func (cs *CachedStore) AppendRow(ctx context.Context, table string, values []interface{}) error {
	if err := cs.store.AppendRow(ctx, table, values); err != nil {
		return err
	}
	// show the new row on the next read without waiting out the TTL
	cs.Invalidate(table)
	return nil
}

func (cs *CachedStore) Invalidate(table string) {
	affected := cs.cache.Del([]byte("table::" + table))
	log.Debugf("cache for table %s invalidated (was cached: %t)", table, affected)
}

func (cs *CachedStore) Clear() {
	cs.cache.Clear()
	log.Debugln("sheets read cache cleared")
}
