package store

import (
	"context"

	"github.com/saint-net/open-jobs-searcher/internal/cache"
)

// NopCacheStore is a cache.Store that holds nothing. Used when response
// caching is disabled: every lookup misses and writes vanish.
type NopCacheStore struct{}

func NewNopCacheStore() *NopCacheStore { return &NopCacheStore{} }

func (s *NopCacheStore) GetEntry(context.Context, string) (cache.Entry, bool, error) {
	return cache.Entry{}, false, nil
}
func (s *NopCacheStore) SetEntry(context.Context, string, cache.Entry) error { return nil }
func (s *NopCacheStore) DeleteEntry(context.Context, string) error           { return nil }
