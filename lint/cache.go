// Copyright © 2025 The agnix authors

package lint

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/avifenesh/agnix/mdutil"
)

// importCacheSize bounds the number of files whose @import lists are kept
// in memory during a project walk. Instruction trees are shallow; the
// cache mostly exists so parallel workers following the same import chain
// parse each file once.
const importCacheSize = 512

// ImportCache memoizes the @import targets extracted from a file, keyed by
// its cleaned path. It is shared across parallel workers; golang-lru is
// safe for concurrent use.
type ImportCache struct {
	cache *lru.Cache[string, []mdutil.Import]
}

// NewImportCache creates an empty cache.
func NewImportCache() *ImportCache {
	// lru.New only errors on a non-positive size.
	cache, err := lru.New[string, []mdutil.Import](importCacheSize)
	if err != nil {
		panic(err)
	}
	return &ImportCache{cache: cache}
}

// Get returns the cached import list for path.
func (c *ImportCache) Get(path string) ([]mdutil.Import, bool) {
	if c == nil {
		return nil, false
	}
	return c.cache.Get(path)
}

// Put stores the import list for path.
func (c *ImportCache) Put(path string, imports []mdutil.Import) {
	if c == nil {
		return
	}
	c.cache.Add(path, imports)
}
