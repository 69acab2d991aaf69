// Package cache provides caching infrastructure for parsed queries.
package cache

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"flowmetrics/internal/core/apperror"
	"flowmetrics/internal/domain/wiql"
)

// DefaultQueryCacheSize bounds the parsed-query cache. The cache is keyed
// by a hash of the raw query text; bounding it with LRU eviction keeps a
// long-running process from accumulating every query variant it ever saw.
const DefaultQueryCacheSize = 512

// QueryCache memoizes Parse results. Safe for concurrent use.
type QueryCache struct {
	entries *lru.Cache[string, *wiql.Query]
	parse   func(string) (*wiql.Query, error)
}

// NewQueryCache creates a cache holding at most size parsed queries.
// Non-positive sizes fall back to DefaultQueryCacheSize.
func NewQueryCache(size int) (*QueryCache, error) {
	if size <= 0 {
		size = DefaultQueryCacheSize
	}
	entries, err := lru.New[string, *wiql.Query](size)
	if err != nil {
		return nil, err
	}
	return &QueryCache{entries: entries, parse: wiql.Parse}, nil
}

// Parse returns the cached Query for text, parsing and caching on miss.
// Parse failures are not cached.
func (c *QueryCache) Parse(text string) (*wiql.Query, error) {
	key := cacheKey(text)

	if q, ok := c.entries.Get(key); ok {
		return q, nil
	}

	q, err := c.parse(text)
	if err != nil {
		return nil, apperror.NewQueryParse(err)
	}

	c.entries.Add(key, q)
	return q, nil
}

// Len returns the number of cached queries.
func (c *QueryCache) Len() int {
	return c.entries.Len()
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
