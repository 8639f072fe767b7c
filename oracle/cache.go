package oracle

import (
	"expvar"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

var (
	cacheHits    = expvar.NewInt("oracle/cache_hits")
	cacheMisses  = expvar.NewInt("oracle/cache_misses")
	cacheHitRate = expvar.NewFloat("oracle/cache_hit_rate")
)

// ResponseCache memoizes guesser responses by game state. A cache is only
// valid for one fixed hider strategy (or one fixed strategy history): the
// caller chooses keys that identify everything the response depends on.
// It is safe for concurrent use.
type ResponseCache struct {
	cache *lru.Cache
}

func NewResponseCache(size int) (*ResponseCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "creating response cache")
	}

	return &ResponseCache{cache: cache}, nil
}

// GetOrCompute returns the cached response for key, calling compute on a
// miss. Concurrent misses on the same key may both compute; the response is
// deterministic so either result is kept.
func (c *ResponseCache) GetOrCompute(key string, compute func() int) int {
	if cached, ok := c.cache.Get(key); ok {
		cacheHits.Add(1)
		updateHitRate()
		return cached.(int)
	}

	cacheMisses.Add(1)
	updateHitRate()
	result := compute()
	c.cache.Add(key, result)
	return result
}

// Len returns the number of cached responses.
func (c *ResponseCache) Len() int {
	return c.cache.Len()
}

func updateHitRate() {
	hits, misses := cacheHits.Value(), cacheMisses.Value()
	cacheHitRate.Set(float64(hits) / float64(hits+misses))
}
