// Copyright 2022 ZUP IT SERVICOS EM TECNOLOGIA E INOVACAO SA
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"container/list"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/horusec-io/codesnippet-engine/internal/lang"
)

// CacheStats is a snapshot of the parse cache counters.
type CacheStats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// fingerprint hashes source content together with the language tag, since
// the same bytes parsed under two grammars are two distinct results.
func fingerprint(src []byte, language lang.Language) uint64 {
	digest := xxhash.New()
	_, _ = digest.Write(src)
	_, _ = digest.Write([]byte{0})
	_, _ = digest.WriteString(language.String())

	return digest.Sum64()
}

// resultCache is a bounded LRU over parse results. Eviction only drops the
// cache's own reference; a result handed out earlier stays valid because
// ParseResult values are read-only after construction.
type resultCache struct {
	mu       sync.RWMutex
	capacity int
	order    *list.List
	entries  map[uint64]*list.Element
	hits     uint64
	misses   uint64
}

type cacheEntry struct {
	key    uint64
	result *ParseResult
}

func newResultCache(capacity int) *resultCache {
	return &resultCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[uint64]*list.Element, capacity),
	}
}

func (c *resultCache) get(key uint64) (*ParseResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	c.hits++
	c.order.MoveToFront(element)

	return element.Value.(*cacheEntry).result, true
}

func (c *resultCache) put(key uint64, result *ParseResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.entries[key]; ok {
		element.Value.(*cacheEntry).result = result
		c.order.MoveToFront(element)

		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, result: result})

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

func (c *resultCache) invalidate(key uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.entries[key]; ok {
		c.order.Remove(element)
		delete(c.entries, key)
	}
}

func (c *resultCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.entries = make(map[uint64]*list.Element, c.capacity)
}

func (c *resultCache) stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := CacheStats{Hits: c.hits, Misses: c.misses}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}

	return stats
}
