/*
 * Copyright 2019-2020 by Nedim Sabic Sabic
 * https://www.fibratus.io
 * All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package handle

import (
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

// DefaultDetailsTTL is how long the formatted handle details are reused.
const DefaultDetailsTTL = 5 * time.Second

const maxDetails = 4096

type detailsKey struct {
	pid    uint32
	value  uint32
	object uint64
}

type details struct {
	text    string
	expires time.Time
}

// DetailsCache keeps formatted handle details for a limited time. Entries
// are keyed by the owning process, the handle value and the object address.
type DetailsCache struct {
	mu    sync.Mutex
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewDetailsCache creates the details cache with the given entry lifetime.
func NewDetailsCache(ttl time.Duration) *DetailsCache {
	if ttl <= 0 {
		ttl = DefaultDetailsTTL
	}
	return &DetailsCache{cache: lru.New(maxDetails), ttl: ttl, now: time.Now}
}

func keyOf(h *Handle) detailsKey { return detailsKey{pid: h.Pid, value: h.Value, object: h.Object} }

// Get returns cached details of the handle if they haven't expired.
func (c *DetailsCache) Get(h *Handle) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := keyOf(h)
	v, ok := c.cache.Get(k)
	if !ok {
		return "", false
	}
	d := v.(details)
	if !c.now().Before(d.expires) {
		c.cache.Remove(k)
		return "", false
	}
	return d.text, true
}

// Put stores the handle details.
func (c *DetailsCache) Put(h *Handle, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(keyOf(h), details{text: text, expires: c.now().Add(c.ttl)})
}

// GetOrFormat returns cached details or formats them with the function.
func (c *DetailsCache) GetOrFormat(h *Handle, format func(*Handle) string) string {
	if text, ok := c.Get(h); ok {
		return text
	}
	text := format(h)
	c.Put(h, text)
	return text
}

// Len returns the number of cached entries.
func (c *DetailsCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
