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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetailsCache(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := NewDetailsCache(5 * time.Second)
	c.now = func() time.Time { return now }

	h := &Handle{Pid: 100, Value: 0x4, Object: 0xA0}
	calls := 0
	format := func(*Handle) string {
		calls++
		return "Count: 1, Max: 1"
	}

	assert.Equal(t, "Count: 1, Max: 1", c.GetOrFormat(h, format))
	assert.Equal(t, "Count: 1, Max: 1", c.GetOrFormat(h, format))
	assert.Equal(t, 1, calls)

	// same value, different object
	_, ok := c.Get(&Handle{Pid: 100, Value: 0x4, Object: 0xB0})
	assert.False(t, ok)

	now = now.Add(5 * time.Second)
	_, ok = c.Get(h)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	c.GetOrFormat(h, format)
	assert.Equal(t, 2, calls)
}

func TestDetailsCacheDefaultTTL(t *testing.T) {
	c := NewDetailsCache(0)
	assert.Equal(t, DefaultDetailsTTL, c.ttl)
	c.Put(&Handle{Pid: 1, Value: 0x8}, "x")
	text, ok := c.Get(&Handle{Pid: 1, Value: 0x8})
	assert.True(t, ok)
	assert.Equal(t, "x", text)
}
