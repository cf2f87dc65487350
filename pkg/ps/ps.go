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

// Package ps resolves process names for the handle views.
package ps

import (
	"expvar"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/shirou/gopsutil/v4/process"
)

const (
	// DefaultCacheSize is the maximum number of cached process names.
	DefaultCacheSize = 2048
	// DefaultTTL is how long the process name is reused. Process identifiers are recycled.
	DefaultTTL = 30 * time.Second
)

var (
	processLookupFailureCount = expvar.NewInt("process.lookup.failure.count")
	processLookupCount        = expvar.NewInt("process.lookup.count")
)

// System processes lacking the image.
const (
	idleName   = "System Idle Process"
	systemName = "System"
)

type entry struct {
	name    string
	expires time.Time
}

// Names caches process names by process identifier.
type Names struct {
	mu     sync.Mutex
	cache  *lru.Cache
	ttl    time.Duration
	now    func() time.Time
	lookup func(pid uint32) (string, error)
}

// NewNames creates the process name cache.
func NewNames(size int, ttl time.Duration) *Names {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Names{
		cache:  lru.New(size),
		ttl:    ttl,
		now:    time.Now,
		lookup: lookupName,
	}
}

func lookupName(pid uint32) (string, error) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return "", err
	}
	return proc.Name()
}

// Name returns the name of the process. Unknown processes yield an empty name.
func (n *Names) Name(pid uint32) string {
	switch pid {
	case 0:
		return idleName
	case 4:
		return systemName
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if v, ok := n.cache.Get(pid); ok {
		e := v.(entry)
		if n.now().Before(e.expires) {
			return e.name
		}
		n.cache.Remove(pid)
	}
	processLookupCount.Add(1)
	name, err := n.lookup(pid)
	if err != nil {
		processLookupFailureCount.Add(1)
		name = ""
	}
	n.cache.Add(pid, entry{name: name, expires: n.now().Add(n.ttl)})
	return name
}

// Exists reports whether the process with the given identifier is running.
func Exists(pid uint32) bool {
	ok, err := process.PidExists(int32(pid))
	return ok && err == nil
}

// Process is the running process.
type Process struct {
	Pid  uint32
	Name string
}

// FindByName returns running processes with the given image name.
func FindByName(name string) ([]Process, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	matches := make([]Process, 0)
	for _, proc := range procs {
		n, err := proc.Name()
		if err != nil {
			continue
		}
		if equalFold(n, name) {
			matches = append(matches, Process{Pid: uint32(proc.Pid), Name: n})
		}
	}
	return matches, nil
}
