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
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pkg/errors"
	kerrors "github.com/rabbitstack/objexp/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// maxSuggestions is the number of type names suggested for unknown type names.
const maxSuggestions = 3

// Registry keeps the object type descriptors. Type identity is established
// by the first refresh. Subsequent refreshes only update the counters and
// record the counter deltas.
type Registry struct {
	src TypeSource

	refreshMu sync.Mutex

	mu      sync.RWMutex
	types   []*ObjectType
	byIndex map[uint16]*ObjectType
	byName  map[string]*ObjectType
	changes []TypeChange
}

// NewRegistry creates the type registry backed by the given source.
func NewRegistry(src TypeSource) *Registry {
	return &Registry{src: src}
}

// Refresh queries object types. The new snapshot is built aside and swapped
// in at once, so readers never observe partially updated counters.
func (r *Registry) Refresh() error {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	types, err := r.src.QueryTypes()
	if err != nil {
		return errors.Wrap(err, "unable to query object types")
	}
	native := r.src.NativeIndices()

	r.mu.RLock()
	prev := r.byIndex
	count := len(r.types)
	r.mu.RUnlock()

	if prev == nil {
		r.populate(types, native)
		return nil
	}
	if len(types) != count {
		return errors.Wrapf(kerrors.ErrTypeSetChanged, "expected %d types, got %d", count, len(types))
	}

	next := make([]*ObjectType, 0, len(types))
	changes := make([]TypeChange, 0)
	for i := range types {
		t := &types[i]
		index := indexOf(i, t, native)
		old, ok := prev[index]
		if !ok || old.Name != t.Name {
			return errors.Wrapf(kerrors.ErrTypeSetChanged, "type %q at index %d", t.Name, index)
		}
		n := *old
		n.TotalHandles, n.TotalObjects = t.TotalHandles, t.TotalObjects
		n.PeakHandles, n.PeakObjects = t.PeakHandles, t.PeakObjects
		n.PagedPoolUsage, n.NonPagedPoolUsage, n.NamePoolUsage = t.PagedPoolUsage, t.NonPagedPoolUsage, t.NamePoolUsage
		changes = appendChange(changes, &n, TotalHandlesChange, old.TotalHandles, n.TotalHandles)
		changes = appendChange(changes, &n, TotalObjectsChange, old.TotalObjects, n.TotalObjects)
		changes = appendChange(changes, &n, PeakHandlesChange, old.PeakHandles, n.PeakHandles)
		changes = appendChange(changes, &n, PeakObjectsChange, old.PeakObjects, n.PeakObjects)
		next = append(next, &n)
	}

	r.publish(next, changes)
	if len(changes) > 0 {
		log.Debugf("%d object type counter(s) changed", len(changes))
	}
	return nil
}

func (r *Registry) populate(types []ObjectType, native bool) {
	next := make([]*ObjectType, 0, len(types))
	for i := range types {
		t := types[i]
		t.Index = indexOf(i, &t, native)
		next = append(next, &t)
	}
	r.publish(next, nil)
	log.Debugf("registered %d object types", len(next))
}

func (r *Registry) publish(types []*ObjectType, changes []TypeChange) {
	byIndex := make(map[uint16]*ObjectType, len(types))
	byName := make(map[string]*ObjectType, len(types))
	for _, t := range types {
		byIndex[t.Index] = t
		byName[strings.ToLower(t.Name)] = t
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = types
	r.byIndex = byIndex
	r.byName = byName
	r.changes = changes
}

func indexOf(pos int, t *ObjectType, native bool) uint16 {
	if native {
		return t.Index
	}
	return uint16(pos)
}

func appendChange(changes []TypeChange, t *ObjectType, kind ChangeKind, prev, cur uint32) []TypeChange {
	if prev == cur {
		return changes
	}
	return append(changes, TypeChange{Type: t, Kind: kind, Delta: int32(cur) - int32(prev)})
}

// Types returns object types in the enumeration order.
func (r *Registry) Types() []*ObjectType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types
}

// ByIndex returns the object type with the given index.
func (r *Registry) ByIndex(index uint16) (*ObjectType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byIndex[index]
	if !ok {
		return nil, kerrors.ErrUnknownTypeIndex{Index: index}
	}
	return t, nil
}

// ByName returns the object type with the given name. Names are matched
// case-insensitively. Unknown names yield the error with the closest
// matching type names.
func (r *Registry) ByName(name string) (*ObjectType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.byName[strings.ToLower(name)]; ok {
		return t, nil
	}
	names := make([]string, 0, len(r.types))
	for _, t := range r.types {
		names = append(names, t.Name)
	}
	ranks := fuzzy.RankFindFold(name, names)
	sort.Sort(ranks)
	suggestions := make([]string, 0, maxSuggestions)
	for _, rank := range ranks {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, rank.Target)
	}
	return nil, kerrors.ErrUnknownTypeName{Name: name, Suggestions: suggestions}
}

// Changes returns counter changes observed by the last refresh.
func (r *Registry) Changes() []TypeChange {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.changes
}

// Totals sums up the counters of all types.
func (r *Registry) Totals() Totals {
	r.mu.RLock()
	defer r.mu.RUnlock()
	totals := Totals{Types: len(r.types)}
	for _, t := range r.types {
		totals.TotalHandles += uint64(t.TotalHandles)
		totals.TotalObjects += uint64(t.TotalObjects)
		totals.PeakHandles += uint64(t.PeakHandles)
		totals.PeakObjects += uint64(t.PeakObjects)
	}
	return totals
}

// Close drops all registered types.
func (r *Registry) Close() {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types, r.byIndex, r.byName, r.changes = nil, nil, nil, nil
}
