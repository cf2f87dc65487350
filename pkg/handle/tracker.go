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
	"sync"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
	kerrors "github.com/rabbitstack/objexp/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultHoldDuration is how long new and closed handles stay highlighted.
const DefaultHoldDuration = 2 * time.Second

// Diff contains handles that appeared or vanished since the previous poll.
type Diff struct {
	New    []*Handle
	Closed []*Handle
}

// Empty reports whether the diff has no changes.
func (d Diff) Empty() bool { return len(d.New) == 0 && len(d.Closed) == 0 }

// TrackerOption configures the tracker.
type TrackerOption func(*Tracker)

// WithHoldDuration sets how long the new and closed handles are highlighted.
func WithHoldDuration(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.hold = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// Tracker follows the handle table of a single process. Each poll is
// compared against the previous one by handle value.
type Tracker struct {
	pid      uint32
	src      ProcessSource
	resolver Resolver
	hold     time.Duration
	now      func() time.Time

	mu         sync.Mutex
	polled     bool
	exited     bool
	live       *bitset.BitSet
	handles    map[uint32]*Handle
	highlights map[uint32]*Highlight
}

// NewTracker creates the tracker of the process handle table.
func NewTracker(pid uint32, src ProcessSource, resolver Resolver, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		pid:        pid,
		src:        src,
		resolver:   resolver,
		hold:       DefaultHoldDuration,
		now:        time.Now,
		live:       bitset.New(0),
		handles:    make(map[uint32]*Handle),
		highlights: make(map[uint32]*Highlight),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func slot(value uint32) uint { return uint(value >> 2) }

// Poll snapshots the process handle table and computes the difference
// with the previous snapshot. The first poll establishes the baseline and
// reports no changes.
func (t *Tracker) Poll() (Diff, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.exited || t.src.Exited(t.pid) {
		t.markExited()
		return Diff{}, kerrors.ErrProcessExited
	}
	entries, err := t.src.ProcessHandles(t.pid)
	if err != nil {
		if t.src.Exited(t.pid) {
			t.markExited()
			return Diff{}, kerrors.ErrProcessExited
		}
		return Diff{}, errors.Wrapf(err, "unable to query handles of pid %d", t.pid)
	}

	var (
		diff     Diff
		now      = t.now()
		baseline = !t.polled
		cur      = bitset.New(uint(len(entries)))
	)
	for i := range entries {
		e := &entries[i]
		cur.Set(slot(e.Value))
		if t.live.Test(slot(e.Value)) {
			prev := t.handles[e.Value]
			if prev == nil || prev.TypeIndex == e.TypeIndex {
				continue
			}
			// the value got recycled for a different object type in between polls
			diff.Closed = append(diff.Closed, prev)
			t.highlights[e.Value] = &Highlight{Handle: e.Value, Color: Red, Expires: now.Add(t.hold)}
		}
		h := t.inspect(e)
		if hl, ok := t.highlights[e.Value]; ok && hl.Color == Red && !t.live.Test(slot(e.Value)) {
			// the value of the closed handle was reused
			delete(t.highlights, e.Value)
		}
		t.handles[e.Value] = h
		if baseline {
			continue
		}
		diff.New = append(diff.New, h)
		t.highlights[e.Value] = &Highlight{Handle: e.Value, Color: Green, Expires: now.Add(t.hold), IsNew: true}
	}

	closed := t.live.Difference(cur)
	for i, ok := closed.NextSet(0); ok; i, ok = closed.NextSet(i + 1) {
		value := uint32(i << 2)
		h, found := t.handles[value]
		if !found {
			continue
		}
		diff.Closed = append(diff.Closed, h)
		t.highlights[value] = &Highlight{Handle: value, Color: Red, Expires: now.Add(t.hold)}
	}

	t.live = cur
	t.polled = true
	sortByValue(diff.New)
	sortByValue(diff.Closed)

	return diff, nil
}

func (t *Tracker) inspect(e *Entry) *Handle {
	h := &Handle{
		Value:         e.Value,
		Pid:           t.pid,
		TypeIndex:     e.TypeIndex,
		TypeName:      t.resolver.TypeName(e.TypeIndex),
		GrantedAccess: e.GrantedAccess,
		Attributes:    e.Attributes,
	}
	dup, err := t.src.Inspect(t.pid, e)
	if err != nil {
		log.WithField("pid", t.pid).Debugf("unable to inspect handle %#x: %v", e.Value, err)
		h.NameResolved = true
		return h
	}
	defer t.src.Close(dup)
	h.Object = e.Object
	h.GrantedAccess = e.GrantedAccess
	h.Attributes = e.Attributes
	h.Name = t.resolver.NameOf(dup, e.TypeIndex)
	h.NameResolved = true
	return h
}

func (t *Tracker) markExited() {
	t.exited = true
	t.live = bitset.New(0)
	t.handles = make(map[uint32]*Handle)
	t.highlights = make(map[uint32]*Highlight)
}

// Handles returns tracked handles ordered by value. Closed handles are
// retained until their highlight expires.
func (t *Tracker) Handles() []*Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	handles := make([]*Handle, 0, len(t.handles))
	for _, h := range t.handles {
		handles = append(handles, h)
	}
	sortByValue(handles)
	return handles
}

// Highlights purges expired highlights and returns the active ones ordered
// by handle value. Closed handles are dropped once their highlight expires.
func (t *Tracker) Highlights(now time.Time) []Highlight {
	t.mu.Lock()
	defer t.mu.Unlock()
	highlights := make([]Highlight, 0, len(t.highlights))
	for value, hl := range t.highlights {
		if !now.Before(hl.Expires) {
			delete(t.highlights, value)
			if hl.Color == Red && !t.live.Test(slot(value)) {
				delete(t.handles, value)
			}
			continue
		}
		highlights = append(highlights, *hl)
	}
	sort.Slice(highlights, func(i, j int) bool { return highlights[i].Handle < highlights[j].Handle })
	return highlights
}

// Exited reports whether the tracked process terminated.
func (t *Tracker) Exited() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.exited
}

// Pid returns the identifier of the tracked process.
func (t *Tracker) Pid() uint32 { return t.pid }

func sortByValue(handles []*Handle) {
	sort.Slice(handles, func(i, j int) bool { return handles[i].Value < handles[j].Value })
}
