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
	"expvar"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	kerrors "github.com/rabbitstack/objexp/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
)

// DefaultNameTimeout is the time given to File name queries before they are abandoned.
const DefaultNameTimeout = 6 * time.Millisecond

var (
	enumerations     = expvar.NewInt("handle.enumerations")
	enumeratedCount  = expvar.NewInt("handle.enumerated.count")
	unknownTypeCount = expvar.NewInt("handle.unknown.types")
	nameFailures     = expvar.NewInt("handle.name.failures")
)

// Filter restricts which handles are retained by the enumeration.
type Filter struct {
	// Type is the object type name. Empty means all types.
	Type string
	// Pid restricts handles to the given process. Zero means all processes.
	Pid uint32
	// Prefix keeps handles whose names start with the prefix. Comparison is case-insensitive.
	Prefix string
	// NamedOnly drops handles without the name.
	NamedOnly bool
	// SkipSelf drops handles owned by the current process.
	SkipSelf bool
	// Objects requests object names to be resolved eagerly.
	Objects bool
}

func (f Filter) eagerNames() bool { return f.Objects || f.Prefix != "" || f.NamedOnly }

// Option configures the manager.
type Option func(*Manager)

// WithNameTimeout sets the timeout of File object name queries.
func WithNameTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.nameTimeout = d
		}
	}
}

// Manager enumerates handles of the system handle table and groups them
// into objects by the kernel address.
type Manager struct {
	src         SystemSource
	types       *Registry
	nameTimeout time.Duration

	mu        sync.RWMutex
	handles   []*Handle
	objects   []*Object
	byAddress map[uint64]*Object
}

// NewManager creates the handle manager.
func NewManager(src SystemSource, opts ...Option) *Manager {
	m := &Manager{
		src:         src,
		types:       NewRegistry(src),
		nameTimeout: DefaultNameTimeout,
		byAddress:   make(map[uint64]*Object),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Registry returns the object type registry.
func (m *Manager) Registry() *Registry { return m.types }

// Enumerate snapshots the system handle table and replaces the current
// handles and objects with the ones matching the filter.
func (m *Manager) Enumerate(f Filter) error {
	if err := m.types.Refresh(); err != nil {
		return err
	}
	entries, err := m.src.QueryHandles()
	if err != nil {
		return errors.Wrap(err, "unable to query system handles")
	}
	var typ *ObjectType
	if f.Type != "" {
		typ, err = m.types.ByName(f.Type)
		if err != nil {
			return err
		}
	}

	var (
		self    = m.src.CurrentPid()
		eager   = f.eagerNames()
		caser   = cases.Fold()
		prefix  = caser.String(f.Prefix)
		handles = make([]*Handle, 0, len(entries)/4)
		objects = make([]*Object, 0, len(entries)/8)
		byAddr  = make(map[uint64]*Object, len(entries)/8)
	)

	for _, e := range entries {
		if f.Pid != 0 && e.Pid != f.Pid {
			continue
		}
		if typ != nil && e.TypeIndex != typ.Index {
			continue
		}
		if f.SkipSelf && e.Pid == self {
			continue
		}
		t, err := m.types.ByIndex(e.TypeIndex)
		if err != nil {
			unknownTypeCount.Add(1)
			log.Debugf("skipping handle %#x of pid %d: %v", e.Value, e.Pid, err)
			continue
		}
		h := &Handle{
			Value:         e.Value,
			Pid:           e.Pid,
			TypeIndex:     e.TypeIndex,
			TypeName:      t.Name,
			Object:        e.Object,
			GrantedAccess: e.GrantedAccess,
			Attributes:    e.Attributes,
		}
		if eager {
			h.Name = m.queryName(h)
			h.NameResolved = true
		}
		if f.NamedOnly && h.Name == "" {
			continue
		}
		if prefix != "" && !strings.HasPrefix(caser.String(h.Name), prefix) {
			continue
		}
		handles = append(handles, h)

		if o, ok := byAddr[h.Object]; ok && h.Object != 0 {
			o.Handles = append(o.Handles, h)
			o.HandleCount++
			h.ref = o
			continue
		}
		o := &Object{
			Address:     h.Object,
			TypeIndex:   h.TypeIndex,
			TypeName:    h.TypeName,
			Name:        h.Name,
			HandleCount: 1,
			Handles:     []*Handle{h},
		}
		h.Link, h.ref = o, o
		objects = append(objects, o)
		if h.Object != 0 {
			byAddr[h.Object] = o
		}
	}

	m.mu.Lock()
	m.handles, m.objects, m.byAddress = handles, objects, byAddr
	m.mu.Unlock()

	enumerations.Add(1)
	enumeratedCount.Set(int64(len(handles)))
	log.Debugf("enumerated %d handles and %d objects out of %d entries", len(handles), len(objects), len(entries))

	return nil
}

// Handles returns the handles of the last enumeration.
func (m *Manager) Handles() []*Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.handles
}

// Objects returns the deduplicated objects of the last enumeration.
func (m *Manager) Objects() []*Object {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.objects
}

// ObjectByAddress returns the object with the given kernel address.
func (m *Manager) ObjectByAddress(addr uint64) (*Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.byAddress[addr]
	return o, ok
}

// Type returns the object type by index.
func (m *Manager) Type(index uint16) (*ObjectType, error) { return m.types.ByIndex(index) }

// TypeByName returns the object type by name.
func (m *Manager) TypeByName(name string) (*ObjectType, error) { return m.types.ByName(name) }

// TypeName returns the name of the type with the given index, or an empty
// string if the index is not registered.
func (m *Manager) TypeName(index uint16) string {
	t, err := m.types.ByIndex(index)
	if err != nil {
		return ""
	}
	return t.Name
}

// Stats returns the counters summed over all object types.
func (m *Manager) Stats() Totals { return m.types.Totals() }

// ResolveName resolves the handle name unless it was already resolved. The
// object name is filled in from its first handle.
func (m *Manager) ResolveName(h *Handle) string {
	if h.NameResolved {
		return h.Name
	}
	h.Name = m.queryName(h)
	h.NameResolved = true
	if h.Link != nil && h.Link.Name == "" {
		h.Link.Name = h.Name
	}
	return h.Name
}

func (m *Manager) queryName(h *Handle) string {
	if !hasName(h.TypeName) {
		return ""
	}
	dup, err := m.src.Duplicate(h.Pid, h.Value, 0, DuplicateSameAccess)
	if err != nil {
		nameFailures.Add(1)
		log.Debugf("unable to duplicate handle %#x of pid %d: %v", h.Value, h.Pid, err)
		return ""
	}
	defer m.src.Close(dup)
	return m.NameOf(dup, h.TypeIndex)
}

// hasName reports whether the object name is worth querying for the type.
func hasName(typeName string) bool {
	return typeName != Process && typeName != Thread
}

// NameOf queries the name of the duplicated handle according to the type
// of the object. Process and Thread names are never queried. File names are
// queried with the timeout. Failures yield an empty name.
func (m *Manager) NameOf(dup uintptr, typeIndex uint16) string {
	typeName := m.TypeName(typeIndex)
	if !hasName(typeName) {
		return ""
	}
	var timeout time.Duration
	if typeName == File {
		timeout = m.nameTimeout
	}
	name, err := m.src.ObjectName(dup, timeout)
	if err != nil {
		nameFailures.Add(1)
		if errors.Is(err, kerrors.ErrNameTimeout) {
			log.Debugf("%s object name query timed out after %v", typeName, timeout)
		}
		return ""
	}
	return name
}

// DupHandle duplicates the handle into the current process. Zero access
// without the same access flag requests all valid access rights of the type.
func (m *Manager) DupHandle(h *Handle, access, flags uint32) (uintptr, error) {
	if access == 0 && flags&DuplicateSameAccess == 0 {
		t, err := m.types.ByIndex(h.TypeIndex)
		if err != nil {
			return 0, err
		}
		access = t.ValidAccessMask
	}
	return m.src.Duplicate(h.Pid, h.Value, access, flags)
}

// Details renders type-specific details of the handle through the
// formatter of its type. Rendered details are reused until they expire.
func (m *Manager) Details(h *Handle, f *Formatters, cache *DetailsCache) string {
	if !f.Has(h.TypeIndex) {
		return ""
	}
	return cache.GetOrFormat(h, func(h *Handle) string {
		dup, err := m.src.Duplicate(h.Pid, h.Value, 0, DuplicateSameAccess)
		if err != nil {
			log.Debugf("unable to duplicate handle %#x of pid %d for details: %v", h.Value, h.Pid, err)
			return ""
		}
		defer m.src.Close(dup)
		return f.Format(dup, h)
	})
}

// AddressOpener is implemented by sources that can open objects by their
// kernel address. A zero handle means the object couldn't be opened.
type AddressOpener interface {
	OpenByAddress(addr uint64, access uint32) uintptr
}

// DupObject duplicates the object through the first of its handles that
// permits the duplication. When none does, the object is opened by its
// address if the source supports it.
func (m *Manager) DupObject(o *Object) (uintptr, error) {
	t, err := m.types.ByIndex(o.TypeIndex)
	if err != nil {
		return 0, err
	}
	err = errors.Errorf("object %#x has no handles", o.Address)
	for _, h := range o.Handles {
		var dup uintptr
		dup, err = m.src.Duplicate(h.Pid, h.Value, t.ValidAccessMask, 0)
		if err == nil {
			return dup, nil
		}
	}
	if opener, ok := m.src.(AddressOpener); ok && o.Address != 0 {
		if h := opener.OpenByAddress(o.Address, t.ValidAccessMask); h != 0 {
			return h, nil
		}
	}
	return 0, errors.Wrapf(err, "unable to duplicate object %#x", o.Address)
}

// CloseHandle closes the handle in the owning process. The handle is
// removed from the current snapshot.
func (m *Manager) CloseHandle(h *Handle) error {
	dup, err := m.src.Duplicate(h.Pid, h.Value, 0, DuplicateCloseSource|DuplicateSameAccess)
	if err != nil {
		return errors.Wrapf(err, "unable to close handle %#x of pid %d", h.Value, h.Pid)
	}
	m.src.Close(dup)
	m.remove(h)
	log.WithField("pid", h.Pid).Debugf("closed handle %#x", h.Value)
	return nil
}

func (m *Manager) remove(h *Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	handles := make([]*Handle, 0, len(m.handles))
	for _, x := range m.handles {
		if x != h {
			handles = append(handles, x)
		}
	}
	m.handles = handles

	o := h.ref
	if o == nil {
		return
	}
	rest := make([]*Handle, 0, len(o.Handles))
	for _, x := range o.Handles {
		if x != h {
			rest = append(rest, x)
		}
	}
	if len(rest) > 0 {
		n := *o
		n.Handles, n.HandleCount = rest, len(rest)
		rest[0].Link = &n
		for _, x := range rest {
			x.ref = &n
		}
		m.replaceObject(o, &n)
		return
	}
	m.replaceObject(o, nil)
}

func (m *Manager) replaceObject(o, n *Object) {
	objects := make([]*Object, 0, len(m.objects))
	for _, x := range m.objects {
		switch {
		case x != o:
			objects = append(objects, x)
		case n != nil:
			objects = append(objects, n)
		}
	}
	m.objects = objects
	byAddr := make(map[uint64]*Object, len(m.byAddress))
	for addr, x := range m.byAddress {
		if x == o {
			if n != nil {
				byAddr[addr] = n
			}
			continue
		}
		byAddr[addr] = x
	}
	m.byAddress = byAddr
}

// openable are the types that can be opened by name.
var openable = map[string]bool{
	Event:        true,
	Mutant:       true,
	Section:      true,
	Semaphore:    true,
	SymbolicLink: true,
	Key:          true,
	Job:          true,
	File:         true,
	Device:       true,
	IoCompletion: true,
	Desktop:      true,
}

// OpenObject opens the named object of the given type. Zero access
// requests the maximum allowed access.
func (m *Manager) OpenObject(path, typeName string, access uint32) (uintptr, error) {
	if !openable[typeName] {
		return 0, errors.Wrapf(kerrors.ErrUnknownType, "%s objects can't be opened by name", typeName)
	}
	if access == 0 {
		access = MaximumAllowed
	}
	return m.src.OpenObject(path, typeName, access)
}

// EnumDirectory lists the object manager directory. Symbolic link targets
// are resolved when possible.
func (m *Manager) EnumDirectory(path string) ([]DirEntry, error) {
	if path == "" {
		path = `\`
	}
	entries, err := m.src.EnumDirectory(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to enumerate %s directory", path)
	}
	for i, e := range entries {
		if e.TypeName != SymbolicLink {
			continue
		}
		target, err := m.src.SymbolicLinkTarget(JoinPath(path, e.Name))
		if err != nil {
			log.Debugf("unable to resolve %s link target: %v", e.Name, err)
			continue
		}
		entries[i].Target = target
	}
	return entries, nil
}

// SymbolicLinkTarget resolves the target of the symbolic link object.
func (m *Manager) SymbolicLinkTarget(path string) (string, error) {
	return m.src.SymbolicLinkTarget(path)
}

// JoinPath joins the object directory path and the object name.
func JoinPath(dir, name string) string {
	if strings.HasSuffix(dir, `\`) {
		return dir + name
	}
	return dir + `\` + name
}
