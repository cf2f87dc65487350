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
	"errors"
	"strings"
	"testing"
	"time"

	kerrors "github.com/rabbitstack/objexp/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const selfPid uint32 = 42

func sampleEntries() []Entry {
	return []Entry{
		{Object: 0xA0, Pid: 100, Value: 0x4, TypeIndex: 16, GrantedAccess: 0x1F0003},
		{Object: 0xA0, Pid: 200, Value: 0x8, TypeIndex: 16, GrantedAccess: 0x100000},
		{Object: 0xB0, Pid: 100, Value: 0xC, TypeIndex: 37, GrantedAccess: 0x120089},
		{Object: 0xC0, Pid: 300, Value: 0x10, TypeIndex: 7, GrantedAccess: 0x1000},
		{Object: 0xD0, Pid: selfPid, Value: 0x14, TypeIndex: 16, GrantedAccess: 0x1F0003},
		{Object: 0xE0, Pid: 200, Value: 0x18, TypeIndex: 17, GrantedAccess: 0x1F0001, Attributes: AttributeInherit},
	}
}

var sampleNames = map[uint32]string{
	0x4:  `\BaseNamedObjects\Alpha`,
	0x8:  `\BaseNamedObjects\Alpha`,
	0xC:  `\Device\HarddiskVolume1\Temp\data.bin`,
	0x14: `\BaseNamedObjects\Self`,
	0x18: "",
}

func newSourceMock(entries []Entry) *SourceMock {
	src := new(SourceMock)
	src.On("QueryTypes").Return(sampleTypes(), nil)
	src.On("NativeIndices").Return(true)
	src.On("QueryHandles").Return(entries, nil)
	src.On("CurrentPid").Return(selfPid)
	src.On("Close", mock.Anything).Return().Maybe()
	for _, e := range entries {
		src.On("Duplicate", e.Pid, e.Value, uint32(0), DuplicateSameAccess).Return(uintptr(e.Value), nil).Maybe()
		timeout := time.Duration(0)
		if e.TypeIndex == 37 {
			timeout = DefaultNameTimeout
		}
		src.On("ObjectName", uintptr(e.Value), timeout).Return(sampleNames[e.Value], nil).Maybe()
	}
	return src
}

func values(handles []*Handle) []uint32 {
	vals := make([]uint32, 0, len(handles))
	for _, h := range handles {
		vals = append(vals, h.Value)
	}
	return vals
}

func TestEnumerateDedup(t *testing.T) {
	src := newSourceMock(sampleEntries())
	m := NewManager(src)

	require.NoError(t, m.Enumerate(Filter{}))

	handles := m.Handles()
	objects := m.Objects()
	require.Len(t, handles, 6)
	require.Len(t, objects, 5)

	seen := make(map[uint64]bool)
	count := 0
	for _, o := range objects {
		assert.False(t, seen[o.Address], "duplicate object address %#x", o.Address)
		seen[o.Address] = true
		assert.Equal(t, len(o.Handles), o.HandleCount)
		count += o.HandleCount
		for _, h := range o.Handles {
			assert.Equal(t, o.Address, h.Object)
			assert.Same(t, o, h.ObjectRef())
		}
		assert.Same(t, o, o.Handles[0].Link)
	}
	assert.Equal(t, len(handles), count)

	alpha, ok := m.ObjectByAddress(0xA0)
	require.True(t, ok)
	assert.Equal(t, 2, alpha.HandleCount)
	assert.Equal(t, []uint32{0x4, 0x8}, values(alpha.Handles))
	assert.Nil(t, handles[1].Link)
	assert.Same(t, alpha, handles[1].ObjectRef())
	assert.Equal(t, Event, alpha.TypeName)

	// names are resolved lazily without the name filters
	src.AssertNotCalled(t, "Duplicate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.False(t, handles[0].NameResolved)
}

func TestEnumerateZeroAddressNotMerged(t *testing.T) {
	entries := []Entry{
		{Pid: 100, Value: 0x4, TypeIndex: 16},
		{Pid: 200, Value: 0x8, TypeIndex: 16},
	}
	m := NewManager(newSourceMock(entries))

	require.NoError(t, m.Enumerate(Filter{}))
	assert.Len(t, m.Objects(), 2)
	_, ok := m.ObjectByAddress(0)
	assert.False(t, ok)
}

func TestEnumerateFilters(t *testing.T) {
	var tests = []struct {
		name   string
		filter Filter
		want   []uint32
	}{
		{"all", Filter{}, []uint32{0x4, 0x8, 0xC, 0x10, 0x14, 0x18}},
		{"type", Filter{Type: "event"}, []uint32{0x4, 0x8, 0x14}},
		{"type skip self", Filter{Type: Event, SkipSelf: true}, []uint32{0x4, 0x8}},
		{"pid", Filter{Pid: 100}, []uint32{0x4, 0xC}},
		{"pid and type", Filter{Pid: 200, Type: Mutant}, []uint32{0x18}},
		{"skip self", Filter{SkipSelf: true}, []uint32{0x4, 0x8, 0xC, 0x10, 0x18}},
		{"named only", Filter{NamedOnly: true}, []uint32{0x4, 0x8, 0xC, 0x14}},
		{"prefix", Filter{Prefix: `\basenamedobjects\AL`}, []uint32{0x4, 0x8}},
		{"prefix no match", Filter{Prefix: `\Sessions`}, []uint32{}},
		{"prefix and pid", Filter{Prefix: `\Device`, Pid: 100}, []uint32{0xC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(newSourceMock(sampleEntries()))
			require.NoError(t, m.Enumerate(tt.filter))
			assert.Equal(t, tt.want, values(m.Handles()))
			for _, h := range m.Handles() {
				if tt.filter.Type != "" {
					assert.True(t, strings.EqualFold(tt.filter.Type, h.TypeName))
				}
				if tt.filter.Pid != 0 {
					assert.Equal(t, tt.filter.Pid, h.Pid)
				}
				if tt.filter.NamedOnly {
					assert.NotEmpty(t, h.Name)
				}
			}
		})
	}
}

func TestEnumerateNamePolicy(t *testing.T) {
	src := newSourceMock(sampleEntries())
	m := NewManager(src)

	require.NoError(t, m.Enumerate(Filter{Objects: true}))

	for _, h := range m.Handles() {
		assert.True(t, h.NameResolved)
	}
	// process handles are never queried
	src.AssertNotCalled(t, "Duplicate", uint32(300), uint32(0x10), mock.Anything, mock.Anything)
	// file names are queried with the timeout
	src.AssertCalled(t, "ObjectName", uintptr(0xC), DefaultNameTimeout)
	src.AssertCalled(t, "ObjectName", uintptr(0x4), time.Duration(0))

	alpha, ok := m.ObjectByAddress(0xA0)
	require.True(t, ok)
	assert.Equal(t, `\BaseNamedObjects\Alpha`, alpha.Name)
}

func TestEnumerateNameFailures(t *testing.T) {
	entries := []Entry{
		{Object: 0xA0, Pid: 100, Value: 0x4, TypeIndex: 16},
		{Object: 0xB0, Pid: 100, Value: 0x8, TypeIndex: 37},
		{Object: 0xC0, Pid: 4, Value: 0xC, TypeIndex: 16},
	}
	src := new(SourceMock)
	src.On("QueryTypes").Return(sampleTypes(), nil)
	src.On("NativeIndices").Return(true)
	src.On("QueryHandles").Return(entries, nil)
	src.On("CurrentPid").Return(selfPid)
	src.On("Close", mock.Anything).Return()
	src.On("Duplicate", uint32(100), uint32(0x4), uint32(0), DuplicateSameAccess).Return(uintptr(0x4), nil)
	src.On("Duplicate", uint32(100), uint32(0x8), uint32(0), DuplicateSameAccess).Return(uintptr(0x8), nil)
	src.On("Duplicate", uint32(4), uint32(0xC), uint32(0), DuplicateSameAccess).Return(uintptr(0), errors.New("access denied"))
	src.On("ObjectName", uintptr(0x4), time.Duration(0)).Return(`\BaseNamedObjects\Beta`, nil)
	src.On("ObjectName", uintptr(0x8), 2*time.Millisecond).Return("", kerrors.ErrNameTimeout)

	m := NewManager(src, WithNameTimeout(2*time.Millisecond))
	require.NoError(t, m.Enumerate(Filter{Objects: true}))

	handles := m.Handles()
	require.Len(t, handles, 3)
	assert.Equal(t, `\BaseNamedObjects\Beta`, handles[0].Name)
	assert.Empty(t, handles[1].Name)
	assert.Empty(t, handles[2].Name)
	src.AssertNumberOfCalls(t, "Close", 2)
}

func TestEnumerateUnknownType(t *testing.T) {
	m := NewManager(newSourceMock(sampleEntries()))
	require.NoError(t, m.Enumerate(Filter{}))

	err := m.Enumerate(Filter{Type: "Evnt"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrUnknownType))
	// the previous snapshot survives
	assert.Len(t, m.Handles(), 6)
}

func TestEnumerateSkipsUnknownTypeIndex(t *testing.T) {
	entries := append(sampleEntries(), Entry{Object: 0xF0, Pid: 500, Value: 0x1C, TypeIndex: 99})
	m := NewManager(newSourceMock(entries))

	require.NoError(t, m.Enumerate(Filter{}))
	assert.Len(t, m.Handles(), 6)
}

func TestEnumerateQueryError(t *testing.T) {
	src := new(SourceMock)
	src.On("QueryTypes").Return(sampleTypes(), nil)
	src.On("NativeIndices").Return(true)
	src.On("QueryHandles").Return(nil, errors.New("insufficient resources"))

	m := NewManager(src)
	require.Error(t, m.Enumerate(Filter{}))
	assert.Empty(t, m.Handles())
}

func TestResolveName(t *testing.T) {
	src := newSourceMock(sampleEntries())
	m := NewManager(src)
	require.NoError(t, m.Enumerate(Filter{}))

	h := m.Handles()[0]
	assert.Equal(t, `\BaseNamedObjects\Alpha`, m.ResolveName(h))
	assert.True(t, h.NameResolved)
	assert.Equal(t, `\BaseNamedObjects\Alpha`, h.Link.Name)

	// the cached name is returned on subsequent calls
	m.ResolveName(h)
	src.AssertNumberOfCalls(t, "ObjectName", 1)

	p := m.Handles()[3]
	assert.Empty(t, m.ResolveName(p))
	assert.True(t, p.NameResolved)
}

func TestCloseHandle(t *testing.T) {
	src := newSourceMock(sampleEntries())
	src.On("Duplicate", uint32(100), uint32(0x4), uint32(0), DuplicateCloseSource|DuplicateSameAccess).Return(uintptr(0x99), nil)
	m := NewManager(src)
	require.NoError(t, m.Enumerate(Filter{}))

	require.NoError(t, m.CloseHandle(m.Handles()[0]))
	src.AssertCalled(t, "Close", uintptr(0x99))

	assert.Equal(t, []uint32{0x8, 0xC, 0x10, 0x14, 0x18}, values(m.Handles()))
	alpha, ok := m.ObjectByAddress(0xA0)
	require.True(t, ok)
	assert.Equal(t, 1, alpha.HandleCount)
	assert.Same(t, alpha, m.Handles()[0].Link)
	assert.Same(t, alpha, m.Handles()[0].ObjectRef())
	assert.Len(t, m.Objects(), 5)

	src.On("Duplicate", uint32(200), uint32(0x8), uint32(0), DuplicateCloseSource|DuplicateSameAccess).Return(uintptr(0x98), nil)
	require.NoError(t, m.CloseHandle(m.Handles()[0]))
	_, ok = m.ObjectByAddress(0xA0)
	assert.False(t, ok)
	assert.Len(t, m.Objects(), 4)
}

func TestCloseHandleFailure(t *testing.T) {
	src := newSourceMock(sampleEntries())
	src.On("Duplicate", uint32(300), uint32(0x10), uint32(0), DuplicateCloseSource|DuplicateSameAccess).Return(uintptr(0), errors.New("access denied"))
	m := NewManager(src)
	require.NoError(t, m.Enumerate(Filter{}))

	require.Error(t, m.CloseHandle(m.Handles()[3]))
	assert.Len(t, m.Handles(), 6)
}

func TestDupHandleAndObject(t *testing.T) {
	src := newSourceMock(sampleEntries())
	src.On("Duplicate", uint32(100), uint32(0x4), uint32(0x1F0003), uint32(0)).Return(uintptr(0), errors.New("access denied"))
	src.On("Duplicate", uint32(200), uint32(0x8), uint32(0x1F0003), uint32(0)).Return(uintptr(0x77), nil)
	src.On("Duplicate", uint32(100), uint32(0xC), uint32(0x80), uint32(0)).Return(uintptr(0x78), nil)
	m := NewManager(src)
	require.NoError(t, m.Enumerate(Filter{}))

	_, err := m.DupHandle(m.Handles()[0], 0, 0)
	require.Error(t, err)

	dup, err := m.DupHandle(m.Handles()[2], 0x80, 0)
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x78), dup)

	alpha, ok := m.ObjectByAddress(0xA0)
	require.True(t, ok)
	dup, err = m.DupObject(alpha)
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x77), dup)

	_, err = m.DupObject(&Object{Address: 0x1, TypeIndex: 16})
	require.Error(t, err)
}

type addressOpenerSource struct {
	*SourceMock
	opened map[uint64]uintptr
}

func (s addressOpenerSource) OpenByAddress(addr uint64, access uint32) uintptr {
	return s.opened[addr]
}

func TestDupObjectByAddress(t *testing.T) {
	src := newSourceMock(sampleEntries())
	src.On("Duplicate", uint32(100), uint32(0x4), uint32(0x1F0003), uint32(0)).Return(uintptr(0), errors.New("access denied"))
	src.On("Duplicate", uint32(200), uint32(0x8), uint32(0x1F0003), uint32(0)).Return(uintptr(0), errors.New("access denied"))
	m := NewManager(addressOpenerSource{SourceMock: src, opened: map[uint64]uintptr{0xA0: 0x99}})
	require.NoError(t, m.Enumerate(Filter{}))

	alpha, ok := m.ObjectByAddress(0xA0)
	require.True(t, ok)
	dup, err := m.DupObject(alpha)
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x99), dup)

	// neither the handles nor the address open the object
	_, err = m.DupObject(&Object{Address: 0xB1, TypeIndex: 16})
	require.Error(t, err)
	_, err = m.DupObject(&Object{TypeIndex: 16})
	require.Error(t, err)
}

func TestOpenObject(t *testing.T) {
	src := newSourceMock(nil)
	src.On("OpenObject", `\BaseNamedObjects\Alpha`, Event, MaximumAllowed).Return(uintptr(0x50), nil)
	m := NewManager(src)

	h, err := m.OpenObject(`\BaseNamedObjects\Alpha`, Event, 0)
	require.NoError(t, err)
	assert.Equal(t, uintptr(0x50), h)

	_, err = m.OpenObject(`\Process`, Process, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrUnknownType))
}

func TestEnumDirectory(t *testing.T) {
	src := newSourceMock(nil)
	src.On("EnumDirectory", `\GLOBAL??`).Return([]DirEntry{
		{Name: "C:", TypeName: SymbolicLink},
		{Name: "Broken", TypeName: SymbolicLink},
		{Name: "Volume", TypeName: Device},
	}, nil)
	src.On("SymbolicLinkTarget", `\GLOBAL??\C:`).Return(`\Device\HarddiskVolume1`, nil)
	src.On("SymbolicLinkTarget", `\GLOBAL??\Broken`).Return("", errors.New("not found"))
	src.On("EnumDirectory", `\`).Return([]DirEntry{{Name: "Sessions", TypeName: Directory}}, nil)
	m := NewManager(src)

	entries, err := m.EnumDirectory(`\GLOBAL??`)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, `\Device\HarddiskVolume1`, entries[0].Target)
	assert.Empty(t, entries[1].Target)
	assert.Empty(t, entries[2].Target)

	entries, err = m.EnumDirectory("")
	require.NoError(t, err)
	assert.Equal(t, "Sessions", entries[0].Name)
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, `\Sessions`, JoinPath(`\`, "Sessions"))
	assert.Equal(t, `\GLOBAL??\C:`, JoinPath(`\GLOBAL??`, "C:"))
}

func TestStats(t *testing.T) {
	m := NewManager(newSourceMock(sampleEntries()))
	require.NoError(t, m.Enumerate(Filter{}))
	assert.Equal(t, uint64(1435), m.Stats().TotalHandles)
}

func TestDetails(t *testing.T) {
	src := newSourceMock(sampleEntries())
	m := NewManager(src)
	require.NoError(t, m.Enumerate(Filter{Type: Event}))

	calls := 0
	f := NewFormatters(m.Registry(), map[string]Formatter{
		Event: func(dup uintptr, h *Handle) string {
			calls++
			assert.Equal(t, uintptr(h.Value), dup)
			return "Notification, Signaled"
		},
	})
	cache := NewDetailsCache(time.Minute)

	h := m.Handles()[0]
	assert.Equal(t, "Notification, Signaled", m.Details(h, f, cache))
	assert.Equal(t, "Notification, Signaled", m.Details(h, f, cache))
	assert.Equal(t, 1, calls)

	// types without the formatter are never duplicated
	mutant := &Handle{Pid: 200, Value: 0x18, TypeIndex: 17}
	assert.Empty(t, m.Details(mutant, f, cache))
	src.AssertNotCalled(t, "Duplicate", uint32(200), uint32(0x18), uint32(0), DuplicateSameAccess)
}
