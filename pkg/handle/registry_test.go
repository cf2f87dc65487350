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
	"testing"

	kerrors "github.com/rabbitstack/objexp/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTypes() []ObjectType {
	return []ObjectType{
		{Index: 7, Name: Process, ValidAccessMask: 0x1FFFFF, TotalHandles: 120, TotalObjects: 60, PeakHandles: 130, PeakObjects: 65},
		{Index: 8, Name: Thread, ValidAccessMask: 0x1FFFFF, TotalHandles: 900, TotalObjects: 800, PeakHandles: 950, PeakObjects: 820},
		{Index: 16, Name: Event, ValidAccessMask: 0x1F0003, TotalHandles: 40, TotalObjects: 30, PeakHandles: 45, PeakObjects: 31},
		{Index: 17, Name: Mutant, ValidAccessMask: 0x1F0001, TotalHandles: 5, TotalObjects: 4, PeakHandles: 6, PeakObjects: 4},
		{Index: 37, Name: File, ValidAccessMask: 0x1F01FF, TotalHandles: 300, TotalObjects: 290, PeakHandles: 310, PeakObjects: 295},
		{Index: 44, Name: Key, ValidAccessMask: 0xF003F, TotalHandles: 70, TotalObjects: 70, PeakHandles: 70, PeakObjects: 70},
	}
}

func TestRegistryPopulate(t *testing.T) {
	src := new(SourceMock)
	src.On("QueryTypes").Return(sampleTypes(), nil)
	src.On("NativeIndices").Return(true)

	r := NewRegistry(src)
	require.NoError(t, r.Refresh())

	require.Len(t, r.Types(), 6)
	typ, err := r.ByIndex(16)
	require.NoError(t, err)
	assert.Equal(t, Event, typ.Name)
	assert.Empty(t, r.Changes())

	_, err = r.ByIndex(99)
	require.Error(t, err)
	assert.True(t, kerrors.IsUnknownTypeIndex(err))

	typ, err = r.ByName("fILE")
	require.NoError(t, err)
	assert.Equal(t, uint16(37), typ.Index)
}

func TestRegistrySyntheticIndices(t *testing.T) {
	src := new(SourceMock)
	src.On("QueryTypes").Return(sampleTypes(), nil)
	src.On("NativeIndices").Return(false)

	r := NewRegistry(src)
	require.NoError(t, r.Refresh())

	for i, typ := range r.Types() {
		assert.Equal(t, uint16(i), typ.Index)
	}
	typ, err := r.ByName(Event)
	require.NoError(t, err)
	assert.Equal(t, uint16(2), typ.Index)

	require.NoError(t, r.Refresh())
	typ, err = r.ByIndex(2)
	require.NoError(t, err)
	assert.Equal(t, Event, typ.Name)
}

func TestRegistryRefreshChanges(t *testing.T) {
	src := new(SourceMock)
	next := sampleTypes()
	next[2].TotalHandles = 50
	next[2].PeakHandles = 52
	next[4].TotalObjects = 280
	src.On("QueryTypes").Return(sampleTypes(), nil).Once()
	src.On("QueryTypes").Return(next, nil).Once()
	src.On("NativeIndices").Return(true)

	r := NewRegistry(src)
	require.NoError(t, r.Refresh())
	before, err := r.ByIndex(16)
	require.NoError(t, err)

	require.NoError(t, r.Refresh())

	changes := r.Changes()
	require.Len(t, changes, 3)
	assert.Equal(t, Event, changes[0].Type.Name)
	assert.Equal(t, TotalHandlesChange, changes[0].Kind)
	assert.Equal(t, int32(10), changes[0].Delta)
	assert.Equal(t, PeakHandlesChange, changes[1].Kind)
	assert.Equal(t, int32(7), changes[1].Delta)
	assert.Equal(t, File, changes[2].Type.Name)
	assert.Equal(t, TotalObjectsChange, changes[2].Kind)
	assert.Equal(t, int32(-10), changes[2].Delta)

	after, err := r.ByIndex(16)
	require.NoError(t, err)
	assert.Equal(t, uint32(50), after.TotalHandles)
	// the previous snapshot is never mutated
	assert.Equal(t, uint32(40), before.TotalHandles)
}

func TestRegistryTypeSetChanged(t *testing.T) {
	var tests = []struct {
		name  string
		types func() []ObjectType
	}{
		{
			"count mismatch",
			func() []ObjectType { return sampleTypes()[:5] },
		},
		{
			"unseen index",
			func() []ObjectType {
				types := sampleTypes()
				types[5].Index = 45
				return types
			},
		},
		{
			"renamed type",
			func() []ObjectType {
				types := sampleTypes()
				types[3].Name = "Mutex"
				return types
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := new(SourceMock)
			src.On("QueryTypes").Return(sampleTypes(), nil).Once()
			src.On("QueryTypes").Return(tt.types(), nil).Once()
			src.On("NativeIndices").Return(true)

			r := NewRegistry(src)
			require.NoError(t, r.Refresh())
			err := r.Refresh()
			require.Error(t, err)
			assert.True(t, errors.Is(err, kerrors.ErrTypeSetChanged))
			// identity is retained
			assert.Len(t, r.Types(), 6)
			typ, err := r.ByIndex(44)
			require.NoError(t, err)
			assert.Equal(t, Key, typ.Name)
		})
	}
}

func TestRegistryByNameSuggestions(t *testing.T) {
	src := new(SourceMock)
	src.On("QueryTypes").Return(sampleTypes(), nil)
	src.On("NativeIndices").Return(true)

	r := NewRegistry(src)
	require.NoError(t, r.Refresh())

	_, err := r.ByName("evnt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, kerrors.ErrUnknownType))
	var e kerrors.ErrUnknownTypeName
	require.True(t, errors.As(err, &e))
	assert.Equal(t, []string{Event}, e.Suggestions)

	_, err = r.ByName("Qwerty")
	require.True(t, errors.As(err, &e))
	assert.Empty(t, e.Suggestions)
}

func TestRegistryTotalsAndClose(t *testing.T) {
	src := new(SourceMock)
	src.On("QueryTypes").Return(sampleTypes(), nil)
	src.On("NativeIndices").Return(true)

	r := NewRegistry(src)
	require.NoError(t, r.Refresh())

	totals := r.Totals()
	assert.Equal(t, 6, totals.Types)
	assert.Equal(t, uint64(1435), totals.TotalHandles)
	assert.Equal(t, uint64(1254), totals.TotalObjects)

	r.Close()
	assert.Empty(t, r.Types())
	_, err := r.ByIndex(16)
	require.Error(t, err)
}

func TestRegistryQueryError(t *testing.T) {
	src := new(SourceMock)
	src.On("QueryTypes").Return(nil, errors.New("access denied"))

	r := NewRegistry(src)
	require.Error(t, r.Refresh())
	assert.Empty(t, r.Types())
}
