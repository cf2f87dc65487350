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

package common

import (
	"testing"
	"time"

	"github.com/rabbitstack/objexp/pkg/config"
	"github.com/rabbitstack/objexp/pkg/handle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEngine(t *testing.T) {
	src := new(handle.SourceMock)
	src.On("QueryTypes").Return([]handle.ObjectType{
		{Index: 16, Name: handle.Event, ValidAccessMask: 0x1F0003},
		{Index: 44, Name: handle.Key, ValidAccessMask: 0xF003F},
	}, nil)
	src.On("NativeIndices").Return(true)
	src.On("Duplicate", uint32(100), uint32(0x8), uint32(0), handle.DuplicateSameAccess).Return(uintptr(0x8), nil)
	src.On("Close", mock.Anything).Return()

	released := false
	c := config.NewWithOpts(config.WithEnumerate())
	eng := newEngine(c, src, new(handle.ProcessSourceMock), func() { released = true })
	require.NoError(t, eng.Manager.Registry().Refresh())

	key := &handle.Handle{Pid: 100, Value: 0x8, TypeIndex: 44, TypeName: handle.Key, Name: `\REGISTRY\MACHINE\SOFTWARE\Classes`}
	assert.Equal(t, `HKCR`, eng.Describe(key))
	assert.Equal(t, 1, eng.Details.Len())

	event := &handle.Handle{Pid: 100, Value: 0x4, TypeIndex: 16, TypeName: handle.Event}
	if !eng.Formatters().Has(16) {
		assert.Empty(t, eng.Describe(event))
	}

	tr := eng.Tracker(100, time.Second)
	assert.Equal(t, uint32(100), tr.Pid())

	eng.Close()
	assert.True(t, released)
	assert.Empty(t, eng.Manager.Registry().Types())
}
