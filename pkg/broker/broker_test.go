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

package broker

import (
	"testing"

	"github.com/rabbitstack/objexp/pkg/util/ntstatus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var caller = Caller{Pid: 4012, Image: `C:\Tools\objexp.exe`}

func TestControlCodes(t *testing.T) {
	assert.Equal(t, uint32(0x80002000), IoctlOpenObject)
	assert.Equal(t, uint32(0x80002004), IoctlDupHandle)
	assert.Equal(t, uint32(0x80002010), IoctlGetVersion)
	assert.Equal(t, uint32(0x80002024), IoctlOpenDesktopByName)
}

func TestDispatchGetVersion(t *testing.T) {
	b := New(new(KernelMock))

	out, status := b.Dispatch(caller, IoctlGetVersion, nil, VersionSize)
	require.Equal(t, ntstatus.Success, status)
	v, err := UnmarshalVersion(out)
	require.NoError(t, err)
	assert.Equal(t, ProtocolVersion, v)

	_, status = b.Dispatch(caller, IoctlGetVersion, nil, 1)
	assert.Equal(t, ntstatus.BufferTooSmall, status)

	_, status = b.Dispatch(caller, IoctlGetVersion, nil, 0)
	assert.Equal(t, ntstatus.InvalidParameter, status)
}

func TestDispatchSizeContracts(t *testing.T) {
	var tests = []struct {
		name   string
		code   uint32
		in     []byte
		outLen uint32
		status ntstatus.Status
	}{
		{"open object no buffer", IoctlOpenObject, nil, 0, ntstatus.InvalidParameter},
		{"open object short input", IoctlOpenObject, make([]byte, OpenObjectSize-1), HandleSize, ntstatus.BufferTooSmall},
		{"open object short output", IoctlOpenObject, make([]byte, OpenObjectSize), HandleSize - 1, ntstatus.BufferTooSmall},
		{"dup handle no buffer", IoctlDupHandle, nil, 0, ntstatus.InvalidParameter},
		{"dup handle short input", IoctlDupHandle, make([]byte, 8), HandleSize, ntstatus.BufferTooSmall},
		{"dup handle short output", IoctlDupHandle, make([]byte, DupHandleSize), 4, ntstatus.BufferTooSmall},
		{"open process short input", IoctlOpenProcess, make([]byte, 4), HandleSize, ntstatus.BufferTooSmall},
		{"open thread short output", IoctlOpenThread, make([]byte, OpenProcessThreadSize), 0, ntstatus.BufferTooSmall},
		{"object address short input", IoctlGetObjectAddress, make([]byte, 4), AddressSize, ntstatus.BufferTooSmall},
		{"object address short output", IoctlGetObjectAddress, make([]byte, HandleSize), 4, ntstatus.BufferTooSmall},
		{"open event short output", IoctlOpenEventByName, []byte{'a', 0, 0, 0}, 4, ntstatus.BufferTooSmall},
		{"open event no buffer", IoctlOpenEventByName, nil, 0, ntstatus.InvalidParameter},
		{"open event empty name", IoctlOpenEventByName, nil, HandleSize, ntstatus.InvalidParameter},
		{"open event unterminated", IoctlOpenEventByName, []byte{'a', 0, 'b', 0}, HandleSize, ntstatus.InvalidParameter},
		{"open job odd length", IoctlOpenJobByName, []byte{'a', 0, 0}, HandleSize, ntstatus.InvalidParameter},
		{"unknown code", ctlCode(0x8ff), make([]byte, 16), 16, ntstatus.InvalidDeviceRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := new(KernelMock)
			b := New(k)
			out, status := b.Dispatch(caller, tt.code, tt.in, tt.outLen)
			assert.Equal(t, tt.status, status)
			assert.Nil(t, out)
			// size violations never reach the kernel
			k.AssertExpectations(t)
			assert.Empty(t, k.Calls)
		})
	}
}

func TestDispatchOpenObject(t *testing.T) {
	k := new(KernelMock)
	b := New(k)

	k.On("ReferenceObjectByAddress", uint64(0xffffb30c4ad1e080), uint32(0x1f0003)).Return(nil)
	k.On("OpenObjectByAddress", caller, uint64(0xffffb30c4ad1e080), uint32(0x1f0003)).Return(uint64(0x4c4), nil)
	k.On("DereferenceObject", uint64(0xffffb30c4ad1e080)).Return()

	in := OpenObjectData{Address: 0xffffb30c4ad1e080, Access: 0x1f0003}.Marshal()
	out, status := b.Dispatch(caller, IoctlOpenObject, in, HandleSize)
	require.Equal(t, ntstatus.Success, status)
	h, err := UnmarshalHandle(out)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x4c4), h)
	k.AssertExpectations(t)
}

func TestDispatchOpenObjectInvalidAddress(t *testing.T) {
	k := new(KernelMock)
	b := New(k)

	k.On("ReferenceObjectByAddress", uint64(0xdead), uint32(0)).Return(ntstatus.InvalidParameter)

	_, status := b.Dispatch(caller, IoctlOpenObject, OpenObjectData{Address: 0xdead}.Marshal(), HandleSize)
	assert.Equal(t, ntstatus.InvalidParameter, status)
	k.AssertNotCalled(t, "OpenObjectByAddress", mock.Anything, mock.Anything, mock.Anything)
	k.AssertNotCalled(t, "DereferenceObject", mock.Anything)
}

func TestDispatchOpenObjectReleasesReference(t *testing.T) {
	k := new(KernelMock)
	b := New(k)

	k.On("ReferenceObjectByAddress", uint64(0xa0), uint32(1)).Return(nil)
	k.On("OpenObjectByAddress", caller, uint64(0xa0), uint32(1)).Return(uint64(0), ntstatus.AccessDenied)
	k.On("DereferenceObject", uint64(0xa0)).Return()

	_, status := b.Dispatch(caller, IoctlOpenObject, OpenObjectData{Address: 0xa0, Access: 1}.Marshal(), HandleSize)
	assert.Equal(t, ntstatus.AccessDenied, status)
	k.AssertExpectations(t)
}

func TestDispatchDupHandle(t *testing.T) {
	k := new(KernelMock)
	b := New(k)

	k.On("OpenProcess", uint32(788), uint32(processDupHandle)).Return(uint64(0x90), nil)
	k.On("DuplicateObject", caller, uint64(0x90), uint32(0x1a4), uint32(0), uint32(2)).Return(uint64(0x6f8), nil)
	k.On("CloseHandle", uint64(0x90)).Return(nil)

	in := DupHandleData{Handle: 0x1a4, SourcePid: 788, Flags: 2}.Marshal()
	out, status := b.Dispatch(caller, IoctlDupHandle, in, HandleSize)
	require.Equal(t, ntstatus.Success, status)
	h, err := UnmarshalHandle(out)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x6f8), h)
	k.AssertExpectations(t)
}

func TestDispatchDupHandleProtectedProcess(t *testing.T) {
	k := new(KernelMock)
	b := New(k)

	k.On("OpenProcess", uint32(4), uint32(processDupHandle)).Return(uint64(0), ntstatus.AccessDenied)

	_, status := b.Dispatch(caller, IoctlDupHandle, DupHandleData{Handle: 0x10, SourcePid: 4}.Marshal(), HandleSize)
	assert.Equal(t, ntstatus.AccessDenied, status)
	k.AssertNotCalled(t, "DuplicateObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatchDupHandleClosesProcessOnFailure(t *testing.T) {
	k := new(KernelMock)
	b := New(k)

	k.On("OpenProcess", uint32(788), uint32(processDupHandle)).Return(uint64(0x90), nil)
	k.On("DuplicateObject", caller, uint64(0x90), uint32(0x1a4), uint32(0), uint32(0)).Return(uint64(0), ntstatus.InvalidHandle)
	k.On("CloseHandle", uint64(0x90)).Return(nil)

	_, status := b.Dispatch(caller, IoctlDupHandle, DupHandleData{Handle: 0x1a4, SourcePid: 788}.Marshal(), HandleSize)
	assert.Equal(t, ntstatus.InvalidHandle, status)
	k.AssertExpectations(t)
}

func TestDispatchOpenByName(t *testing.T) {
	var tests = []struct {
		code uint32
		kind ObjectKind
	}{
		{IoctlOpenEventByName, KindEvent},
		{IoctlOpenSemaphoreByName, KindSemaphore},
		{IoctlOpenJobByName, KindJob},
		{IoctlOpenDesktopByName, KindDesktop},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			k := new(KernelMock)
			b := New(k)
			k.On("OpenObjectByName", caller, `\BaseNamedObjects\Foo`, tt.kind, uint32(genericRead)).Return(uint64(0x2c), nil)

			in, err := MarshalName(`\BaseNamedObjects\Foo`)
			require.NoError(t, err)
			out, status := b.Dispatch(caller, tt.code, in, HandleSize)
			require.Equal(t, ntstatus.Success, status)
			h, err := UnmarshalHandle(out)
			require.NoError(t, err)
			assert.Equal(t, uint64(0x2c), h)
			k.AssertExpectations(t)
		})
	}
}

func TestDispatchOpenProcessThread(t *testing.T) {
	k := new(KernelMock)
	b := New(k)

	k.On("OpenProcessByID", caller, uint32(1024), uint32(0x1000)).Return(uint64(0x50), nil)
	k.On("OpenThreadByID", caller, uint32(2048), uint32(0x40)).Return(uint64(0), ntstatus.InvalidCid)

	out, status := b.Dispatch(caller, IoctlOpenProcess, OpenProcessThreadData{ID: 1024, AccessMask: 0x1000}.Marshal(), HandleSize)
	require.Equal(t, ntstatus.Success, status)
	h, _ := UnmarshalHandle(out)
	assert.Equal(t, uint64(0x50), h)

	out, status = b.Dispatch(caller, IoctlOpenThread, OpenProcessThreadData{ID: 2048, AccessMask: 0x40}.Marshal(), HandleSize)
	assert.Equal(t, ntstatus.InvalidCid, status)
	assert.Nil(t, out)
	k.AssertExpectations(t)
}

func TestDispatchGetObjectAddress(t *testing.T) {
	k := new(KernelMock)
	b := New(k)

	k.On("ObjectAddressFromHandle", caller, uint64(0x1c8)).Return(uint64(0xffffe00012345670), nil)

	out, status := b.Dispatch(caller, IoctlGetObjectAddress, MarshalHandle(0x1c8), AddressSize)
	require.Equal(t, ntstatus.Success, status)
	require.Len(t, out, AddressSize)
	assert.Equal(t, uint64(0xffffe00012345670), le.Uint64(out))
}

func TestDispatchUnclassifiedError(t *testing.T) {
	k := new(KernelMock)
	b := New(k)

	k.On("OpenProcessByID", caller, uint32(1), uint32(1)).Return(uint64(0), assert.AnError)

	_, status := b.Dispatch(caller, IoctlOpenProcess, OpenProcessThreadData{ID: 1, AccessMask: 1}.Marshal(), HandleSize)
	assert.Equal(t, ntstatus.Unsuccessful, status)
}
