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

package driver

import (
	"net"
	"testing"

	"github.com/rabbitstack/objexp/pkg/broker"
	kerrors "github.com/rabbitstack/objexp/pkg/errors"
	"github.com/rabbitstack/objexp/pkg/util/ntstatus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var caller = broker.Caller{Pid: 6120, Image: `C:\objexp\objexp.exe`}

func newTestClient(t *testing.T, k broker.Kernel, c broker.Caller) (*Client, error) {
	srv := broker.NewServer(broker.New(k), broker.NewGate(nil), 0, 0)
	t.Cleanup(func() { _ = srv.Close() })
	conn, server := net.Pipe()
	go func() { _ = srv.ServeConn(server, c) }()
	tr, err := NewConnTransport(conn)
	if err != nil {
		return nil, err
	}
	cl := NewClient(tr)
	t.Cleanup(func() { _ = cl.Close() })
	return cl, nil
}

func TestClientOperations(t *testing.T) {
	k := new(broker.KernelMock)
	c, err := newTestClient(t, k, caller)
	require.NoError(t, err)

	k.On("OpenProcess", uint32(720), uint32(0x40)).Return(uint64(0x88), nil)
	k.On("DuplicateObject", caller, uint64(0x88), uint32(0x3c), uint32(0), uint32(0)).Return(uint64(0x5e0), nil)
	k.On("CloseHandle", uint64(0x88)).Return(nil)
	k.On("ObjectAddressFromHandle", caller, uint64(0x5e0)).Return(uint64(0xffff9a0f11223340), nil)
	k.On("OpenObjectByName", caller, `\BaseNamedObjects\Ready`, broker.KindEvent, uint32(0x80000000)).Return(uint64(0x1f4), nil)
	k.On("OpenThreadByID", caller, uint32(3300), uint32(0x40)).Return(uint64(0x1f8), nil)

	h, err := c.DupHandle(0x3c, 720, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x5e0), h)

	addr, err := c.GetObjectAddress(h)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xffff9a0f11223340), addr)

	h, err = c.OpenEventByName(`\BaseNamedObjects\Ready`)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1f4), h)

	h, err = c.OpenThread(3300, 0x40)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1f8), h)

	v, err := c.GetVersion()
	require.NoError(t, err)
	assert.Equal(t, broker.ProtocolVersion, v)

	k.AssertExpectations(t)
}

func TestClientStatusErrors(t *testing.T) {
	k := new(broker.KernelMock)
	c, err := newTestClient(t, k, caller)
	require.NoError(t, err)

	k.On("OpenProcessByID", caller, uint32(4), uint32(0x1fffff)).Return(uint64(0), ntstatus.AccessDenied)
	k.On("OpenProcessByID", caller, uint32(99999), uint32(0x1000)).Return(uint64(0), ntstatus.InvalidCid)

	_, err = c.OpenProcess(4, 0x1fffff)
	require.Error(t, err)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "OpenProcess", se.Op)
	assert.True(t, IsAccessDenied(err))
	assert.False(t, IsNotFound(err))

	_, err = c.OpenProcess(99999, 0x1000)
	assert.True(t, IsNotFound(err))
	assert.Zero(t, c.TryOpenProcess(99999, 0x1000))

	// malformed requests are refused before reaching the kernel
	_, err = c.control("OpenObject", broker.IoctlOpenObject, []byte{1, 2}, broker.HandleSize)
	s, ok := ntstatus.FromError(err)
	require.True(t, ok)
	assert.Equal(t, ntstatus.BufferTooSmall, s)
}

func TestClientTryOpenObject(t *testing.T) {
	k := new(broker.KernelMock)
	c, err := newTestClient(t, k, caller)
	require.NoError(t, err)

	k.On("ReferenceObjectByAddress", uint64(0x10), uint32(0)).Return(ntstatus.InvalidParameter)

	assert.Zero(t, c.TryOpenObject(0x10, 0))
}

func TestChannelDenied(t *testing.T) {
	_, err := newTestClient(t, new(broker.KernelMock), broker.Caller{Pid: 1, Image: `C:\evil.exe`})
	require.ErrorIs(t, err, kerrors.ErrChannelDenied)
}

func TestClosedClient(t *testing.T) {
	c, err := newTestClient(t, new(broker.KernelMock), caller)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.GetVersion()
	assert.Error(t, err)
}

type versionTransport struct {
	version uint16
	closed  *bool
}

func (t versionTransport) Control(code uint32, in []byte, outLen uint32) ([]byte, error) {
	if code != broker.IoctlGetVersion {
		return nil, &StatusError{Status: ntstatus.InvalidDeviceRequest}
	}
	return []byte{byte(t.version), byte(t.version >> 8)}, nil
}

func (t versionTransport) Close() error {
	if t.closed != nil {
		*t.closed = true
	}
	return nil
}

func TestNegotiate(t *testing.T) {
	var tests = []struct {
		version uint16
		want    string
		ok      bool
	}{
		{0x0100, "1.0.0", true},
		{0x0103, "1.3.0", true},
		{0x0200, "2.0.0", false},
		{0x0009, "0.9.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			c := NewClient(versionTransport{version: tt.version})
			ver, err := c.Negotiate()
			require.NotNil(t, ver)
			assert.Equal(t, tt.want, ver.String())
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, kerrors.ErrUnsupportedProtocol)
			}
		})
	}
}

func TestConnectRejectsUnsupportedProtocol(t *testing.T) {
	var closed bool
	c, err := connect(versionTransport{version: 0x0200, closed: &closed})
	require.ErrorIs(t, err, kerrors.ErrUnsupportedProtocol)
	assert.Nil(t, c)
	assert.True(t, closed)

	closed = false
	c, err = connect(versionTransport{version: 0x0101, closed: &closed})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.False(t, closed)
	require.NoError(t, c.Close())
	assert.True(t, closed)
}
