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
	"errors"

	kerrors "github.com/rabbitstack/objexp/pkg/errors"
	"github.com/rabbitstack/objexp/pkg/util/ntstatus"
	"golang.org/x/sys/windows"
)

// DeviceTransport talks to the kernel-mode broker through its control device.
type DeviceTransport struct {
	dev windows.Handle
}

// OpenDevice opens the control device. The driver refuses to open the device
// for unrecognized client images.
func OpenDevice(path string) (*DeviceTransport, error) {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}
	dev, err := windows.CreateFile(
		name,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
			return nil, kerrors.ErrChannelDenied
		}
		return nil, kerrors.ErrBrokerUnavailable(path, err)
	}
	return &DeviceTransport{dev: dev}, nil
}

// Control issues the device I/O control request. The output buffer is sized
// to the requested output length.
func (t *DeviceTransport) Control(code uint32, in []byte, outLen uint32) ([]byte, error) {
	var (
		inp *byte
		out []byte
		op  *byte
	)
	if len(in) > 0 {
		inp = &in[0]
	}
	if outLen > 0 {
		out = make([]byte, outLen)
		op = &out[0]
	}
	var n uint32
	err := windows.DeviceIoControl(t.dev, code, inp, uint32(len(in)), op, outLen, &n, nil)
	if err != nil {
		return nil, &StatusError{Status: statusFromErrno(err)}
	}
	return out[:n], nil
}

// Close closes the device handle.
func (t *DeviceTransport) Close() error { return windows.CloseHandle(t.dev) }

// statusFromErrno maps the Win32 error the I/O manager derived from the
// driver status back to the status code.
func statusFromErrno(err error) ntstatus.Status {
	var errno windows.Errno
	if !errors.As(err, &errno) {
		return ntstatus.Unsuccessful
	}
	switch errno {
	case windows.ERROR_ACCESS_DENIED:
		return ntstatus.AccessDenied
	case windows.ERROR_INSUFFICIENT_BUFFER:
		return ntstatus.BufferTooSmall
	case windows.ERROR_INVALID_PARAMETER:
		return ntstatus.InvalidParameter
	case windows.ERROR_INVALID_FUNCTION:
		return ntstatus.InvalidDeviceRequest
	case windows.ERROR_INVALID_HANDLE:
		return ntstatus.InvalidHandle
	case windows.ERROR_FILE_NOT_FOUND:
		return ntstatus.ObjectNameNotFound
	case windows.ERROR_PATH_NOT_FOUND:
		return ntstatus.ObjectPathNotFound
	case windows.ERROR_NOT_FOUND:
		return ntstatus.NotFound
	case windows.ERROR_NOT_SUPPORTED:
		return ntstatus.NotSupported
	}
	return ntstatus.Unsuccessful
}
