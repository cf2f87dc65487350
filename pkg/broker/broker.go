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

// Package broker implements the privileged side of the object explorer. The
// broker exposes a fixed set of control operations that open objects by kernel
// address, duplicate handles across process boundaries and resolve handles to
// object addresses. Each operation is a fixed-size request answered by a
// fixed-size response. The broker holds no state between requests.
package broker

import (
	"expvar"

	"github.com/rabbitstack/objexp/pkg/util/ntstatus"
	log "github.com/sirupsen/logrus"
)

const (
	processDupHandle = 0x0040
	genericRead      = 0x80000000
)

var (
	requestCount = expvar.NewMap("broker.requests")
	failureCount = expvar.NewMap("broker.failures")
)

// Broker dispatches control requests to the kernel back-end.
type Broker struct {
	kernel Kernel
}

// New creates the broker on top of the kernel back-end.
func New(kernel Kernel) *Broker {
	return &Broker{kernel: kernel}
}

// Dispatch executes the control operation. The input buffer and the output
// length are validated against the operation size contract before the
// payload is decoded. Unknown control codes yield STATUS_INVALID_DEVICE_REQUEST.
func (b *Broker) Dispatch(c Caller, code uint32, in []byte, outLen uint32) ([]byte, ntstatus.Status) {
	out, status := b.dispatch(c, code, in, outLen)
	op := opName(code)
	requestCount.Add(op, 1)
	if !status.IsSuccess() {
		failureCount.Add(op, 1)
		log.WithFields(log.Fields{"op": op, "pid": c.Pid, "status": status.Name()}).Debug("broker operation failed")
	}
	return out, status
}

func (b *Broker) dispatch(c Caller, code uint32, in []byte, outLen uint32) ([]byte, ntstatus.Status) {
	// there's no system buffer when neither input nor output is given
	hasBuffer := len(in) > 0 || outLen > 0

	switch code {
	case IoctlOpenObject:
		if !hasBuffer {
			return nil, ntstatus.InvalidParameter
		}
		if len(in) < OpenObjectSize || outLen < HandleSize {
			return nil, ntstatus.BufferTooSmall
		}
		data := unmarshalOpenObject(in)
		if err := b.kernel.ReferenceObjectByAddress(data.Address, data.Access); err != nil {
			return nil, statusOf(err)
		}
		defer b.kernel.DereferenceObject(data.Address)
		h, err := b.kernel.OpenObjectByAddress(c, data.Address, data.Access)
		if err != nil {
			return nil, statusOf(err)
		}
		return MarshalHandle(h), ntstatus.Success

	case IoctlDupHandle:
		if !hasBuffer {
			return nil, ntstatus.InvalidParameter
		}
		if len(in) < DupHandleSize || outLen < HandleSize {
			return nil, ntstatus.BufferTooSmall
		}
		data := unmarshalDupHandle(in)
		proc, err := b.kernel.OpenProcess(data.SourcePid, processDupHandle)
		if err != nil {
			log.WithField("pid", data.SourcePid).Debugf("failed to open process: %v", err)
			return nil, statusOf(err)
		}
		h, err := b.kernel.DuplicateObject(c, proc, data.Handle, data.AccessMask, data.Flags)
		_ = b.kernel.CloseHandle(proc)
		if err != nil {
			return nil, statusOf(err)
		}
		return MarshalHandle(h), ntstatus.Success

	case IoctlOpenEventByName, IoctlOpenSemaphoreByName, IoctlOpenJobByName, IoctlOpenDesktopByName:
		kind := namedKinds[code]
		if !hasBuffer {
			return nil, ntstatus.InvalidParameter
		}
		if outLen < HandleSize {
			return nil, ntstatus.BufferTooSmall
		}
		path, ok := unmarshalName(in)
		if !ok {
			return nil, ntstatus.InvalidParameter
		}
		h, err := b.kernel.OpenObjectByName(c, path, kind, genericRead)
		if err != nil {
			return nil, statusOf(err)
		}
		return MarshalHandle(h), ntstatus.Success

	case IoctlOpenProcess, IoctlOpenThread:
		if !hasBuffer {
			return nil, ntstatus.InvalidParameter
		}
		if len(in) < OpenProcessThreadSize || outLen < HandleSize {
			return nil, ntstatus.BufferTooSmall
		}
		data := unmarshalOpenProcessThread(in)
		var (
			h   uint64
			err error
		)
		if code == IoctlOpenProcess {
			h, err = b.kernel.OpenProcessByID(c, data.ID, data.AccessMask)
		} else {
			h, err = b.kernel.OpenThreadByID(c, data.ID, data.AccessMask)
		}
		if err != nil {
			return nil, statusOf(err)
		}
		return MarshalHandle(h), ntstatus.Success

	case IoctlGetVersion:
		if !hasBuffer {
			return nil, ntstatus.InvalidParameter
		}
		if outLen < VersionSize {
			return nil, ntstatus.BufferTooSmall
		}
		out := make([]byte, VersionSize)
		le.PutUint16(out, ProtocolVersion)
		return out, ntstatus.Success

	case IoctlGetObjectAddress:
		if !hasBuffer {
			return nil, ntstatus.InvalidParameter
		}
		if len(in) < HandleSize || outLen < AddressSize {
			return nil, ntstatus.BufferTooSmall
		}
		addr, err := b.kernel.ObjectAddressFromHandle(c, le.Uint64(in))
		if err != nil {
			return nil, statusOf(err)
		}
		out := make([]byte, AddressSize)
		le.PutUint64(out, addr)
		return out, ntstatus.Success
	}

	return nil, ntstatus.InvalidDeviceRequest
}

func statusOf(err error) ntstatus.Status {
	if s, ok := ntstatus.FromError(err); ok && !s.IsSuccess() {
		return s
	}
	return ntstatus.Unsuccessful
}

func opName(code uint32) string {
	switch code {
	case IoctlOpenObject:
		return "OpenObject"
	case IoctlDupHandle:
		return "DupHandle"
	case IoctlOpenProcess:
		return "OpenProcess"
	case IoctlOpenThread:
		return "OpenThread"
	case IoctlGetVersion:
		return "GetVersion"
	case IoctlGetObjectAddress:
		return "GetObjectAddress"
	case IoctlOpenEventByName:
		return "OpenEventByName"
	case IoctlOpenSemaphoreByName:
		return "OpenSemaphoreByName"
	case IoctlOpenJobByName:
		return "OpenJobByName"
	case IoctlOpenDesktopByName:
		return "OpenDesktopByName"
	default:
		return "Unknown"
	}
}
