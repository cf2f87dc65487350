//go:build windows

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
	"path"
	"strings"
	"sync"

	"github.com/rabbitstack/objexp/pkg/sys"
	"github.com/rabbitstack/objexp/pkg/util/ntstatus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

type objectRef struct {
	pid    uint32
	handle uint32
	count  int
}

// UserKernel realizes the broker primitives in user mode. The process must
// hold the SeDebugPrivilege to open arbitrary processes. Objects are located
// by their address in the system handle table, and all produced handles are
// duplicated into the caller's process.
type UserKernel struct {
	bufferSize uint32

	mu   sync.Mutex
	refs map[uint64]*objectRef
}

// NewKernel creates the user-mode kernel back-end.
func NewKernel(bufferSize uint32) *UserKernel {
	if err := sys.SetDebugPrivilege(); err != nil {
		log.Warnf("unable to enable debug privilege: %v", err)
	}
	return &UserKernel{bufferSize: bufferSize, refs: make(map[uint64]*objectRef)}
}

func (k *UserKernel) lookup(match func(e *sys.SystemHandleTableEntryInfoEx) bool) (sys.SystemHandleTableEntryInfoEx, error) {
	info, err := sys.QuerySystemHandles(k.bufferSize)
	if err != nil {
		return sys.SystemHandleTableEntryInfoEx{}, err
	}
	entries := info.Entries()
	for i := range entries {
		if match(&entries[i]) {
			return entries[i], nil
		}
	}
	return sys.SystemHandleTableEntryInfoEx{}, ntstatus.NotFound
}

// ReferenceObjectByAddress locates a live handle to the object at the address.
func (k *UserKernel) ReferenceObjectByAddress(addr uint64, _ uint32) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if ref, ok := k.refs[addr]; ok {
		ref.count++
		return nil
	}
	self := windows.GetCurrentProcessId()
	e, err := k.lookup(func(e *sys.SystemHandleTableEntryInfoEx) bool {
		return e.Object == addr && uint32(e.ProcessID) != self
	})
	if err != nil {
		if err == ntstatus.NotFound {
			return ntstatus.InvalidParameter
		}
		return err
	}
	k.refs[addr] = &objectRef{pid: uint32(e.ProcessID), handle: uint32(e.Handle), count: 1}
	return nil
}

// OpenObjectByAddress duplicates the referenced handle into the caller.
func (k *UserKernel) OpenObjectByAddress(c Caller, addr uint64, access uint32) (uint64, error) {
	k.mu.Lock()
	ref, ok := k.refs[addr]
	k.mu.Unlock()
	if !ok {
		return 0, ntstatus.InvalidParameter
	}
	src, err := windows.OpenProcess(windows.PROCESS_DUP_HANDLE, false, ref.pid)
	if err != nil {
		return 0, err
	}
	defer windows.CloseHandle(src)
	var opts uint32
	if access == 0 {
		opts = sys.DuplicateSameAccess
	}
	return k.duplicate(c, src, windows.Handle(ref.handle), access, opts)
}

// DereferenceObject drops the reference to the object.
func (k *UserKernel) DereferenceObject(addr uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if ref, ok := k.refs[addr]; ok {
		ref.count--
		if ref.count <= 0 {
			delete(k.refs, addr)
		}
	}
}

// OpenProcess opens the broker-local process handle.
func (k *UserKernel) OpenProcess(pid uint32, access uint32) (uint64, error) {
	h, err := windows.OpenProcess(access, false, pid)
	if err != nil {
		return 0, err
	}
	return uint64(h), nil
}

// DuplicateObject duplicates the handle from the source process into the caller.
func (k *UserKernel) DuplicateObject(c Caller, process uint64, handle uint32, access uint32, flags uint32) (uint64, error) {
	return k.duplicate(c, windows.Handle(process), windows.Handle(handle), access, flags)
}

// CloseHandle closes the broker-local handle.
func (k *UserKernel) CloseHandle(h uint64) error {
	return windows.CloseHandle(windows.Handle(h))
}

// OpenObjectByName opens the named object and transfers the handle to the caller.
func (k *UserKernel) OpenObjectByName(c Caller, name string, kind ObjectKind, access uint32) (uint64, error) {
	var (
		h   windows.Handle
		err error
	)
	if kind == KindDesktop {
		// desktops are opened by name within the window station of the broker
		desktop, err := windows.UTF16PtrFromString(path.Base(strings.ReplaceAll(name, `\`, "/")))
		if err != nil {
			return 0, err
		}
		h, err = sys.OpenDesktop(desktop, 0, false, access)
		if err != nil {
			return 0, err
		}
		return k.transfer(c, h)
	}
	oa, err := sys.NewObjectAttributes(name, 0)
	if err != nil {
		return 0, err
	}
	switch kind {
	case KindEvent:
		err = sys.NtOpenEvent(&h, access, oa)
	case KindSemaphore:
		err = sys.NtOpenSemaphore(&h, access, oa)
	case KindJob:
		err = sys.NtOpenJobObject(&h, access, oa)
	default:
		return 0, ntstatus.ObjectTypeMismatch
	}
	if err != nil {
		return 0, err
	}
	return k.transfer(c, h)
}

// OpenProcessByID opens the process and transfers the handle to the caller.
func (k *UserKernel) OpenProcessByID(c Caller, pid uint32, access uint32) (uint64, error) {
	h, err := windows.OpenProcess(access, false, pid)
	if err != nil {
		return 0, err
	}
	return k.transfer(c, h)
}

// OpenThreadByID opens the thread and transfers the handle to the caller.
func (k *UserKernel) OpenThreadByID(c Caller, tid uint32, access uint32) (uint64, error) {
	h, err := windows.OpenThread(access, false, tid)
	if err != nil {
		return 0, err
	}
	return k.transfer(c, h)
}

// ObjectAddressFromHandle looks the caller's handle up in the system handle table.
func (k *UserKernel) ObjectAddressFromHandle(c Caller, h uint64) (uint64, error) {
	e, err := k.lookup(func(e *sys.SystemHandleTableEntryInfoEx) bool {
		return uint32(e.ProcessID) == c.Pid && uint64(e.Handle) == h
	})
	if err != nil {
		if err == ntstatus.NotFound {
			return 0, ntstatus.InvalidHandle
		}
		return 0, err
	}
	return e.Object, nil
}

func (k *UserKernel) duplicate(c Caller, src, handle windows.Handle, access, opts uint32) (uint64, error) {
	dst, err := windows.OpenProcess(windows.PROCESS_DUP_HANDLE, false, c.Pid)
	if err != nil {
		return 0, err
	}
	defer windows.CloseHandle(dst)
	var target windows.Handle
	if err := sys.NtDuplicateObject(src, handle, dst, &target, access, 0, opts); err != nil {
		return 0, err
	}
	return uint64(target), nil
}

// transfer moves the broker-local handle into the caller's process. The
// local handle is closed regardless of the outcome.
func (k *UserKernel) transfer(c Caller, h windows.Handle) (uint64, error) {
	dst, err := windows.OpenProcess(windows.PROCESS_DUP_HANDLE, false, c.Pid)
	if err != nil {
		_ = windows.CloseHandle(h)
		return 0, err
	}
	defer windows.CloseHandle(dst)
	var target windows.Handle
	if err := sys.NtDuplicateObject(windows.CurrentProcess(), h, dst, &target, 0, 0, sys.DuplicateSameAccess|sys.DuplicateCloseSource); err != nil {
		return 0, err
	}
	return uint64(target), nil
}
