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

package handle

import (
	"sync"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/rabbitstack/objexp/pkg/driver"
	"github.com/rabbitstack/objexp/pkg/sys"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// processQueryAccess is the access needed to snapshot, duplicate from and wait on the process.
const processQueryAccess = windows.PROCESS_QUERY_INFORMATION | windows.PROCESS_DUP_HANDLE | windows.SYNCHRONIZE

// Source implements the system and process handle sources on top of the
// native API. Handles of other processes are duplicated through the broker
// channel when it is available.
type Source struct {
	bufferSize uint32
	client     *driver.Client
	timeout    *TimeoutResolver
	self       uint32

	mu    sync.Mutex
	procs map[uint32]windows.Handle
}

// NewSource creates the handle source. The client is optional.
func NewSource(bufferSize uint32, client *driver.Client) *Source {
	return &Source{
		bufferSize: bufferSize,
		client:     client,
		timeout:    NewTimeoutResolver(),
		self:       windows.GetCurrentProcessId(),
		procs:      make(map[uint32]windows.Handle),
	}
}

// QueryTypes returns object types in the enumeration order.
func (s *Source) QueryTypes() ([]ObjectType, error) {
	info, err := sys.QueryObjectTypes()
	if err != nil {
		return nil, err
	}
	types := make([]ObjectType, 0, info.NumberOfTypes)
	typ := info.First()
	for i := uint32(0); i < info.NumberOfTypes; i++ {
		types = append(types, ObjectType{
			Index:                     uint16(typ.TypeIndex),
			Name:                      typ.TypeName.String(),
			ValidAccessMask:           typ.ValidAccessMask,
			InvalidAttributes:         typ.InvalidAttributes,
			PoolType:                  typ.PoolType,
			DefaultPagedPoolCharge:    typ.DefaultPagedPoolCharge,
			DefaultNonPagedPoolCharge: typ.DefaultNonPagedPoolCharge,
			GenericMapping: GenericMapping{
				Read:    typ.GenericMapping.GenericRead,
				Write:   typ.GenericMapping.GenericWrite,
				Execute: typ.GenericMapping.GenericExecute,
				All:     typ.GenericMapping.GenericAll,
			},
			TotalHandles:      typ.TotalNumberOfHandles,
			TotalObjects:      typ.TotalNumberOfObjects,
			PeakHandles:       typ.HighWaterNumberOfHandles,
			PeakObjects:       typ.HighWaterNumberOfObjects,
			PagedPoolUsage:    typ.TotalPagedPoolUsage,
			NonPagedPoolUsage: typ.TotalNonPagedPoolUsage,
			NamePoolUsage:     typ.TotalNamePoolUsage,
		})
		typ = info.Next(typ)
	}
	return types, nil
}

// NativeIndices reports whether type descriptors carry kernel indices. This
// is the case starting with Windows 8.
func (s *Source) NativeIndices() bool {
	major, minor, _ := windows.RtlGetNtVersionNumbers()
	return major > 6 || (major == 6 && minor >= 2)
}

// QueryHandles snapshots the system handle table.
func (s *Source) QueryHandles() ([]Entry, error) {
	info, err := sys.QuerySystemHandles(s.bufferSize)
	if err != nil {
		return nil, err
	}
	rows := info.Entries()
	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = Entry{
			Object:        row.Object,
			Pid:           uint32(row.ProcessID),
			Value:         uint32(row.Handle),
			GrantedAccess: row.GrantedAccess,
			TypeIndex:     row.ObjectTypeIndex,
			Attributes:    row.HandleAttributes,
		}
	}
	return entries, nil
}

// Duplicate duplicates the handle of the remote process into the current process.
func (s *Source) Duplicate(pid, value, access, flags uint32) (uintptr, error) {
	if s.client != nil {
		dup, err := s.client.DupHandle(value, pid, access, flags)
		if err == nil {
			return uintptr(dup), nil
		}
		if !driver.IsAccessDenied(err) {
			return 0, err
		}
		log.Debugf("broker refused duplicating handle %#x of pid %d. Falling back to local duplication", value, pid)
	}
	proc, err := windows.OpenProcess(windows.PROCESS_DUP_HANDLE, false, pid)
	if err != nil {
		return 0, err
	}
	//nolint:errcheck
	defer windows.CloseHandle(proc)
	var dup windows.Handle
	err = sys.NtDuplicateObject(proc, windows.Handle(value), windows.CurrentProcess(), &dup, access, 0, flags)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to duplicate handle %#x of pid %d", value, pid)
	}
	return uintptr(dup), nil
}

// Close closes the duplicated handle.
func (s *Source) Close(dup uintptr) {
	if dup != 0 {
		_ = windows.CloseHandle(windows.Handle(dup))
	}
}

// ObjectName queries the object name. A non-zero timeout runs the query on
// the worker thread that is abandoned if the query blocks.
func (s *Source) ObjectName(dup uintptr, timeout time.Duration) (string, error) {
	query := func() (string, error) {
		info, err := sys.QueryObject[sys.ObjectNameInformation](windows.Handle(dup), sys.ObjectNameInformationClass)
		if err != nil {
			return "", err
		}
		return info.ObjectName.String(), nil
	}
	if timeout == 0 {
		return query()
	}
	return s.timeout.Resolve(timeout, query)
}

// CurrentPid returns the identifier of the current process.
func (s *Source) CurrentPid() uint32 { return s.self }

// OpenObject opens the named object of the given type. Events, semaphores,
// jobs and desktops are opened through the broker when it is available.
func (s *Source) OpenObject(path, typeName string, access uint32) (uintptr, error) {
	if s.client != nil {
		var (
			h   uint64
			err error
		)
		switch typeName {
		case Event:
			h, err = s.client.OpenEventByName(path)
		case Semaphore:
			h, err = s.client.OpenSemaphoreByName(path)
		case Job:
			h, err = s.client.OpenJobByName(path)
		case Desktop:
			h, err = s.client.OpenDesktopByName(path)
		default:
			return s.openLocal(path, typeName, access)
		}
		if err == nil {
			return uintptr(h), nil
		}
		log.Debugf("unable to open %s through the broker: %v", path, err)
	}
	return s.openLocal(path, typeName, access)
}

func (s *Source) openLocal(path, typeName string, access uint32) (uintptr, error) {
	if typeName == File || typeName == Device {
		h, err := windows.CreateFile(windows.StringToUTF16Ptr(`\\?\GLOBALROOT`+path), access, windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE, nil, windows.OPEN_EXISTING, windows.FILE_FLAG_BACKUP_SEMANTICS, 0)
		if err != nil {
			return 0, err
		}
		return uintptr(h), nil
	}
	if typeName == Desktop {
		h, err := sys.OpenDesktop(windows.StringToUTF16Ptr(baseName(path)), 0, false, access)
		if err != nil {
			return 0, err
		}
		return uintptr(h), nil
	}
	oa, err := sys.NewObjectAttributes(path, 0)
	if err != nil {
		return 0, err
	}
	var h windows.Handle
	switch typeName {
	case Event:
		err = sys.NtOpenEvent(&h, access, oa)
	case Mutant:
		err = sys.NtOpenMutant(&h, access, oa)
	case Section:
		err = sys.NtOpenSection(&h, access, oa)
	case Semaphore:
		err = sys.NtOpenSemaphore(&h, access, oa)
	case SymbolicLink:
		err = sys.NtOpenSymbolicLinkObject(&h, access, oa)
	case Key:
		err = sys.NtOpenKey(&h, access, oa)
	case Job:
		err = sys.NtOpenJobObject(&h, access, oa)
	case IoCompletion:
		err = sys.NtOpenIoCompletion(&h, access, oa)
	default:
		return 0, errors.Errorf("%s objects can't be opened by name", typeName)
	}
	if err != nil {
		return 0, err
	}
	return uintptr(h), nil
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

// EnumDirectory lists objects of the object manager directory.
func (s *Source) EnumDirectory(path string) ([]DirEntry, error) {
	items, err := sys.EnumDirectoryObjects(path)
	if err != nil {
		return nil, err
	}
	entries := make([]DirEntry, len(items))
	for i, item := range items {
		entries[i] = DirEntry{Name: item.Name, TypeName: item.TypeName}
	}
	return entries, nil
}

// SymbolicLinkTarget resolves the symbolic link target.
func (s *Source) SymbolicLinkTarget(path string) (string, error) {
	return sys.QuerySymbolicLinkTarget(path)
}

func (s *Source) process(pid uint32) (windows.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if proc, ok := s.procs[pid]; ok {
		return proc, nil
	}
	proc, err := windows.OpenProcess(processQueryAccess, false, pid)
	if err != nil {
		if s.client == nil {
			return 0, errors.Wrapf(err, "unable to open pid %d", pid)
		}
		h := s.client.TryOpenProcess(pid, processQueryAccess)
		if h == 0 {
			return 0, errors.Wrapf(err, "unable to open pid %d", pid)
		}
		log.Debugf("pid %d opened through the broker", pid)
		proc = windows.Handle(h)
	}
	s.procs[pid] = proc
	return proc, nil
}

// OpenByAddress opens the object by its kernel address through the broker.
func (s *Source) OpenByAddress(addr uint64, access uint32) uintptr {
	if s.client == nil {
		return 0
	}
	return uintptr(s.client.TryOpenObject(addr, access))
}

// ProcessHandles snapshots the handle table of the process.
func (s *Source) ProcessHandles(pid uint32) ([]Entry, error) {
	proc, err := s.process(pid)
	if err != nil {
		return nil, err
	}
	info, err := sys.QueryProcessHandles(proc)
	if err != nil {
		return nil, err
	}
	rows := info.Entries()
	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = Entry{
			Pid:           pid,
			Value:         uint32(row.Handle),
			GrantedAccess: row.GrantedAccess,
			TypeIndex:     uint16(row.ObjectTypeIndex),
			Attributes:    row.HandleAttributes,
		}
	}
	return entries, nil
}

// Inspect duplicates the handle and fills in the object address, the
// granted access and attributes. The address is only known with the broker.
func (s *Source) Inspect(pid uint32, e *Entry) (uintptr, error) {
	dup, err := s.Duplicate(pid, e.Value, 0, DuplicateSameAccess)
	if err != nil {
		return 0, err
	}
	var info sys.ObjectBasicInformation
	err = sys.NtQueryObject(windows.Handle(dup), sys.ObjectBasicInformationClass, unsafe.Pointer(&info), uint32(unsafe.Sizeof(info)), nil)
	if err == nil {
		e.GrantedAccess = info.GrantedAccess
		e.Attributes = info.Attributes
	}
	if s.client != nil {
		if addr, err := s.client.GetObjectAddress(uint64(dup)); err == nil {
			e.Object = addr
		}
	}
	return dup, nil
}

// Exited reports whether the process terminated.
func (s *Source) Exited(pid uint32) bool {
	proc, err := s.process(pid)
	if err != nil {
		return errors.Is(err, windows.ERROR_INVALID_PARAMETER)
	}
	return sys.IsProcessSignaled(proc)
}

// Release closes process handles and stops the name query worker.
func (s *Source) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for pid, proc := range s.procs {
		_ = windows.CloseHandle(proc)
		delete(s.procs, pid)
	}
	s.timeout.Close()
}
