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

package sys

import (
	"unsafe"

	"github.com/rabbitstack/objexp/pkg/util/growbuf"
	"golang.org/x/sys/windows"
)

const (
	// SystemExtendedHandleInformationClass returns the system-wide handle table.
	SystemExtendedHandleInformationClass = 64
	// ProcessHandleInformationClass returns the handle table of the process.
	ProcessHandleInformationClass = 51
)

const (
	// DuplicateCloseSource closes the source handle after it is duplicated.
	DuplicateCloseSource = 0x1
	// DuplicateSameAccess grants the duplicate the access of the source handle.
	DuplicateSameAccess = 0x2
)

// ProcessHandleTableEntryInfo is the structure that describes the process handle entry.
type ProcessHandleTableEntryInfo struct {
	Handle           windows.Handle
	HandleCount      uintptr
	PointerCount     uintptr
	GrantedAccess    uint32
	ObjectTypeIndex  uint32
	HandleAttributes uint32
	Reserved         uint32
}

// ProcessHandleSnapshotInformation is the structure that holds the process handle table.
type ProcessHandleSnapshotInformation struct {
	NumberOfHandles uintptr
	Reserved        uintptr
	Handles         [1]ProcessHandleTableEntryInfo
}

// Entries returns the slice of process handle entries.
func (s *ProcessHandleSnapshotInformation) Entries() []ProcessHandleTableEntryInfo {
	if s.NumberOfHandles == 0 {
		return nil
	}
	return unsafe.Slice(&s.Handles[0], int(s.NumberOfHandles))
}

// SystemHandleTableEntryInfoEx is the structure that describes the system handle entry.
type SystemHandleTableEntryInfoEx struct {
	Object                uint64
	ProcessID             uintptr
	Handle                uintptr
	GrantedAccess         uint32
	CreatorBackTraceIndex uint16
	ObjectTypeIndex       uint16
	HandleAttributes      uint32
	Reserved              uint32
}

// SystemHandleInformationEx is the structures that holds the system handle table.
type SystemHandleInformationEx struct {
	NumberOfHandles uintptr
	Reserved        uintptr
	Handles         [1]SystemHandleTableEntryInfoEx
}

// Entries returns the slice of system handle entries.
func (s *SystemHandleInformationEx) Entries() []SystemHandleTableEntryInfoEx {
	if s.NumberOfHandles == 0 {
		return nil
	}
	return unsafe.Slice(&s.Handles[0], int(s.NumberOfHandles))
}

// QuerySystemHandles snapshots the system-wide handle table. The query starts
// with the buffer of the given size.
func QuerySystemHandles(size uint32) (*SystemHandleInformationEx, error) {
	b, err := growbuf.Query(size, func(b []byte, needed *uint32) error {
		return windows.NtQuerySystemInformation(SystemExtendedHandleInformationClass, unsafe.Pointer(&b[0]), uint32(len(b)), needed)
	})
	if err != nil {
		return nil, err
	}
	return (*SystemHandleInformationEx)(unsafe.Pointer(&b[0])), nil
}

// QueryProcessHandles snapshots the handle table of the process. The process
// handle requires the PROCESS_QUERY_INFORMATION access right.
func QueryProcessHandles(proc windows.Handle) (*ProcessHandleSnapshotInformation, error) {
	b, err := growbuf.Query(1<<14, func(b []byte, needed *uint32) error {
		return windows.NtQueryInformationProcess(proc, ProcessHandleInformationClass, unsafe.Pointer(&b[0]), uint32(len(b)), needed)
	})
	if err != nil {
		return nil, err
	}
	return (*ProcessHandleSnapshotInformation)(unsafe.Pointer(&b[0])), nil
}
