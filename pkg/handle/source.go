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

import "time"

// Entry is the raw row of the system or process handle table.
type Entry struct {
	Object        uint64
	Pid           uint32
	Value         uint32
	GrantedAccess uint32
	TypeIndex     uint16
	Attributes    uint32
}

// DirEntry is the object living inside the object manager directory.
type DirEntry struct {
	Name     string
	TypeName string
	// Target is only set for symbolic links.
	Target string
}

// TypeSource enumerates object types.
type TypeSource interface {
	// QueryTypes returns object types in the enumeration order.
	QueryTypes() ([]ObjectType, error)
	// NativeIndices reports whether the type descriptors carry the kernel type index.
	NativeIndices() bool
}

// SystemSource provides access to the system-wide handle table and the
// object queries performed on duplicated handles.
type SystemSource interface {
	TypeSource
	// QueryHandles snapshots the system handle table.
	QueryHandles() ([]Entry, error)
	// Duplicate duplicates the handle of the remote process into the current process.
	Duplicate(pid, value, access, flags uint32) (uintptr, error)
	// Close closes the duplicated handle.
	Close(dup uintptr)
	// ObjectName queries the object name. A non-zero timeout bounds the query.
	ObjectName(dup uintptr, timeout time.Duration) (string, error)
	// CurrentPid returns the identifier of the current process.
	CurrentPid() uint32
	// OpenObject opens the named object of the given type.
	OpenObject(path, typeName string, access uint32) (uintptr, error)
	// EnumDirectory lists objects of the object manager directory.
	EnumDirectory(path string) ([]DirEntry, error)
	// SymbolicLinkTarget resolves the symbolic link target.
	SymbolicLinkTarget(path string) (string, error)
}

// ProcessSource provides access to the handle table of a single process.
type ProcessSource interface {
	// ProcessHandles snapshots the handle table of the process.
	ProcessHandles(pid uint32) ([]Entry, error)
	// Inspect duplicates the handle and fills in the object address, the
	// granted access and attributes of the entry.
	Inspect(pid uint32, e *Entry) (uintptr, error)
	// Close closes the duplicated handle.
	Close(dup uintptr)
	// Exited reports whether the process terminated.
	Exited(pid uint32) bool
}

// Resolver resolves names of duplicated handles.
type Resolver interface {
	NameOf(dup uintptr, typeIndex uint16) string
	TypeName(index uint16) string
}
