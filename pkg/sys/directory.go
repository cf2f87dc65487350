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

	"golang.org/x/sys/windows"
)

const (
	// DirectoryQuery is the access right for enumerating directory objects.
	DirectoryQuery = 0x0001
	// SymbolicLinkQuery is the access right for querying symbolic link targets.
	SymbolicLinkQuery = 0x0001
)

// ObjectDirectoryInformation describes a single entry of the object directory.
type ObjectDirectoryInformation struct {
	Name     windows.NTUnicodeString
	TypeName windows.NTUnicodeString
}

// DirectoryEntry is the name and the type name of the object living in the directory.
type DirectoryEntry struct {
	Name     string
	TypeName string
}

// EnumDirectoryObjects lists the objects inside the object manager directory.
func EnumDirectoryObjects(path string) ([]DirectoryEntry, error) {
	oa, err := NewObjectAttributes(path, 0)
	if err != nil {
		return nil, err
	}
	var dir windows.Handle
	if err := NtOpenDirectoryObject(&dir, DirectoryQuery, oa); err != nil {
		return nil, err
	}
	//nolint:errcheck
	defer windows.CloseHandle(dir)

	entries := make([]DirectoryEntry, 0, 128)
	buf := make([]byte, 1<<12)
	var index, size uint32
	first := true
	for {
		start := index
		err := NtQueryDirectoryObject(dir, unsafe.Pointer(&buf[0]), uint32(len(buf)), false, first, &index, &size)
		if err != nil && err != windows.STATUS_MORE_ENTRIES {
			if first && err != windows.STATUS_NO_MORE_ENTRIES {
				return nil, err
			}
			break
		}
		first = false
		items := unsafe.Slice((*ObjectDirectoryInformation)(unsafe.Pointer(&buf[0])), index-start)
		for _, item := range items {
			entries = append(entries, DirectoryEntry{Name: item.Name.String(), TypeName: item.TypeName.String()})
		}
		if index == start {
			break
		}
	}
	return entries, nil
}

// QuerySymbolicLinkTarget resolves the target of the symbolic link object.
func QuerySymbolicLinkTarget(path string) (string, error) {
	oa, err := NewObjectAttributes(path, 0)
	if err != nil {
		return "", err
	}
	var link windows.Handle
	if err := NtOpenSymbolicLinkObject(&link, SymbolicLinkQuery, oa); err != nil {
		return "", err
	}
	//nolint:errcheck
	defer windows.CloseHandle(link)
	return SymbolicLinkTarget(link)
}

// SymbolicLinkTarget resolves the target of the opened symbolic link object.
func SymbolicLinkTarget(link windows.Handle) (string, error) {
	buf := make([]uint16, 1<<10)
	target := windows.NTUnicodeString{
		MaximumLength: uint16(len(buf) * 2),
		Buffer:        &buf[0],
	}
	if err := NtQuerySymbolicLinkObject(link, &target, nil); err != nil {
		return "", err
	}
	return target.String(), nil
}
