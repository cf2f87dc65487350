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
	"fmt"
	"strings"
)

type right struct {
	mask uint32
	name string
}

var standardRights = []right{
	{0x00010000, "DELETE"},
	{0x00020000, "READ_CONTROL"},
	{0x00040000, "WRITE_DAC"},
	{0x00080000, "WRITE_OWNER"},
	{0x00100000, "SYNCHRONIZE"},
	{0x01000000, "ACCESS_SYSTEM_SECURITY"},
	{0x02000000, "MAXIMUM_ALLOWED"},
	{0x10000000, "GENERIC_ALL"},
	{0x20000000, "GENERIC_EXECUTE"},
	{0x40000000, "GENERIC_WRITE"},
	{0x80000000, "GENERIC_READ"},
}

type accessRights struct {
	all    right
	rights []right
}

var typeRights = map[string]accessRights{
	Process: {
		all: right{0x001FFFFF, "PROCESS_ALL_ACCESS"},
		rights: []right{
			{0x0001, "PROCESS_TERMINATE"},
			{0x0002, "PROCESS_CREATE_THREAD"},
			{0x0008, "PROCESS_VM_OPERATION"},
			{0x0010, "PROCESS_VM_READ"},
			{0x0020, "PROCESS_VM_WRITE"},
			{0x0040, "PROCESS_DUP_HANDLE"},
			{0x0080, "PROCESS_CREATE_PROCESS"},
			{0x0100, "PROCESS_SET_QUOTA"},
			{0x0200, "PROCESS_SET_INFORMATION"},
			{0x0400, "PROCESS_QUERY_INFORMATION"},
			{0x0800, "PROCESS_SUSPEND_RESUME"},
			{0x1000, "PROCESS_QUERY_LIMITED_INFORMATION"},
		},
	},
	Thread: {
		all: right{0x001FFFFF, "THREAD_ALL_ACCESS"},
		rights: []right{
			{0x0001, "THREAD_TERMINATE"},
			{0x0002, "THREAD_SUSPEND_RESUME"},
			{0x0008, "THREAD_GET_CONTEXT"},
			{0x0010, "THREAD_SET_CONTEXT"},
			{0x0020, "THREAD_SET_INFORMATION"},
			{0x0040, "THREAD_QUERY_INFORMATION"},
			{0x0080, "THREAD_SET_THREAD_TOKEN"},
			{0x0100, "THREAD_IMPERSONATE"},
			{0x0200, "THREAD_DIRECT_IMPERSONATION"},
			{0x0400, "THREAD_SET_LIMITED_INFORMATION"},
			{0x0800, "THREAD_QUERY_LIMITED_INFORMATION"},
		},
	},
	File: {
		all: right{0x001F01FF, "FILE_ALL_ACCESS"},
		rights: []right{
			{0x0001, "FILE_READ_DATA"},
			{0x0002, "FILE_WRITE_DATA"},
			{0x0004, "FILE_APPEND_DATA"},
			{0x0008, "FILE_READ_EA"},
			{0x0010, "FILE_WRITE_EA"},
			{0x0020, "FILE_EXECUTE"},
			{0x0040, "FILE_DELETE_CHILD"},
			{0x0080, "FILE_READ_ATTRIBUTES"},
			{0x0100, "FILE_WRITE_ATTRIBUTES"},
		},
	},
	Key: {
		all: right{0x000F003F, "KEY_ALL_ACCESS"},
		rights: []right{
			{0x0001, "KEY_QUERY_VALUE"},
			{0x0002, "KEY_SET_VALUE"},
			{0x0004, "KEY_CREATE_SUB_KEY"},
			{0x0008, "KEY_ENUMERATE_SUB_KEYS"},
			{0x0010, "KEY_NOTIFY"},
			{0x0020, "KEY_CREATE_LINK"},
			{0x0100, "KEY_WOW64_64KEY"},
			{0x0200, "KEY_WOW64_32KEY"},
		},
	},
	Event: {
		all: right{0x001F0003, "EVENT_ALL_ACCESS"},
		rights: []right{
			{0x0001, "EVENT_QUERY_STATE"},
			{0x0002, "EVENT_MODIFY_STATE"},
		},
	},
	Mutant: {
		all: right{0x001F0001, "MUTANT_ALL_ACCESS"},
		rights: []right{
			{0x0001, "MUTANT_QUERY_STATE"},
		},
	},
	Semaphore: {
		all: right{0x001F0003, "SEMAPHORE_ALL_ACCESS"},
		rights: []right{
			{0x0001, "SEMAPHORE_QUERY_STATE"},
			{0x0002, "SEMAPHORE_MODIFY_STATE"},
		},
	},
	Section: {
		all: right{0x000F001F, "SECTION_ALL_ACCESS"},
		rights: []right{
			{0x0001, "SECTION_QUERY"},
			{0x0002, "SECTION_MAP_WRITE"},
			{0x0004, "SECTION_MAP_READ"},
			{0x0008, "SECTION_MAP_EXECUTE"},
			{0x0010, "SECTION_EXTEND_SIZE"},
			{0x0020, "SECTION_MAP_EXECUTE_EXPLICIT"},
		},
	},
	Directory: {
		all: right{0x000F000F, "DIRECTORY_ALL_ACCESS"},
		rights: []right{
			{0x0001, "DIRECTORY_QUERY"},
			{0x0002, "DIRECTORY_TRAVERSE"},
			{0x0004, "DIRECTORY_CREATE_OBJECT"},
			{0x0008, "DIRECTORY_CREATE_SUBDIRECTORY"},
		},
	},
	SymbolicLink: {
		all: right{0x000F0001, "SYMBOLIC_LINK_ALL_ACCESS"},
		rights: []right{
			{0x0001, "SYMBOLIC_LINK_QUERY"},
		},
	},
	Token: {
		all: right{0x000F01FF, "TOKEN_ALL_ACCESS"},
		rights: []right{
			{0x0001, "TOKEN_ASSIGN_PRIMARY"},
			{0x0002, "TOKEN_DUPLICATE"},
			{0x0004, "TOKEN_IMPERSONATE"},
			{0x0008, "TOKEN_QUERY"},
			{0x0010, "TOKEN_QUERY_SOURCE"},
			{0x0020, "TOKEN_ADJUST_PRIVILEGES"},
			{0x0040, "TOKEN_ADJUST_GROUPS"},
			{0x0080, "TOKEN_ADJUST_DEFAULT"},
			{0x0100, "TOKEN_ADJUST_SESSIONID"},
		},
	},
	Job: {
		all: right{0x001F003F, "JOB_OBJECT_ALL_ACCESS"},
		rights: []right{
			{0x0001, "JOB_OBJECT_ASSIGN_PROCESS"},
			{0x0002, "JOB_OBJECT_SET_ATTRIBUTES"},
			{0x0004, "JOB_OBJECT_QUERY"},
			{0x0008, "JOB_OBJECT_TERMINATE"},
			{0x0010, "JOB_OBJECT_SET_SECURITY_ATTRIBUTES"},
			{0x0020, "JOB_OBJECT_IMPERSONATE"},
		},
	},
	IoCompletion: {
		all: right{0x001F0003, "IO_COMPLETION_ALL_ACCESS"},
		rights: []right{
			{0x0001, "IO_COMPLETION_QUERY_STATE"},
			{0x0002, "IO_COMPLETION_MODIFY_STATE"},
		},
	},
	Desktop: {
		all: right{0x000F01FF, "DESKTOP_ALL_ACCESS"},
		rights: []right{
			{0x0001, "DESKTOP_READOBJECTS"},
			{0x0002, "DESKTOP_CREATEWINDOW"},
			{0x0004, "DESKTOP_CREATEMENU"},
			{0x0008, "DESKTOP_HOOKCONTROL"},
			{0x0010, "DESKTOP_JOURNALRECORD"},
			{0x0020, "DESKTOP_JOURNALPLAYBACK"},
			{0x0040, "DESKTOP_ENUMERATE"},
			{0x0080, "DESKTOP_WRITEOBJECTS"},
			{0x0100, "DESKTOP_SWITCHDESKTOP"},
		},
	},
}

// DecodeAccess renders the access mask with symbolic rights of the object
// type. Bits without the symbolic name are rendered as the hex remainder.
func DecodeAccess(typeName string, mask uint32) string {
	if mask == 0 {
		return "NONE"
	}
	ar, ok := typeRights[typeName]
	if ok && ar.all.mask == mask {
		return ar.all.name
	}
	var names []string
	rest := mask
	for _, r := range ar.rights {
		if mask&r.mask == r.mask {
			names = append(names, r.name)
			rest &^= r.mask
		}
	}
	for _, r := range standardRights {
		if mask&r.mask == r.mask {
			names = append(names, r.name)
			rest &^= r.mask
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("%#x", rest))
	}
	return strings.Join(names, " | ")
}
