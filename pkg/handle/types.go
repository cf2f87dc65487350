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

// Package handle enumerates kernel object handles, groups them into objects and
// tracks handle tables of individual processes.
package handle

import (
	"strings"
	"time"
)

const (
	// ALPCPort represents the ALPC (Advanced Local Procedure Call) object ports
	ALPCPort = "ALPC Port"
	// Directory designates directory objects. They exist only within the object manager scope and do not correspond to any directory on the disk.
	Directory = "Directory"
	Event     = "Event"
	// File designates file handles (e.g. pipe, device, mailslot)
	File          = "File"
	Device        = "Device"
	Key           = "Key"
	Job           = "Job"
	IoCompletion  = "IoCompletion"
	Thread        = "Thread"
	Semaphore     = "Semaphore"
	Section       = "Section"
	Mutant        = "Mutant"
	Desktop       = "Desktop"
	WindowStation = "WindowStation"
	Token         = "Token"
	SymbolicLink  = "SymbolicLink"
	Process       = "Process"
)

const (
	// DuplicateCloseSource closes the source handle once it is duplicated.
	DuplicateCloseSource uint32 = 0x1
	// DuplicateSameAccess gives the duplicate the same access as the source handle.
	DuplicateSameAccess uint32 = 0x2
	// MaximumAllowed requests the maximum access the caller can be granted.
	MaximumAllowed uint32 = 0x02000000
)

// Handle attribute bits as reported by the handle table.
const (
	AttributeProtectFromClose uint32 = 0x1
	AttributeInherit          uint32 = 0x2
	AttributeAudit            uint32 = 0x4
)

// GenericMapping describes how generic access rights map to the specific rights of the type.
type GenericMapping struct {
	Read    uint32
	Write   uint32
	Execute uint32
	All     uint32
}

// ObjectType describes the kernel object type along with the usage counters.
// The index/name pair never changes once the type is registered.
type ObjectType struct {
	Index                     uint16
	Name                      string
	ValidAccessMask           uint32
	InvalidAttributes         uint32
	PoolType                  uint32
	DefaultPagedPoolCharge    uint32
	DefaultNonPagedPoolCharge uint32
	GenericMapping            GenericMapping

	TotalHandles      uint32
	TotalObjects      uint32
	PeakHandles       uint32
	PeakObjects       uint32
	PagedPoolUsage    uint32
	NonPagedPoolUsage uint32
	NamePoolUsage     uint32
}

// Handle is a single entry of the handle table.
type Handle struct {
	// Value is the handle value in the owning process.
	Value uint32
	// Pid is the identifier of the owning process.
	Pid           uint32
	TypeIndex     uint16
	TypeName      string
	Object        uint64
	GrantedAccess uint32
	Attributes    uint32
	Name          string
	// NameResolved is set once the name query ran, whether it yielded the name or not.
	NameResolved bool
	// Link points to the object group. It is only set on the first handle
	// referencing the object.
	Link *Object

	ref *Object
}

// ObjectRef returns the object the handle references regardless of the position
// within the object group.
func (h *Handle) ObjectRef() *Object { return h.ref }

// AttributesString renders handle attributes.
func (h *Handle) AttributesString() string {
	var attrs []string
	if h.Attributes&AttributeInherit != 0 {
		attrs = append(attrs, "Inherit")
	}
	if h.Attributes&AttributeProtectFromClose != 0 {
		attrs = append(attrs, "Protect")
	}
	if h.Attributes&AttributeAudit != 0 {
		attrs = append(attrs, "Audit")
	}
	if len(attrs) == 0 {
		return "None"
	}
	return strings.Join(attrs, ", ")
}

// Object groups all handles referencing the same kernel object address.
type Object struct {
	Address     uint64
	TypeIndex   uint16
	TypeName    string
	Name        string
	HandleCount int
	Handles     []*Handle
}

// ChangeKind identifies the type counter that changed between refreshes.
type ChangeKind uint8

const (
	TotalHandlesChange ChangeKind = iota
	TotalObjectsChange
	PeakHandlesChange
	PeakObjectsChange
)

func (k ChangeKind) String() string {
	switch k {
	case TotalHandlesChange:
		return "TotalHandles"
	case TotalObjectsChange:
		return "TotalObjects"
	case PeakHandlesChange:
		return "PeakHandles"
	case PeakObjectsChange:
		return "PeakObjects"
	default:
		return "Unknown"
	}
}

// TypeChange records the counter delta of the object type.
type TypeChange struct {
	Type  *ObjectType
	Kind  ChangeKind
	Delta int32
}

// Color is the highlight color of the tracked handle.
type Color uint8

const (
	// Green marks new handles.
	Green Color = iota
	// Red marks closed handles.
	Red
)

func (c Color) String() string {
	if c == Red {
		return "red"
	}
	return "green"
}

// Highlight marks a new or closed handle until it expires.
type Highlight struct {
	Handle  uint32
	Color   Color
	Expires time.Time
	IsNew   bool
}

// Totals sums up the counters of all object types.
type Totals struct {
	Types        int
	TotalHandles uint64
	TotalObjects uint64
	PeakHandles  uint64
	PeakObjects  uint64
}
