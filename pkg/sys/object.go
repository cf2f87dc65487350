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
	"github.com/rabbitstack/objexp/pkg/util/typesize"
	"golang.org/x/sys/windows"
)

const (
	// ObjectBasicInformationClass returns the granted access, attributes and counters of the handle.
	ObjectBasicInformationClass = iota
	// ObjectNameInformationClass returns the object name information.
	ObjectNameInformationClass
	// ObjectTypeInformationClass returns the object type information.
	ObjectTypeInformationClass
	// ObjectTypesInformationClass returns handle object types.
	ObjectTypesInformationClass
)

const (
	// AlpcBasicPortInformationClass is the information class for obtaining basic ALPC port information.
	AlpcBasicPortInformationClass = iota
)

const (
	// MutantBasicInformationClass is the information class for getting basic mutant information.
	MutantBasicInformationClass = iota
)

const (
	// EventBasicInformationClass is the information class for getting the event type and state.
	EventBasicInformationClass = iota
)

const (
	// SemaphoreBasicInformationClass is the information class for getting semaphore counters.
	SemaphoreBasicInformationClass = iota
)

const (
	// SectionBasicInformationClass is the information class for getting section size and attributes.
	SectionBasicInformationClass = iota
)

// GenericMapping describes how generic access rights map to specific rights of the type.
type GenericMapping struct {
	GenericRead    uint32
	GenericWrite   uint32
	GenericExecute uint32
	GenericAll     uint32
}

// ObjectTypeInformation contains object type data.
type ObjectTypeInformation struct {
	TypeName                   windows.NTUnicodeString
	TotalNumberOfObjects       uint32
	TotalNumberOfHandles       uint32
	TotalPagedPoolUsage        uint32
	TotalNonPagedPoolUsage     uint32
	TotalNamePoolUsage         uint32
	TotalHandleTableUsage      uint32
	HighWaterNumberOfObjects   uint32
	HighWaterNumberOfHandles   uint32
	HighWaterPagedPoolUsage    uint32
	HighWaterNonPagedPoolUsage uint32
	HighWaterNamePoolUsage     uint32
	HighWaterHandleTableUsage  uint32
	InvalidAttributes          uint32
	GenericMapping             GenericMapping
	ValidAccessMask            uint32
	SecurityRequired           bool
	MaintainHandleCount        bool
	TypeIndex                  uint8
	ReservedByte               int8
	PoolType                   uint32
	DefaultPagedPoolCharge     uint32
	DefaultNonPagedPoolCharge  uint32
}

// ObjectTypesInformation stores the number of resolved object type names.
type ObjectTypesInformation struct {
	NumberOfTypes uint32
}

// First returns the first object type structure.
func (o *ObjectTypesInformation) First() *ObjectTypeInformation {
	p := unsafe.Pointer(uintptr(unsafe.Pointer(o)) + typesize.Align(unsafe.Sizeof(ObjectTypesInformation{})))
	return (*ObjectTypeInformation)(p)
}

// Next returns the next object type structure given the previous structure pointer.
func (*ObjectTypesInformation) Next(typ *ObjectTypeInformation) *ObjectTypeInformation {
	align := typesize.Align(uintptr(typ.TypeName.MaximumLength))
	return (*ObjectTypeInformation)(unsafe.Pointer(uintptr(unsafe.Pointer(typ)) + unsafe.Sizeof(ObjectTypeInformation{}) + align))
}

// ObjectNameInformation stores object name information.
type ObjectNameInformation struct {
	ObjectName windows.NTUnicodeString
}

// ObjectBasicInformation describes the handle access and object reference counters.
type ObjectBasicInformation struct {
	Attributes             uint32
	GrantedAccess          uint32
	HandleCount            uint32
	PointerCount           uint32
	PagedPoolCharge        uint32
	NonPagedPoolCharge     uint32
	Reserved               [3]uint32
	NameInfoSize           uint32
	TypeInfoSize           uint32
	SecurityDescriptorSize uint32
	CreationTime           int64
}

// MutantBasicInformation stores the mutant counter and ownership state.
type MutantBasicInformation struct {
	CurrentCount   int32
	OwnedByCaller  bool
	AbandonedState bool
}

// EventBasicInformation stores the event type and the signaled state.
type EventBasicInformation struct {
	EventType  uint32
	EventState int32
}

// SemaphoreBasicInformation stores semaphore counters.
type SemaphoreBasicInformation struct {
	CurrentCount int32
	MaximumCount int32
}

// SectionBasicInformation stores the section base address, size and allocation attributes.
type SectionBasicInformation struct {
	BaseAddress          uintptr
	AllocationAttributes uint32
	MaximumSize          int64
}

// AlpcBasicPortInformation stores ALPC port flags and the sequence number.
type AlpcBasicPortInformation struct {
	Flags   uint32
	Seqno   uint32
	Context uintptr
}

// QueryObject queries the information class of the object. The buffer is
// grown until the result fits.
func QueryObject[C any](obj windows.Handle, class int32) (*C, error) {
	var c C
	n, err := growbuf.Query(uint32(unsafe.Sizeof(c)), func(b []byte, needed *uint32) error {
		return NtQueryObject(obj, class, unsafe.Pointer(&b[0]), uint32(len(b)), needed)
	})
	if err != nil {
		return nil, err
	}
	if uintptr(len(n)) < unsafe.Sizeof(c) {
		n = append(n, make([]byte, unsafe.Sizeof(c)-uintptr(len(n)))...)
	}
	return (*C)(unsafe.Pointer(&n[0])), nil
}

// QueryObjectTypes returns the raw buffer with all object type descriptors.
func QueryObjectTypes() (*ObjectTypesInformation, error) {
	b, err := growbuf.Query(1<<14, func(b []byte, needed *uint32) error {
		return NtQueryObject(0, ObjectTypesInformationClass, unsafe.Pointer(&b[0]), uint32(len(b)), needed)
	})
	if err != nil {
		return nil, err
	}
	return (*ObjectTypesInformation)(unsafe.Pointer(&b[0])), nil
}

// NewObjectAttributes initializes the object attributes for the given object path. Names
// are matched case-insensitively.
func NewObjectAttributes(path string, root windows.Handle) (*windows.OBJECT_ATTRIBUTES, error) {
	name, err := windows.NewNTUnicodeString(path)
	if err != nil {
		return nil, err
	}
	return &windows.OBJECT_ATTRIBUTES{
		Length:        uint32(unsafe.Sizeof(windows.OBJECT_ATTRIBUTES{})),
		RootDirectory: root,
		ObjectName:    name,
		Attributes:    windows.OBJ_CASE_INSENSITIVE,
	}, nil
}
