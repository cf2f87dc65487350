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

import "fmt"

// ObjectKind selects the kernel object type for the named open operations.
type ObjectKind uint8

const (
	// KindEvent designates the event object type
	KindEvent ObjectKind = iota + 1
	// KindSemaphore designates the semaphore object type
	KindSemaphore
	// KindJob designates the job object type
	KindJob
	// KindDesktop designates the desktop object type
	KindDesktop
)

func (k ObjectKind) String() string {
	switch k {
	case KindEvent:
		return "Event"
	case KindSemaphore:
		return "Semaphore"
	case KindJob:
		return "Job"
	case KindDesktop:
		return "Desktop"
	default:
		return fmt.Sprintf("ObjectKind(%d)", uint8(k))
	}
}

// namedKinds maps the named open control codes to object kinds.
var namedKinds = map[uint32]ObjectKind{
	IoctlOpenEventByName:     KindEvent,
	IoctlOpenSemaphoreByName: KindSemaphore,
	IoctlOpenJobByName:       KindJob,
	IoctlOpenDesktopByName:   KindDesktop,
}

// Caller identifies the process on whose behalf the operation is performed.
// Handles produced by the kernel back-end are valid in the caller's process.
type Caller struct {
	Pid   uint32
	Image string
}

// Kernel performs the privileged primitives behind each broker operation.
// Errors carrying an NT status are reported to the client verbatim.
type Kernel interface {
	// ReferenceObjectByAddress takes a reference to the object living at the
	// kernel address. It fails if the address doesn't point to a valid object.
	ReferenceObjectByAddress(addr uint64, access uint32) error
	// OpenObjectByAddress opens the handle to the referenced object.
	OpenObjectByAddress(c Caller, addr uint64, access uint32) (uint64, error)
	// DereferenceObject releases the reference taken by ReferenceObjectByAddress.
	DereferenceObject(addr uint64)
	// OpenProcess opens the broker-local handle to the process.
	OpenProcess(pid uint32, access uint32) (uint64, error)
	// DuplicateObject duplicates the handle living in the source process into the caller.
	DuplicateObject(c Caller, process uint64, handle uint32, access uint32, flags uint32) (uint64, error)
	// CloseHandle closes the broker-local handle.
	CloseHandle(h uint64) error
	// OpenObjectByName opens the named object of the given kind with the given access.
	OpenObjectByName(c Caller, path string, kind ObjectKind, access uint32) (uint64, error)
	// OpenProcessByID opens the process bypassing default access checks.
	OpenProcessByID(c Caller, pid uint32, access uint32) (uint64, error)
	// OpenThreadByID opens the thread bypassing default access checks.
	OpenThreadByID(c Caller, tid uint32, access uint32) (uint64, error)
	// ObjectAddressFromHandle resolves the caller handle to the kernel object address.
	ObjectAddressFromHandle(c Caller, h uint64) (uint64, error)
}
