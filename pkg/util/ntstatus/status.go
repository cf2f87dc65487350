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

package ntstatus

import (
	"errors"
	"fmt"
)

// Status represents the NT status code returned by native system services
// and by the broker in response frames.
type Status uint32

const (
	Success              Status = 0x00000000
	Timeout              Status = 0x00000102
	BufferOverflow       Status = 0x80000005
	NoMoreEntries        Status = 0x8000001A
	Unsuccessful         Status = 0xC0000001
	InfoLengthMismatch   Status = 0xC0000004
	InvalidHandle        Status = 0xC0000008
	InvalidCid           Status = 0xC000000B
	InvalidParameter     Status = 0xC000000D
	InvalidDeviceRequest Status = 0xC0000010
	AccessDenied         Status = 0xC0000022
	BufferTooSmall       Status = 0xC0000023
	ObjectTypeMismatch   Status = 0xC0000024
	ObjectNameInvalid    Status = 0xC0000033
	ObjectNameNotFound   Status = 0xC0000034
	ObjectPathNotFound   Status = 0xC000003A
	NotSupported         Status = 0xC00000BB
	ProcessIsTerminating Status = 0xC000010A
	NotFound             Status = 0xC0000225
)

var names = map[Status]string{
	Success:              "STATUS_SUCCESS",
	Timeout:              "STATUS_TIMEOUT",
	BufferOverflow:       "STATUS_BUFFER_OVERFLOW",
	NoMoreEntries:        "STATUS_NO_MORE_ENTRIES",
	Unsuccessful:         "STATUS_UNSUCCESSFUL",
	InfoLengthMismatch:   "STATUS_INFO_LENGTH_MISMATCH",
	InvalidHandle:        "STATUS_INVALID_HANDLE",
	InvalidCid:           "STATUS_INVALID_CID",
	InvalidParameter:     "STATUS_INVALID_PARAMETER",
	InvalidDeviceRequest: "STATUS_INVALID_DEVICE_REQUEST",
	AccessDenied:         "STATUS_ACCESS_DENIED",
	BufferTooSmall:       "STATUS_BUFFER_TOO_SMALL",
	ObjectTypeMismatch:   "STATUS_OBJECT_TYPE_MISMATCH",
	ObjectNameInvalid:    "STATUS_OBJECT_NAME_INVALID",
	ObjectNameNotFound:   "STATUS_OBJECT_NAME_NOT_FOUND",
	ObjectPathNotFound:   "STATUS_OBJECT_PATH_NOT_FOUND",
	NotSupported:         "STATUS_NOT_SUPPORTED",
	ProcessIsTerminating: "STATUS_PROCESS_IS_TERMINATING",
	NotFound:             "STATUS_NOT_FOUND",
}

// isSuccess determines if the status code is in success or information value ranges.
// https://learn.microsoft.com/en-us/windows-hardware/drivers/kernel/using-ntstatus-values
func isSuccess(status uint32) bool {
	return status <= 0x3FFFFFFF || (status >= 0x40000000 && status <= 0x7FFFFFFF)
}

// IsSuccess returns true if the status is in success or information ranges.
func (s Status) IsSuccess() bool { return isSuccess(uint32(s)) }

// IsGrowable determines if the status signals that the supplied buffer
// was too small to accommodate the result of the query.
func (s Status) IsGrowable() bool {
	return s == InfoLengthMismatch || s == BufferTooSmall || s == BufferOverflow
}

// Name returns the symbolic status name.
func (s Status) Name() string {
	if n, ok := names[s]; ok {
		return n
	}
	return fmt.Sprintf("0x%08X", uint32(s))
}

func (s Status) Error() string {
	return fmt.Sprintf("%s: %s", s.Name(), FormatMessage(uint32(s)))
}

// FromError extracts the NT status code from the error chain. Both the
// native status errors and Status values are recognized.
func FromError(err error) (Status, bool) {
	if err == nil {
		return Success, true
	}
	var s Status
	if errors.As(err, &s) {
		return s, true
	}
	return fromNative(err)
}

// IsGrowable determines if the error carries one of the status codes that
// ask the caller to retry the query with a larger buffer.
func IsGrowable(err error) bool {
	s, ok := FromError(err)
	return ok && s.IsGrowable()
}
