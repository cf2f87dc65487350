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

package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrSizeMismatch is returned when the request or response payload doesn't satisfy the size contract of the operation
	ErrSizeMismatch = errors.New("payload size doesn't match the operation size contract")
	// ErrChannelDenied signals the broker refused to open the control channel for the calling image
	ErrChannelDenied = errors.New("access to the control channel denied. Only recognized client images may talk to the broker")
	// ErrUnknownType is returned when the object type name is not present in the type registry
	ErrUnknownType = errors.New("unknown object type")
	// ErrTypeSetChanged is returned when the number of object types differs between registry refreshes
	ErrTypeSetChanged = errors.New("the set of object types changed since the registry was populated")
	// ErrProcessExited signals the tracked process has terminated
	ErrProcessExited = errors.New("process has exited")
	// ErrUnsupportedProtocol signals the broker speaks a protocol version the client can't talk
	ErrUnsupportedProtocol = errors.New("unsupported broker protocol version")
	// ErrNameTimeout is returned when the object name query doesn't complete within the allotted time
	ErrNameTimeout = errors.New("couldn't resolve handle name due to timeout")
	// ErrUnsupportedTransport is thrown when the driver transport is not recognized
	ErrUnsupportedTransport = func(s string) error {
		return fmt.Errorf("%q is not a supported driver transport. Use device or pipe", s)
	}
	// ErrBrokerUnavailable signals that the broker is not reachable through the given endpoint
	ErrBrokerUnavailable = func(endpoint string, err error) error {
		return fmt.Errorf("broker up and running on %s? %v", endpoint, err)
	}
)

// ErrUnknownTypeIndex is returned when the handle references the type index the registry has never seen.
type ErrUnknownTypeIndex struct {
	Index uint16
}

// Error returns the error message.
func (e ErrUnknownTypeIndex) Error() string {
	return fmt.Sprintf("object type index %d not found in the type registry", e.Index)
}

// IsUnknownTypeIndex returns true if the error is ErrUnknownTypeIndex.
func IsUnknownTypeIndex(err error) bool {
	var e ErrUnknownTypeIndex
	return errors.As(err, &e)
}

// ErrUnknownTypeName is returned when the type name doesn't resolve. It carries
// the names of the closest matching types.
type ErrUnknownTypeName struct {
	Name        string
	Suggestions []string
}

// Error returns the error message.
func (e ErrUnknownTypeName) Error() string {
	if len(e.Suggestions) > 0 {
		return fmt.Sprintf("%s %q. Did you mean %v?", ErrUnknownType, e.Name, e.Suggestions)
	}
	return fmt.Sprintf("%s %q", ErrUnknownType, e.Name)
}

// Unwrap returns the sentinel error.
func (e ErrUnknownTypeName) Unwrap() error { return ErrUnknownType }
