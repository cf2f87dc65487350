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

package driver

import (
	"fmt"
	"net"

	"github.com/rabbitstack/objexp/pkg/broker"
	kerrors "github.com/rabbitstack/objexp/pkg/errors"
	"github.com/rabbitstack/objexp/pkg/util/ntstatus"
)

// Transport carries control requests to the broker.
type Transport interface {
	// Control issues the control request and returns the output payload.
	// Failures reported by the broker are returned as *StatusError.
	Control(code uint32, in []byte, outLen uint32) ([]byte, error)
	// Close releases the channel.
	Close() error
}

// StatusError is returned when the broker fails the operation.
type StatusError struct {
	Op     string
	Status ntstatus.Status
}

func (e *StatusError) Error() string {
	if e.Op == "" {
		return e.Status.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Status)
}

// Unwrap returns the status code.
func (e *StatusError) Unwrap() error { return e.Status }

// IsAccessDenied determines if the error originates from denied access.
func IsAccessDenied(err error) bool {
	s, ok := ntstatus.FromError(err)
	return ok && s == ntstatus.AccessDenied
}

// IsNotFound determines if the error signals the target doesn't exist.
func IsNotFound(err error) bool {
	s, ok := ntstatus.FromError(err)
	if !ok {
		return false
	}
	switch s {
	case ntstatus.NotFound, ntstatus.ObjectNameNotFound, ntstatus.ObjectPathNotFound, ntstatus.InvalidCid:
		return true
	}
	return false
}

// ConnTransport speaks the broker frame protocol over the stream connection.
type ConnTransport struct {
	conn net.Conn
}

// NewConnTransport completes the channel handshake on the connection. The
// broker writes the open status right after accepting the connection. If
// the channel is refused, the connection is closed and ErrChannelDenied
// returned.
func NewConnTransport(conn net.Conn) (*ConnTransport, error) {
	resp, err := broker.ReadResponse(conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("couldn't read channel open status: %v", err)
	}
	if resp.Status == ntstatus.AccessDenied {
		_ = conn.Close()
		return nil, kerrors.ErrChannelDenied
	}
	if !resp.Status.IsSuccess() {
		_ = conn.Close()
		return nil, &StatusError{Op: "open", Status: resp.Status}
	}
	return &ConnTransport{conn: conn}, nil
}

// Control writes the request frame and waits for the response.
func (t *ConnTransport) Control(code uint32, in []byte, outLen uint32) ([]byte, error) {
	if err := broker.WriteRequest(t.conn, broker.Request{Code: code, OutLen: outLen, Payload: in}); err != nil {
		return nil, err
	}
	resp, err := broker.ReadResponse(t.conn)
	if err != nil {
		return nil, err
	}
	if !resp.Status.IsSuccess() {
		return nil, &StatusError{Status: resp.Status}
	}
	return resp.Payload, nil
}

// Close closes the connection.
func (t *ConnTransport) Close() error { return t.conn.Close() }
