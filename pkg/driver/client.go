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

// Package driver is the user-mode gateway to the privileged broker. It owns
// the channel to the broker and marshals the fixed-layout requests of each
// operation.
package driver

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/rabbitstack/objexp/pkg/broker"
)

// Client issues broker operations over the transport. Requests are
// serialized since the channel is shared by all callers.
type Client struct {
	mu sync.Mutex
	t  Transport
}

// NewClient creates the client on top of the transport.
func NewClient(t Transport) *Client {
	return &Client{t: t}
}

func (c *Client) control(op string, code uint32, in []byte, outLen uint32) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.t == nil {
		return nil, errors.Errorf("%s: channel is closed", op)
	}
	out, err := c.t.Control(code, in, outLen)
	if err != nil {
		if se, ok := err.(*StatusError); ok {
			se.Op = op
			return nil, se
		}
		return nil, errors.Wrap(err, op)
	}
	return out, nil
}

func (c *Client) handle(op string, code uint32, in []byte) (uint64, error) {
	out, err := c.control(op, code, in, broker.HandleSize)
	if err != nil {
		return 0, err
	}
	h, err := broker.UnmarshalHandle(out)
	if err != nil {
		return 0, errors.Wrap(err, op)
	}
	return h, nil
}

// OpenObject opens the object living at the kernel address.
func (c *Client) OpenObject(addr uint64, access uint32) (uint64, error) {
	return c.handle("OpenObject", broker.IoctlOpenObject, broker.OpenObjectData{Address: addr, Access: access}.Marshal())
}

// DupHandle duplicates the handle of the source process into this process.
func (c *Client) DupHandle(h uint32, pid uint32, access uint32, flags uint32) (uint64, error) {
	data := broker.DupHandleData{Handle: h, SourcePid: pid, AccessMask: access, Flags: flags}
	return c.handle("DupHandle", broker.IoctlDupHandle, data.Marshal())
}

// OpenProcess opens the process by its identifier.
func (c *Client) OpenProcess(pid uint32, access uint32) (uint64, error) {
	return c.handle("OpenProcess", broker.IoctlOpenProcess, broker.OpenProcessThreadData{ID: pid, AccessMask: access}.Marshal())
}

// OpenThread opens the thread by its identifier.
func (c *Client) OpenThread(tid uint32, access uint32) (uint64, error) {
	return c.handle("OpenThread", broker.IoctlOpenThread, broker.OpenProcessThreadData{ID: tid, AccessMask: access}.Marshal())
}

func (c *Client) openByName(op string, code uint32, path string) (uint64, error) {
	in, err := broker.MarshalName(path)
	if err != nil {
		return 0, errors.Wrap(err, op)
	}
	return c.handle(op, code, in)
}

// OpenEventByName opens the event object by its path.
func (c *Client) OpenEventByName(path string) (uint64, error) {
	return c.openByName("OpenEventByName", broker.IoctlOpenEventByName, path)
}

// OpenSemaphoreByName opens the semaphore object by its path.
func (c *Client) OpenSemaphoreByName(path string) (uint64, error) {
	return c.openByName("OpenSemaphoreByName", broker.IoctlOpenSemaphoreByName, path)
}

// OpenJobByName opens the job object by its path.
func (c *Client) OpenJobByName(path string) (uint64, error) {
	return c.openByName("OpenJobByName", broker.IoctlOpenJobByName, path)
}

// OpenDesktopByName opens the desktop object by its path.
func (c *Client) OpenDesktopByName(path string) (uint64, error) {
	return c.openByName("OpenDesktopByName", broker.IoctlOpenDesktopByName, path)
}

// GetVersion returns the broker protocol version.
func (c *Client) GetVersion() (uint16, error) {
	out, err := c.control("GetVersion", broker.IoctlGetVersion, nil, broker.VersionSize)
	if err != nil {
		return 0, err
	}
	return broker.UnmarshalVersion(out)
}

// GetObjectAddress resolves the handle of this process to the kernel object address.
func (c *Client) GetObjectAddress(h uint64) (uint64, error) {
	out, err := c.control("GetObjectAddress", broker.IoctlGetObjectAddress, broker.MarshalHandle(h), broker.AddressSize)
	if err != nil {
		return 0, err
	}
	return broker.UnmarshalHandle(out)
}

// TryOpenObject opens the object by address and returns zero if the operation fails.
func (c *Client) TryOpenObject(addr uint64, access uint32) uint64 {
	h, err := c.OpenObject(addr, access)
	if err != nil {
		return 0
	}
	return h
}

// TryOpenProcess opens the process and returns zero if the operation fails.
func (c *Client) TryOpenProcess(pid uint32, access uint32) uint64 {
	h, err := c.OpenProcess(pid, access)
	if err != nil {
		return 0
	}
	return h
}

// Close releases the channel. Subsequent operations fail.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.t == nil {
		return nil
	}
	err := c.t.Close()
	c.t = nil
	return err
}
