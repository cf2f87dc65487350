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

import "github.com/stretchr/testify/mock"

// KernelMock is the mock kernel back-end used in tests.
type KernelMock struct {
	mock.Mock
}

// ReferenceObjectByAddress method
func (k *KernelMock) ReferenceObjectByAddress(addr uint64, access uint32) error {
	args := k.Called(addr, access)
	return args.Error(0)
}

// OpenObjectByAddress method
func (k *KernelMock) OpenObjectByAddress(c Caller, addr uint64, access uint32) (uint64, error) {
	args := k.Called(c, addr, access)
	return args.Get(0).(uint64), args.Error(1)
}

// DereferenceObject method
func (k *KernelMock) DereferenceObject(addr uint64) { k.Called(addr) }

// OpenProcess method
func (k *KernelMock) OpenProcess(pid uint32, access uint32) (uint64, error) {
	args := k.Called(pid, access)
	return args.Get(0).(uint64), args.Error(1)
}

// DuplicateObject method
func (k *KernelMock) DuplicateObject(c Caller, process uint64, handle uint32, access uint32, flags uint32) (uint64, error) {
	args := k.Called(c, process, handle, access, flags)
	return args.Get(0).(uint64), args.Error(1)
}

// CloseHandle method
func (k *KernelMock) CloseHandle(h uint64) error {
	args := k.Called(h)
	return args.Error(0)
}

// OpenObjectByName method
func (k *KernelMock) OpenObjectByName(c Caller, path string, kind ObjectKind, access uint32) (uint64, error) {
	args := k.Called(c, path, kind, access)
	return args.Get(0).(uint64), args.Error(1)
}

// OpenProcessByID method
func (k *KernelMock) OpenProcessByID(c Caller, pid uint32, access uint32) (uint64, error) {
	args := k.Called(c, pid, access)
	return args.Get(0).(uint64), args.Error(1)
}

// OpenThreadByID method
func (k *KernelMock) OpenThreadByID(c Caller, tid uint32, access uint32) (uint64, error) {
	args := k.Called(c, tid, access)
	return args.Get(0).(uint64), args.Error(1)
}

// ObjectAddressFromHandle method
func (k *KernelMock) ObjectAddressFromHandle(c Caller, h uint64) (uint64, error) {
	args := k.Called(c, h)
	return args.Get(0).(uint64), args.Error(1)
}
