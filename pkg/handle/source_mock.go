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
	"time"

	"github.com/stretchr/testify/mock"
)

// SourceMock is the mock system handle source used in tests.
type SourceMock struct {
	mock.Mock
}

// QueryTypes method
func (s *SourceMock) QueryTypes() ([]ObjectType, error) {
	args := s.Called()
	types, _ := args.Get(0).([]ObjectType)
	return types, args.Error(1)
}

// NativeIndices method
func (s *SourceMock) NativeIndices() bool { return s.Called().Bool(0) }

// QueryHandles method
func (s *SourceMock) QueryHandles() ([]Entry, error) {
	args := s.Called()
	entries, _ := args.Get(0).([]Entry)
	return entries, args.Error(1)
}

// Duplicate method
func (s *SourceMock) Duplicate(pid, value, access, flags uint32) (uintptr, error) {
	args := s.Called(pid, value, access, flags)
	return args.Get(0).(uintptr), args.Error(1)
}

// Close method
func (s *SourceMock) Close(dup uintptr) { s.Called(dup) }

// ObjectName method
func (s *SourceMock) ObjectName(dup uintptr, timeout time.Duration) (string, error) {
	args := s.Called(dup, timeout)
	return args.String(0), args.Error(1)
}

// CurrentPid method
func (s *SourceMock) CurrentPid() uint32 { return s.Called().Get(0).(uint32) }

// OpenObject method
func (s *SourceMock) OpenObject(path, typeName string, access uint32) (uintptr, error) {
	args := s.Called(path, typeName, access)
	return args.Get(0).(uintptr), args.Error(1)
}

// EnumDirectory method
func (s *SourceMock) EnumDirectory(path string) ([]DirEntry, error) {
	args := s.Called(path)
	entries, _ := args.Get(0).([]DirEntry)
	return entries, args.Error(1)
}

// SymbolicLinkTarget method
func (s *SourceMock) SymbolicLinkTarget(path string) (string, error) {
	args := s.Called(path)
	return args.String(0), args.Error(1)
}

// ProcessSourceMock is the mock process handle source used in tests.
type ProcessSourceMock struct {
	mock.Mock
}

// ProcessHandles method
func (s *ProcessSourceMock) ProcessHandles(pid uint32) ([]Entry, error) {
	args := s.Called(pid)
	entries, _ := args.Get(0).([]Entry)
	return entries, args.Error(1)
}

// Inspect method
func (s *ProcessSourceMock) Inspect(pid uint32, e *Entry) (uintptr, error) {
	args := s.Called(pid, e.Value)
	if fill, ok := args.Get(0).(func(*Entry)); ok {
		fill(e)
		return uintptr(e.Value), args.Error(1)
	}
	return args.Get(0).(uintptr), args.Error(1)
}

// Close method
func (s *ProcessSourceMock) Close(dup uintptr) { s.Called(dup) }

// Exited method
func (s *ProcessSourceMock) Exited(pid uint32) bool { return s.Called(pid).Bool(0) }
