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

//go:generate go run golang.org/x/sys/windows/mkwinsyscall -output zsyscall_windows.go syscall.go

//sys NtQueryObject(handle windows.Handle, objectInfoClass int32, objInfo unsafe.Pointer, objInfoLen uint32, retLen *uint32) (ntstatus error) = ntdll.NtQueryObject
//sys NtQueryMutant(handle windows.Handle, mutantInfoClass int32, mutantInfo unsafe.Pointer, mutantInfoLen uint32, retLen *uint32) (ntstatus error) = ntdll.NtQueryMutant
//sys NtQueryEvent(handle windows.Handle, eventInfoClass int32, eventInfo unsafe.Pointer, eventInfoLen uint32, retLen *uint32) (ntstatus error) = ntdll.NtQueryEvent
//sys NtQuerySemaphore(handle windows.Handle, semaphoreInfoClass int32, semaphoreInfo unsafe.Pointer, semaphoreInfoLen uint32, retLen *uint32) (ntstatus error) = ntdll.NtQuerySemaphore
//sys NtQuerySection(handle windows.Handle, sectionInfoClass int32, sectionInfo unsafe.Pointer, sectionInfoLen uintptr, retLen *uintptr) (ntstatus error) = ntdll.NtQuerySection
//sys NtAlpcQueryInformation(handle windows.Handle, alpcInfoClass int32, alpcInfo unsafe.Pointer, alpcInfoLen uint32, retLen *uint32) (ntstatus error) = ntdll.NtAlpcQueryInformation
//sys NtOpenDirectoryObject(handle *windows.Handle, access uint32, oa *windows.OBJECT_ATTRIBUTES) (ntstatus error) = ntdll.NtOpenDirectoryObject
//sys NtQueryDirectoryObject(handle windows.Handle, buf unsafe.Pointer, size uint32, singleEntry bool, restartScan bool, context *uint32, retLen *uint32) (ntstatus error) = ntdll.NtQueryDirectoryObject
//sys NtOpenSymbolicLinkObject(handle *windows.Handle, access uint32, oa *windows.OBJECT_ATTRIBUTES) (ntstatus error) = ntdll.NtOpenSymbolicLinkObject
//sys NtQuerySymbolicLinkObject(handle windows.Handle, target *windows.NTUnicodeString, retLen *uint32) (ntstatus error) = ntdll.NtQuerySymbolicLinkObject
//sys NtOpenEvent(handle *windows.Handle, access uint32, oa *windows.OBJECT_ATTRIBUTES) (ntstatus error) = ntdll.NtOpenEvent
//sys NtOpenMutant(handle *windows.Handle, access uint32, oa *windows.OBJECT_ATTRIBUTES) (ntstatus error) = ntdll.NtOpenMutant
//sys NtOpenSection(handle *windows.Handle, access uint32, oa *windows.OBJECT_ATTRIBUTES) (ntstatus error) = ntdll.NtOpenSection
//sys NtOpenSemaphore(handle *windows.Handle, access uint32, oa *windows.OBJECT_ATTRIBUTES) (ntstatus error) = ntdll.NtOpenSemaphore
//sys NtOpenIoCompletion(handle *windows.Handle, access uint32, oa *windows.OBJECT_ATTRIBUTES) (ntstatus error) = ntdll.NtOpenIoCompletion
//sys NtOpenKey(handle *windows.Handle, access uint32, oa *windows.OBJECT_ATTRIBUTES) (ntstatus error) = ntdll.NtOpenKey
//sys NtOpenJobObject(handle *windows.Handle, access uint32, oa *windows.OBJECT_ATTRIBUTES) (ntstatus error) = ntdll.NtOpenJobObject
//sys NtDuplicateObject(sourceProcess windows.Handle, sourceHandle windows.Handle, targetProcess windows.Handle, targetHandle *windows.Handle, access uint32, attributes uint32, options uint32) (ntstatus error) = ntdll.NtDuplicateObject
//sys GetNamedPipeClientProcessId(pipe windows.Handle, pid *uint32) (err error) = kernel32.GetNamedPipeClientProcessId
//sys CancelSynchronousIo(thread windows.Handle) (err error) = kernel32.CancelSynchronousIo
//sys GetProcessIdOfThread(handle windows.Handle) (pid uint32) = kernel32.GetProcessIdOfThread
//sys GetThreadId(handle windows.Handle) (tid uint32) = kernel32.GetThreadId
//sys OpenDesktop(name *uint16, flags uint32, inherit bool, access uint32) (h windows.Handle, err error) = user32.OpenDesktopW
//sys pathIsDirectory(path *uint16) (isDirectory bool) = shlwapi.PathIsDirectoryW
