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

package handle

import (
	"unsafe"

	"github.com/rabbitstack/objexp/pkg/fs"
	"github.com/rabbitstack/objexp/pkg/sys"
	"golang.org/x/sys/windows"
)

var devMapper = fs.NewDevMapper()

func init() {
	lookupUserSID = func() string {
		user, err := windows.GetCurrentProcessToken().GetTokenUser()
		if err != nil {
			return ""
		}
		return user.User.Sid.String()
	}
}

// jobBasicAccountingInformationClass is the JobObjectBasicAccountingInformation class.
const jobBasicAccountingInformationClass = 1

type jobBasicAccountingInformation struct {
	TotalUserTime             int64
	TotalKernelTime           int64
	ThisPeriodTotalUserTime   int64
	ThisPeriodTotalKernelTime int64
	TotalPageFaultCount       uint32
	TotalProcesses            uint32
	ActiveProcesses           uint32
	TotalTerminatedProcesses  uint32
}

// DefaultFormatters returns the built-in detail formatters keyed by type name.
func DefaultFormatters() map[string]Formatter {
	return map[string]Formatter{
		Event:        eventDetails,
		Mutant:       mutantDetails,
		Semaphore:    semaphoreDetails,
		Section:      sectionDetails,
		Process:      processDetails,
		Thread:       threadDetails,
		Key:          keyDetails,
		File:         fileDetails,
		ALPCPort:     alpcPortDetails,
		Job:          jobDetails,
		SymbolicLink: symbolicLinkDetails,
		Token:        tokenDetails,
	}
}

func eventDetails(dup uintptr, _ *Handle) string {
	var info sys.EventBasicInformation
	err := sys.NtQueryEvent(windows.Handle(dup), sys.EventBasicInformationClass, unsafe.Pointer(&info), uint32(unsafe.Sizeof(info)), nil)
	if err != nil {
		return ""
	}
	return formatEvent(info.EventType, info.EventState)
}

func mutantDetails(dup uintptr, _ *Handle) string {
	var info sys.MutantBasicInformation
	err := sys.NtQueryMutant(windows.Handle(dup), sys.MutantBasicInformationClass, unsafe.Pointer(&info), uint32(unsafe.Sizeof(info)), nil)
	if err != nil {
		return ""
	}
	return formatMutant(info.CurrentCount, info.AbandonedState)
}

func semaphoreDetails(dup uintptr, _ *Handle) string {
	var info sys.SemaphoreBasicInformation
	err := sys.NtQuerySemaphore(windows.Handle(dup), sys.SemaphoreBasicInformationClass, unsafe.Pointer(&info), uint32(unsafe.Sizeof(info)), nil)
	if err != nil {
		return ""
	}
	return formatSemaphore(info.CurrentCount, info.MaximumCount)
}

func sectionDetails(dup uintptr, _ *Handle) string {
	var info sys.SectionBasicInformation
	err := sys.NtQuerySection(windows.Handle(dup), sys.SectionBasicInformationClass, unsafe.Pointer(&info), unsafe.Sizeof(info), nil)
	if err != nil {
		return ""
	}
	return formatSection(info.MaximumSize, info.AllocationAttributes)
}

func processDetails(dup uintptr, _ *Handle) string {
	pid, err := windows.GetProcessId(windows.Handle(dup))
	if err != nil {
		return ""
	}
	image, _ := sys.ImagePath(windows.Handle(dup))
	return formatProcess(pid, image)
}

func threadDetails(dup uintptr, _ *Handle) string {
	tid := sys.GetThreadId(windows.Handle(dup))
	if tid == 0 {
		return ""
	}
	return formatThread(tid, sys.GetProcessIdOfThread(windows.Handle(dup)))
}

func keyDetails(_ uintptr, h *Handle) string {
	if h.Name == "" {
		return ""
	}
	return FormatKey(h.Name, currentUserSID())
}

func fileDetails(_ uintptr, h *Handle) string {
	if h.Name == "" {
		return ""
	}
	path := devMapper.Convert(h.Name)
	return formatFile(path, sys.PathIsDirectory(path))
}

func alpcPortDetails(dup uintptr, _ *Handle) string {
	var info sys.AlpcBasicPortInformation
	err := sys.NtAlpcQueryInformation(windows.Handle(dup), sys.AlpcBasicPortInformationClass, unsafe.Pointer(&info), uint32(unsafe.Sizeof(info)), nil)
	if err != nil {
		return ""
	}
	return formatAlpcPort(info.Flags, info.Seqno)
}

func jobDetails(dup uintptr, _ *Handle) string {
	var info jobBasicAccountingInformation
	err := windows.QueryInformationJobObject(windows.Handle(dup), jobBasicAccountingInformationClass, uintptr(unsafe.Pointer(&info)), uint32(unsafe.Sizeof(info)), nil)
	if err != nil {
		return ""
	}
	return formatJob(info.ActiveProcesses, info.TotalProcesses)
}

func symbolicLinkDetails(dup uintptr, _ *Handle) string {
	target, err := sys.SymbolicLinkTarget(windows.Handle(dup))
	if err != nil {
		return ""
	}
	return target
}

func tokenDetails(dup uintptr, _ *Handle) string {
	user, err := windows.Token(dup).GetTokenUser()
	if err != nil {
		return ""
	}
	return "User: " + user.User.Sid.String()
}
