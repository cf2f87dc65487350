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
	"path/filepath"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
)

// ProcessStatusStillActive represents the status of the running process
const ProcessStatusStillActive uint32 = 259

// IsProcessRunning determines whether the process is in a running state.
func IsProcessRunning(proc windows.Handle) bool {
	var exitcode uint32
	err := windows.GetExitCodeProcess(proc, &exitcode)
	if err != nil {
		return false
	}
	return exitcode == ProcessStatusStillActive
}

// IsProcessSignaled performs a zero-timeout wait on the process handle. The
// process object is signaled once the process terminates. The handle must be
// opened with the SYNCHRONIZE access right.
func IsProcessSignaled(proc windows.Handle) bool {
	s, err := windows.WaitForSingleObject(proc, 0)
	return err == nil && s == windows.WAIT_OBJECT_0
}

// ImagePath returns the full image path of the process. The process handle
// requires PROCESS_QUERY_LIMITED_INFORMATION access.
func ImagePath(proc windows.Handle) (string, error) {
	var size uint32 = windows.MAX_LONG_PATH
	n := make([]uint16, size)
	if err := windows.QueryFullProcessImageName(proc, 0, &n[0], &size); err != nil {
		return "", err
	}
	return windows.UTF16ToString(n[:size]), nil
}

// ImagePathByID returns the full image path of the process with the given identifier.
func ImagePathByID(pid uint32) (string, error) {
	proc, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return "", err
	}
	//nolint:errcheck
	defer windows.CloseHandle(proc)
	return ImagePath(proc)
}

// ImageName returns the image file name of the process with the given identifier.
func ImageName(pid uint32) string {
	path, err := ImagePathByID(pid)
	if err != nil {
		return ""
	}
	return filepath.Base(path)
}

// IsWindowsService reports whether the process is currently executing
// as a Windows service.
func IsWindowsService() bool {
	isSvc, err := svc.IsWindowsService()
	return isSvc && err == nil
}
