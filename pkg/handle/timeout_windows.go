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
	"github.com/rabbitstack/objexp/pkg/sys"
	"golang.org/x/sys/windows"
)

// threadTerminate is the access right required by CancelSynchronousIo.
const threadTerminate = 0x0001

func platformHooks() threadHooks {
	return threadHooks{
		attach: func() uintptr {
			thread, err := windows.OpenThread(threadTerminate, false, windows.GetCurrentThreadId())
			if err != nil {
				return 0
			}
			return uintptr(thread)
		},
		cancel: func(thread uintptr) {
			if thread != 0 {
				_ = sys.CancelSynchronousIo(windows.Handle(thread))
			}
		},
		detach: func(thread uintptr) {
			if thread != 0 {
				_ = windows.CloseHandle(windows.Handle(thread))
			}
		},
	}
}
