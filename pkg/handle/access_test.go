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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeAccess(t *testing.T) {
	var tests = []struct {
		typ  string
		mask uint32
		want string
	}{
		{Process, 0x1FFFFF, "PROCESS_ALL_ACCESS"},
		{Process, 0x1410, "PROCESS_VM_READ | PROCESS_QUERY_INFORMATION | PROCESS_QUERY_LIMITED_INFORMATION"},
		{Event, 0x1F0003, "EVENT_ALL_ACCESS"},
		{Event, 0x100002, "EVENT_MODIFY_STATE | SYNCHRONIZE"},
		{File, 0x120089, "FILE_READ_DATA | FILE_READ_EA | FILE_READ_ATTRIBUTES | READ_CONTROL | SYNCHRONIZE"},
		{Key, 0x20019, "KEY_QUERY_VALUE | KEY_ENUMERATE_SUB_KEYS | KEY_NOTIFY | READ_CONTROL"},
		{"WaitCompletionPacket", 0x1, "0x1"},
		{"EtwRegistration", 0x100804, "SYNCHRONIZE | 0x804"},
		{Mutant, 0, "NONE"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeAccess(tt.typ, tt.mask))
		})
	}
}
