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

package ps

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNames(t *testing.T) {
	now := time.Unix(1700000000, 0)
	n := NewNames(16, time.Minute)
	n.now = func() time.Time { return now }
	calls := 0
	n.lookup = func(pid uint32) (string, error) {
		calls++
		if pid == 666 {
			return "", errors.New("process not found")
		}
		return "svchost.exe", nil
	}

	assert.Equal(t, "System Idle Process", n.Name(0))
	assert.Equal(t, "System", n.Name(4))
	assert.Equal(t, 0, calls)

	assert.Equal(t, "svchost.exe", n.Name(868))
	assert.Equal(t, "svchost.exe", n.Name(868))
	assert.Equal(t, 1, calls)

	assert.Empty(t, n.Name(666))
	assert.Empty(t, n.Name(666))
	assert.Equal(t, 2, calls)

	now = now.Add(time.Minute)
	assert.Equal(t, "svchost.exe", n.Name(868))
	assert.Equal(t, 3, calls)
}

func TestEqualFold(t *testing.T) {
	assert.True(t, equalFold("Notepad.exe", "notepad"))
	assert.True(t, equalFold("explorer.exe", "EXPLORER.exe"))
	assert.False(t, equalFold("cmd.exe", "conhost.exe"))
}

func TestExists(t *testing.T) {
	assert.True(t, Exists(uint32(os.Getpid())))
	assert.False(t, Exists(0x7FFFFFF0))
}
