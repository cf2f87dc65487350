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
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

func TestJobDetails(t *testing.T) {
	job, err := windows.CreateJobObject(nil, nil)
	require.NoError(t, err)
	defer windows.CloseHandle(job)

	assert.Equal(t, "Active processes: 0, Total processes: 0", jobDetails(uintptr(job), &Handle{TypeName: Job}))
	assert.Empty(t, jobDetails(0, &Handle{TypeName: Job}))
}
