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

package ntstatus

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSuccess(t *testing.T) {
	assert.True(t, Success.IsSuccess())
	assert.True(t, Timeout.IsSuccess())
	assert.False(t, AccessDenied.IsSuccess())
	assert.False(t, BufferOverflow.IsSuccess())
}

func TestIsGrowable(t *testing.T) {
	for _, s := range []Status{InfoLengthMismatch, BufferTooSmall, BufferOverflow} {
		assert.True(t, s.IsGrowable(), s.Name())
		assert.True(t, IsGrowable(errors.Wrap(s, "query")))
	}
	assert.False(t, AccessDenied.IsGrowable())
	assert.False(t, IsGrowable(errors.New("boom")))
}

func TestFromError(t *testing.T) {
	s, ok := FromError(errors.Wrapf(ObjectNameNotFound, "open %s", `\BaseNamedObjects\foo`))
	require.True(t, ok)
	assert.Equal(t, ObjectNameNotFound, s)

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)

	s, ok = FromError(nil)
	require.True(t, ok)
	assert.Equal(t, Success, s)
}

func TestName(t *testing.T) {
	assert.Equal(t, "STATUS_ACCESS_DENIED", AccessDenied.Name())
	assert.Equal(t, "0xC0DEC0DE", Status(0xC0DEC0DE).Name())
}
