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

package growbuf

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/rabbitstack/objexp/pkg/util/ntstatus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryGrowsUntilFits(t *testing.T) {
	var sizes []int
	b, err := Query(16, func(b []byte, needed *uint32) error {
		sizes = append(sizes, len(b))
		if len(b) < 100 {
			return ntstatus.InfoLengthMismatch
		}
		b[0] = 0xAA
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{16, 32, 64, 128}, sizes)
	assert.Equal(t, byte(0xAA), b[0])
}

func TestQueryHonorsSizeHint(t *testing.T) {
	calls := 0
	b, err := Query(16, func(b []byte, needed *uint32) error {
		calls++
		if len(b) < 1000 {
			*needed = 1000
			return ntstatus.BufferTooSmall
		}
		*needed = 800
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, b, 800)
}

func TestQueryAllGrowableStatuses(t *testing.T) {
	for _, s := range []ntstatus.Status{ntstatus.InfoLengthMismatch, ntstatus.BufferTooSmall, ntstatus.BufferOverflow} {
		n := 0
		_, err := Query(8, func(b []byte, needed *uint32) error {
			n++
			if n == 1 {
				return s
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}
}

func TestQueryAbortsOnOtherErrors(t *testing.T) {
	calls := 0
	_, err := Query(16, func(b []byte, needed *uint32) error {
		calls++
		return errors.Wrap(ntstatus.AccessDenied, "query handles")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	s, ok := ntstatus.FromError(err)
	require.True(t, ok)
	assert.Equal(t, ntstatus.AccessDenied, s)
}

func TestQueryTerminatesAtMaxSize(t *testing.T) {
	defer func(n uint64) { maxSize = n }(maxSize)
	maxSize = 256
	calls := 0
	_, err := Query(64, func(b []byte, needed *uint32) error {
		calls++
		*needed = 0
		return ntstatus.InfoLengthMismatch
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))
	assert.LessOrEqual(t, calls, 3)
}
