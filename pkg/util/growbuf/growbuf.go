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

// Package growbuf implements the protocol for issuing variable-length system
// queries. The query is first attempted with the initial buffer size. As long
// as the system signals that the buffer is too small, the buffer is doubled
// and the query retried. Any other failure is terminal for the call.
package growbuf

import (
	"expvar"

	"github.com/pkg/errors"
	"github.com/rabbitstack/objexp/pkg/util/ntstatus"
)

// maxSize is the upper bound for the buffer size. Growing past this size is
// treated as the system running out of memory.
var maxSize uint64 = 1 << 31

// ErrTooLarge is returned when the buffer would have to grow beyond the maximum size.
var ErrTooLarge = errors.New("query buffer exceeded the maximum allowed size")

var growths = expvar.NewInt("growbuf.growths")

// QueryFunc performs the system query into the given buffer. The needed
// parameter receives the size hint reported by the system, or zero if the
// query doesn't report it.
type QueryFunc func(b []byte, needed *uint32) error

// Query runs the query starting with a buffer of the given size and returns
// the filled buffer on success.
func Query(size uint32, fn QueryFunc) ([]byte, error) {
	if size == 0 {
		size = 4096
	}
	for {
		buf := make([]byte, size)
		var needed uint32
		err := fn(buf, &needed)
		if err == nil {
			if needed > 0 && needed <= size {
				return buf[:needed], nil
			}
			return buf, nil
		}
		if !ntstatus.IsGrowable(err) {
			return nil, err
		}
		growths.Add(1)
		next := uint64(size) * 2
		if uint64(needed) > next {
			next = uint64(needed)
		}
		if next > maxSize {
			return nil, errors.Wrapf(ErrTooLarge, "%d bytes requested", next)
		}
		size = uint32(next)
	}
}
