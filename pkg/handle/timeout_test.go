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
	"errors"
	"sync"
	"testing"
	"time"

	kerrors "github.com/rabbitstack/objexp/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutResolve(t *testing.T) {
	r := newTimeoutResolver(threadHooks{}, 10*time.Millisecond)
	defer r.Close()

	name, err := r.Resolve(time.Second, func() (string, error) { return `\Device\NamedPipe\objexp`, nil })
	require.NoError(t, err)
	assert.Equal(t, `\Device\NamedPipe\objexp`, name)

	_, err = r.Resolve(time.Second, func() (string, error) { return "", errors.New("invalid handle") })
	require.EqualError(t, err, "invalid handle")
}

// schedMargin absorbs the goroutine scheduling jitter on top of the timeout.
const schedMargin = 40 * time.Millisecond

func TestTimeoutCancelledQueryKeepsWorker(t *testing.T) {
	unblock := make(chan struct{})
	var once sync.Once
	hooks := threadHooks{
		attach: func() uintptr { return 1 },
		cancel: func(thread uintptr) {
			assert.Equal(t, uintptr(1), thread)
			once.Do(func() { close(unblock) })
		},
	}
	r := newTimeoutResolver(hooks, time.Second)
	defer r.Close()

	starts := queryWorkerStarts.Value()
	abandoned := abandonedWorkers.Value()
	cancelled := cancelledQueries.Value()

	start := time.Now()
	_, err := r.Resolve(5*time.Millisecond, func() (string, error) {
		<-unblock
		return "", errors.New("operation aborted")
	})
	require.ErrorIs(t, err, kerrors.ErrNameTimeout)
	assert.Less(t, time.Since(start), 5*time.Millisecond+schedMargin)

	require.Eventually(t, func() bool { return cancelledQueries.Value() == cancelled+1 }, 2*time.Second, time.Millisecond)

	name, err := r.Resolve(time.Second, func() (string, error) { return "pipe", nil })
	require.NoError(t, err)
	assert.Equal(t, "pipe", name)
	assert.Equal(t, starts+1, queryWorkerStarts.Value())
	assert.Equal(t, abandoned, abandonedWorkers.Value())
}

func TestTimeoutReturnsBeforeGrace(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	// a grace far above the timeout must never delay the caller
	r := newTimeoutResolver(threadHooks{}, 5*time.Second)
	defer r.Close()

	starts := queryWorkerStarts.Value()

	start := time.Now()
	_, err := r.Resolve(6*time.Millisecond, func() (string, error) {
		<-release
		return "late", nil
	})
	require.ErrorIs(t, err, kerrors.ErrNameTimeout)
	assert.Less(t, time.Since(start), 6*time.Millisecond+schedMargin)

	// the worker is still unwinding, so the next query gets a fresh one
	start = time.Now()
	name, err := r.Resolve(time.Second, func() (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", name)
	assert.Less(t, time.Since(start), schedMargin)
	assert.Equal(t, starts+2, queryWorkerStarts.Value())
}

func TestTimeoutAbandonsWedgedWorker(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	r := newTimeoutResolver(threadHooks{}, 10*time.Millisecond)
	defer r.Close()

	starts := queryWorkerStarts.Value()
	abandoned := abandonedWorkers.Value()

	start := time.Now()
	name, err := r.Resolve(5*time.Millisecond, func() (string, error) {
		<-release
		return "late", nil
	})
	require.ErrorIs(t, err, kerrors.ErrNameTimeout)
	assert.Empty(t, name)
	assert.Less(t, time.Since(start), 5*time.Millisecond+schedMargin)

	require.Eventually(t, func() bool { return abandonedWorkers.Value() == abandoned+1 }, 2*time.Second, time.Millisecond)

	// the next query runs on a fresh worker
	name, err = r.Resolve(time.Second, func() (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", name)
	assert.Equal(t, starts+2, queryWorkerStarts.Value())
}
