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
	"expvar"
	"runtime"
	"sync"
	"time"

	kerrors "github.com/rabbitstack/objexp/pkg/errors"
)

// DefaultCancelGrace is how long the timed out query is given to unwind
// after the cancellation before its worker is abandoned.
const DefaultCancelGrace = 50 * time.Millisecond

var (
	waitTimeouts      = expvar.NewInt("handle.wait.timeouts")
	abandonedWorkers  = expvar.NewInt("handle.wait.abandoned.workers")
	cancelledQueries  = expvar.NewInt("handle.wait.cancelled")
	queryWorkerStarts = expvar.NewInt("handle.wait.worker.starts")
)

// threadHooks bind the worker to the OS thread it runs on, so the pending
// query can be cancelled from the outside.
type threadHooks struct {
	attach func() uintptr
	cancel func(thread uintptr)
	detach func(thread uintptr)
}

type query struct {
	fn   func() (string, error)
	resp chan queryResult
}

type queryResult struct {
	name string
	err  error
}

type worker struct {
	queries chan query
	thread  uintptr
	ready   chan struct{}
	// pending is set while the timed out query unwinds
	pending bool
	stopped bool
}

func (w *worker) stop() {
	if !w.stopped {
		w.stopped = true
		close(w.queries)
	}
}

// TimeoutResolver runs queries that are at risk of blocking indefinitely,
// like File object name queries on synchronous pipes. Queries run one at a
// time on a dedicated OS thread. When the query exceeds the timeout, its
// pending I/O is cancelled and the caller returns right away. If the worker
// doesn't unwind within the grace period, it is left behind. A query issued
// while the previous one is still unwinding starts on a fresh worker.
type TimeoutResolver struct {
	mu    sync.Mutex
	w     *worker
	hooks threadHooks
	grace time.Duration
}

// NewTimeoutResolver creates the timeout resolver.
func NewTimeoutResolver() *TimeoutResolver {
	return newTimeoutResolver(platformHooks(), DefaultCancelGrace)
}

func newTimeoutResolver(hooks threadHooks, grace time.Duration) *TimeoutResolver {
	return &TimeoutResolver{hooks: hooks, grace: grace}
}

// Resolve runs the query and waits for it to complete within the timeout.
// ErrNameTimeout is returned when the query doesn't complete in time.
func (r *TimeoutResolver) Resolve(timeout time.Duration, fn func() (string, error)) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.worker()
	q := query{fn: fn, resp: make(chan queryResult, 1)}
	w.queries <- q

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-q.resp:
		return res.name, res.err
	case <-timer.C:
	}

	waitTimeouts.Add(1)
	if r.hooks.cancel != nil {
		r.hooks.cancel(w.thread)
	}
	w.pending = true
	go r.reap(w, q.resp)
	return "", kerrors.ErrNameTimeout
}

// reap waits for the cancelled query to unwind. The worker is abandoned if
// the query doesn't return within the grace period.
func (r *TimeoutResolver) reap(w *worker, resp chan queryResult) {
	grace := time.NewTimer(r.grace)
	defer grace.Stop()

	var answered bool
	select {
	case <-resp:
		answered = true
	case <-grace.C:
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	w.pending = false
	if answered {
		cancelledQueries.Add(1)
		if r.w != w {
			w.stop()
		}
		return
	}
	// the worker exits on its own if the query ever returns
	abandonedWorkers.Add(1)
	w.stop()
	if r.w == w {
		r.w = nil
	}
}

func (r *TimeoutResolver) worker() *worker {
	if r.w != nil && !r.w.pending {
		return r.w
	}
	// a worker still unwinding is released by its reaper
	w := &worker{queries: make(chan query, 1), ready: make(chan struct{})}
	go r.run(w)
	<-w.ready
	queryWorkerStarts.Add(1)
	r.w = w
	return w
}

func (r *TimeoutResolver) run(w *worker) {
	runtime.LockOSThread()
	if r.hooks.attach != nil {
		w.thread = r.hooks.attach()
	}
	close(w.ready)
	for q := range w.queries {
		name, err := q.fn()
		q.resp <- queryResult{name: name, err: err}
	}
	if r.hooks.detach != nil {
		r.hooks.detach(w.thread)
	}
	// exiting while locked terminates the thread
}

// Close stops the worker. The worker blocked in the query exits as soon as
// the query returns.
func (r *TimeoutResolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w != nil {
		r.w.stop()
		r.w = nil
	}
}
