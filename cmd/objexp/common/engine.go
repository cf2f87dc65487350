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

package common

import (
	"time"

	"github.com/rabbitstack/objexp/pkg/config"
	"github.com/rabbitstack/objexp/pkg/handle"
)

// Engine bundles the handle manager with the process handle source
// and the detail formatters bound to the populated type registry.
type Engine struct {
	Manager *handle.Manager
	Procs   handle.ProcessSource
	Details *handle.DetailsCache

	formatters *handle.Formatters
	release    func()
}

func newEngine(c *config.Config, src handle.SystemSource, procs handle.ProcessSource, release func()) *Engine {
	timeout := c.Handle.NameTimeout
	if timeout <= 0 {
		timeout = config.DefaultNameTimeout
	}
	return &Engine{
		Manager: handle.NewManager(src, handle.WithNameTimeout(timeout)),
		Procs:   procs,
		Details: handle.NewDetailsCache(c.Handle.DetailsTTL),
		release: release,
	}
}

// Formatters returns the detail formatters. The registry must be populated
// before the first call.
func (e *Engine) Formatters() *handle.Formatters {
	if e.formatters == nil {
		e.formatters = handle.NewFormatters(e.Manager.Registry(), handle.DefaultFormatters())
	}
	return e.formatters
}

// Describe renders the type-specific details of the handle.
func (e *Engine) Describe(h *handle.Handle) string {
	return e.Manager.Details(h, e.Formatters(), e.Details)
}

// Tracker creates the handle tracker for the process.
func (e *Engine) Tracker(pid uint32, hold time.Duration) *handle.Tracker {
	return handle.NewTracker(pid, e.Procs, e.Manager, handle.WithHoldDuration(hold))
}

// Close releases the engine resources.
func (e *Engine) Close() {
	e.Manager.Registry().Close()
	if e.release != nil {
		e.release()
	}
}
