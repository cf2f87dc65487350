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
	"github.com/rabbitstack/objexp/pkg/config"
	"github.com/rabbitstack/objexp/pkg/driver"
	"github.com/rabbitstack/objexp/pkg/handle"
	log "github.com/sirupsen/logrus"
)

// NewEngine creates the engine on top of the native handle source. The
// broker channel is optional. Without it object addresses of tracked
// handles are not available and duplication falls back to local calls.
func NewEngine(c *config.Config) (*Engine, error) {
	client, err := driver.Default()
	if err != nil {
		log.Warnf("continuing without the broker: %v", err)
		client = nil
	}
	src := handle.NewSource(c.Handle.BufferSize, client)
	return newEngine(c, src, src, func() {
		src.Release()
		if err := driver.Close(); err != nil {
			log.Debugf("unable to close the broker channel: %v", err)
		}
	}), nil
}
