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

package fs

import (
	"strings"
	"sync"
)

const (
	deviceOffset = 8
	// mupDevice is the device behind UNC paths
	mupDevice = `\Device\Mup`
)

// DevMapper converts native object manager file paths to DOS paths.
type DevMapper interface {
	// Convert receives the fully qualified file path and replaces the DOS device name with a drive letter.
	Convert(filename string) string
}

type mapper struct {
	mu    sync.RWMutex
	cache map[string]string
}

// NewDevMapperFrom creates the mapper from the device to drive mappings.
func NewDevMapperFrom(devices map[string]string) DevMapper {
	m := &mapper{cache: make(map[string]string, len(devices))}
	for dev, drive := range devices {
		m.cache[strings.ToLower(dev)] = drive
	}
	return m
}

func (m *mapper) Convert(filename string) string {
	if len(filename) < deviceOffset {
		return filename
	}
	if hasDevicePrefix(filename, mupDevice) {
		return `\` + filename[len(mupDevice):]
	}
	i := strings.Index(filename[deviceOffset:], `\`)
	dev := filename
	if i >= 0 {
		dev = filename[:i+deviceOffset]
	}
	m.mu.RLock()
	drive, ok := m.cache[strings.ToLower(dev)]
	m.mu.RUnlock()
	if !ok {
		return filename
	}
	return drive + filename[len(dev):]
}

func hasDevicePrefix(filename, dev string) bool {
	return len(filename) > len(dev) && strings.EqualFold(filename[:len(dev)], dev) && filename[len(dev)] == '\\'
}
