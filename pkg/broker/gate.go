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

package broker

import (
	"strings"
)

// DefaultImages are the client image names allowed to open the control channel.
var DefaultImages = []string{"objexp.exe", "sysexp.exe"}

// Gate decides whether the process is allowed to open the control channel.
// The decision is made once per channel from the image name of the caller.
type Gate struct {
	images []string
}

// NewGate creates the gate admitting the given image names.
func NewGate(images []string) *Gate {
	if len(images) == 0 {
		images = DefaultImages
	}
	return &Gate{images: images}
}

// Allow determines whether the image path refers to one of the recognized
// executables. Comparison ignores the directory and the case of the name.
func (g *Gate) Allow(image string) bool {
	name := image
	if i := strings.LastIndexAny(image, `\/`); i >= 0 {
		name = image[i+1:]
	}
	if name == "" {
		return false
	}
	for _, img := range g.images {
		if strings.EqualFold(name, img) {
			return true
		}
	}
	return false
}
